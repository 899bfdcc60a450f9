package store

import (
	"fmt"

	"railbook.dev/railbook/internal/models"
)

// Search returns every train that calls at from and later at to. Both stations
// must be known to the station index, otherwise ErrNotFound is returned. This is
// a full scan of the train table.
func (s *Store) Search(from, to string) ([]models.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.stations.Get(from); !ok {
		return nil, fmt.Errorf("station %q: %w", from, ErrNotFound)
	}
	if _, ok := s.stations.Get(to); !ok {
		return nil, fmt.Errorf("station %q: %w", to, ErrNotFound)
	}

	connections := []models.Connection{}
	for pair := s.trains.Oldest(); pair != nil; pair = pair.Next() {
		schedule := pair.Value

		fromIndex := models.StationIndex(schedule, from)
		toIndex := models.StationIndex(schedule, to)
		if fromIndex < 0 || toIndex < 0 || fromIndex >= toIndex {
			continue
		}

		fromStop, _ := schedule.Get(from)
		toStop, _ := schedule.Get(to)
		connections = append(connections, models.NewConnection(pair.Key, from, fromStop, to, toStop))
	}

	s.metrics.ObserveSearch(len(connections))
	return connections, nil
}
