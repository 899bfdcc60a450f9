package store

import (
	"context"
	"fmt"
	"log/slog"

	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/models"
)

// ListStations returns every station name in insertion order.
func (s *Store) ListStations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, s.stations.Len())
	for pair := s.stations.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// GetStation returns a copy of the per-train stop map for a station.
func (s *Store) GetStation(name string) (*models.StationSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	station, ok := s.stations.Get(name)
	if !ok {
		return nil, fmt.Errorf("station %q: %w", name, ErrNotFound)
	}
	return models.CloneStationSchedule(station), nil
}

// UpsertStationStop creates the station if needed and overwrites the train's
// stop there, then persists both tables. The train table is not consulted or
// changed, so the station may reference a train id that has no schedule.
func (s *Store) UpsertStationStop(ctx context.Context, stationName, trainID string, stop models.StationStop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stop.Days = append([]string(nil), stop.Days...)
	s.stationLocked(stationName).Set(trainID, stop)

	logging.LogOperation(s.logger, "station_stop_upserted",
		slog.String("station", stationName),
		slog.String("train_id", trainID))

	return s.persistLocked(ctx)
}
