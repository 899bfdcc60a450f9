package store

import (
	"context"
	"fmt"
	"log/slog"

	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/models"
)

// BatchResult lists the train ids a batch add inserted and skipped.
type BatchResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

// ListTrains summarizes every train as "origin to terminus". Trains with an
// empty schedule are left out.
func (s *Store) ListTrains() *models.TrainSummaries {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := models.NewTrainSummaries()
	for pair := s.trains.Oldest(); pair != nil; pair = pair.Next() {
		origin, terminus, ok := models.Endpoints(pair.Value)
		if !ok {
			continue
		}
		summaries.Set(pair.Key, fmt.Sprintf("%s to %s", origin, terminus))
	}
	return summaries
}

// GetTrain returns a copy of the train's schedule.
func (s *Store) GetTrain(trainID string) (*models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.trains.Get(trainID)
	if !ok {
		return nil, fmt.Errorf("train %q: %w", trainID, ErrNotFound)
	}
	return models.CloneSchedule(schedule), nil
}

// AddTrain inserts a new train and records each of its stops in the station
// index, then persists both tables. An existing train id yields ErrConflict and
// leaves the tables untouched. A *PersistError means the train was added in
// memory but not saved.
func (s *Store) AddTrain(ctx context.Context, train models.Train) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trains.Get(train.TrainID); exists {
		return fmt.Errorf("train %q: %w", train.TrainID, ErrConflict)
	}

	if err := s.addTrainLocked(train); err != nil {
		return fmt.Errorf("train %q: %w", train.TrainID, err)
	}
	logging.LogOperation(s.logger, "train_added",
		slog.String("train_id", train.TrainID),
		slog.Any("stations", models.StationNames(train.Schedule)))

	return s.persistLocked(ctx)
}

// AddTrains adds every train whose id is not already present, skipping the
// rest, and persists once at the end.
func (s *Store) AddTrains(ctx context.Context, trains []models.Train) (BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := BatchResult{Added: []string{}, Skipped: []string{}}
	for _, train := range trains {
		if _, exists := s.trains.Get(train.TrainID); exists {
			result.Skipped = append(result.Skipped, train.TrainID)
			continue
		}
		if err := s.addTrainLocked(train); err != nil {
			return result, fmt.Errorf("train %q: %w", train.TrainID, err)
		}
		result.Added = append(result.Added, train.TrainID)
	}

	logging.LogOperation(s.logger, "trains_batch_added",
		slog.Int("added", len(result.Added)),
		slog.Int("skipped", len(result.Skipped)))

	if len(result.Added) == 0 {
		return result, nil
	}
	return result, s.persistLocked(ctx)
}

// addTrainLocked projects every stop before touching either table, so a failed
// projection leaves both unchanged.
func (s *Store) addTrainLocked(train models.Train) error {
	schedule := models.CloneSchedule(train.Schedule)

	stationStops := make([]models.StationStop, 0, schedule.Len())
	for pair := schedule.Oldest(); pair != nil; pair = pair.Next() {
		stationStop, err := models.NewStationStop(pair.Value)
		if err != nil {
			return fmt.Errorf("station %q: %w", pair.Key, err)
		}
		stationStops = append(stationStops, stationStop)
	}

	s.trains.Set(train.TrainID, schedule)
	i := 0
	for pair := schedule.Oldest(); pair != nil; pair = pair.Next() {
		s.stationLocked(pair.Key).Set(train.TrainID, stationStops[i])
		i++
	}
	return nil
}

// stationLocked returns the station's schedule, creating an empty one if needed.
func (s *Store) stationLocked(name string) *models.StationSchedule {
	station, ok := s.stations.Get(name)
	if !ok {
		station = models.NewStationSchedule()
		s.stations.Set(name, station)
	}
	return station
}
