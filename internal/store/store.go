// Package store holds the train table and the station index in memory and
// writes both back to a Persister after every mutation.
//
// The two tables are denormalized: adding a train also records its stops in
// the station index, but a station stop can be written on its own without a
// matching train. A single RWMutex guards both tables, so every write
// (including its save) is serialized.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/metrics"
	"railbook.dev/railbook/internal/models"
)

// DocumentStatus describes what happened to a document at startup.
type DocumentStatus string

const (
	StatusNotLoaded  DocumentStatus = "not_loaded"
	StatusLoaded     DocumentStatus = "loaded"
	StatusMissing    DocumentStatus = "missing"
	StatusCorrupt    DocumentStatus = "corrupt"
	StatusUnreadable DocumentStatus = "unreadable"
)

// LoadReport is the startup status of both documents.
type LoadReport struct {
	Trains   DocumentStatus `json:"trains"`
	Stations DocumentStatus `json:"stations"`
}

// Degraded reports whether a document existed but had to be replaced by an empty table.
func (r LoadReport) Degraded() bool {
	return r.Trains == StatusCorrupt || r.Trains == StatusUnreadable ||
		r.Stations == StatusCorrupt || r.Stations == StatusUnreadable
}

type Options struct {
	Persister Persister
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	// StrictLoad makes Load fail on a corrupt or unreadable document instead of
	// starting that table empty.
	StrictLoad bool
}

type Store struct {
	mu       sync.RWMutex
	trains   *models.TrainTable
	stations *models.StationTable

	persister  Persister
	logger     *slog.Logger
	metrics    *metrics.Metrics
	strictLoad bool
	report     LoadReport
}

// New returns a store with empty tables. Nothing is read until Load is called.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		trains:     models.NewTrainTable(),
		stations:   models.NewStationTable(),
		persister:  opts.Persister,
		logger:     logger.With(slog.String("component", "store")),
		metrics:    opts.Metrics,
		strictLoad: opts.StrictLoad,
		report:     LoadReport{Trains: StatusNotLoaded, Stations: StatusNotLoaded},
	}
}

// Open creates a store and loads both documents from the persister.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := New(opts)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces both tables with the persisted documents. A missing document
// yields an empty table. A corrupt or unreadable one also yields an empty table
// and is logged, unless strict loading is on, in which case a *LoadError is returned.
func (s *Store) Load(ctx context.Context) error {
	trains := models.NewTrainTable()
	stations := models.NewStationTable()
	var report LoadReport

	if s.persister != nil {
		var err error
		report.Trains, err = s.loadDocument(ctx, TrainsDocument, func(data []byte) error {
			table, decodeErr := decodeTrainTable(data)
			if decodeErr == nil {
				trains = table
			}
			return decodeErr
		})
		if err != nil {
			return err
		}

		report.Stations, err = s.loadDocument(ctx, StationsDocument, func(data []byte) error {
			table, decodeErr := decodeStationTable(data)
			if decodeErr == nil {
				stations = table
			}
			return decodeErr
		})
		if err != nil {
			return err
		}
	} else {
		report = LoadReport{Trains: StatusMissing, Stations: StatusMissing}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.trains = trains
	s.stations = stations
	s.report = report
	s.metrics.SetTableSizes(trains.Len(), stations.Len())

	logging.LogOperation(s.logger, "store_loaded",
		slog.Int("trains", trains.Len()),
		slog.Int("stations", stations.Len()),
		slog.String("trains_status", string(report.Trains)),
		slog.String("stations_status", string(report.Stations)))

	return nil
}

func (s *Store) loadDocument(ctx context.Context, name string, decode func([]byte) error) (DocumentStatus, error) {
	status, err := s.readDocument(ctx, name, decode)
	s.metrics.ObserveLoad(name, string(status))

	if err == nil {
		return status, nil
	}

	loadErr := &LoadError{Document: name, Status: status, Err: err}
	if s.strictLoad {
		return status, loadErr
	}
	logging.LogError(s.logger, "document could not be loaded, starting with an empty table", loadErr,
		slog.String("document", name),
		slog.String("status", string(status)))
	return status, nil
}

func (s *Store) readDocument(ctx context.Context, name string, decode func([]byte) error) (DocumentStatus, error) {
	data, err := s.persister.Load(ctx, name)
	if errors.Is(err, ErrDocumentNotFound) {
		logging.LogOperation(s.logger, "document_missing_starting_empty", slog.String("document", name))
		return StatusMissing, nil
	}
	if err != nil {
		return StatusUnreadable, err
	}
	if err := decode(data); err != nil {
		return StatusCorrupt, err
	}
	return StatusLoaded, nil
}

var errNotObject = errors.New("document is not a JSON object")

func isJSONObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func decodeTrainTable(data []byte) (*models.TrainTable, error) {
	if !isJSONObject(data) {
		return nil, errNotObject
	}
	table := models.NewTrainTable()
	if err := json.Unmarshal(data, table); err != nil {
		return nil, err
	}
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			pair.Value = models.NewSchedule()
		}
	}
	return table, nil
}

func decodeStationTable(data []byte) (*models.StationTable, error) {
	if !isJSONObject(data) {
		return nil, errNotObject
	}
	table := models.NewStationTable()
	if err := json.Unmarshal(data, table); err != nil {
		return nil, err
	}
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			pair.Value = models.NewStationSchedule()
		}
	}
	return table, nil
}

// LoadReport returns the startup status of both documents.
func (s *Store) LoadReport() LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Counts returns the number of trains and stations.
func (s *Store) Counts() (trains, stations int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trains.Len(), s.stations.Len()
}

// Tables returns copies of both tables.
func (s *Store) Tables() (*models.TrainTable, *models.StationTable) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trains := models.NewTrainTable()
	for pair := s.trains.Oldest(); pair != nil; pair = pair.Next() {
		trains.Set(pair.Key, models.CloneSchedule(pair.Value))
	}
	stations := models.NewStationTable()
	for pair := s.stations.Oldest(); pair != nil; pair = pair.Next() {
		stations.Set(pair.Key, models.CloneStationSchedule(pair.Value))
	}
	return trains, stations
}

// Close releases the persister.
func (s *Store) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}

// persistLocked writes both tables in full. Callers hold the write lock. The
// save outlives the caller's context: a mutation already applied in memory is
// written even if the client has gone away.
func (s *Store) persistLocked(ctx context.Context) error {
	s.metrics.SetTableSizes(s.trains.Len(), s.stations.Len())

	if s.persister == nil {
		return nil
	}

	start := time.Now()
	err := s.saveLocked(context.WithoutCancel(ctx))
	s.metrics.ObserveSave(time.Since(start), err)
	if err == nil {
		return nil
	}

	var persistErr *PersistError
	if !errors.As(err, &persistErr) {
		persistErr = &PersistError{Err: err}
	}
	logging.LogError(s.logger, "failed to persist tables, in-memory state kept", persistErr,
		slog.String("document", persistErr.Document))
	return persistErr
}

func (s *Store) saveLocked(ctx context.Context) error {
	trainsBody, err := json.MarshalIndent(s.trains, "", "    ")
	if err != nil {
		return &PersistError{Document: TrainsDocument, Err: err}
	}
	stationsBody, err := json.MarshalIndent(s.stations, "", "    ")
	if err != nil {
		return &PersistError{Document: StationsDocument, Err: err}
	}

	return s.persister.Save(ctx, []Document{
		{Name: TrainsDocument, Body: trainsBody},
		{Name: StationsDocument, Body: stationsBody},
	})
}
