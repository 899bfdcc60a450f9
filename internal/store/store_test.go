package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railbook.dev/railbook/internal/metrics"
	"railbook.dev/railbook/internal/models"
)

func newSchedule(t *testing.T, stops ...string) *models.Schedule {
	t.Helper()
	schedule := models.NewSchedule()
	for i, station := range stops {
		schedule.Set(station, models.Stop{
			Arrival:   "0" + string(rune('0'+i)) + ":00",
			Departure: "0" + string(rune('0'+i)) + ":10",
			Day:       "Mon",
			Days:      []string{"Mon", "Wed"},
		})
	}
	return schedule
}

func filePaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "trains.json"), filepath.Join(dir, "stations.json")
}

func openFileStore(t *testing.T, trainsPath, stationsPath string) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Persister: NewFilePersister(trainsPath, stationsPath)})
	require.NoError(t, err)
	return s
}

// memoryPersister keeps documents in a map and can be told to fail saves.
type memoryPersister struct {
	mu      sync.Mutex
	docs    map[string][]byte
	saveErr error
	loadErr error
	saves   int
}

func newMemoryPersister() *memoryPersister {
	return &memoryPersister{docs: map[string][]byte{}}
}

func (p *memoryPersister) Load(_ context.Context, name string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	data, ok := p.docs[name]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return data, nil
}

func (p *memoryPersister) Save(_ context.Context, docs []Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return &PersistError{Document: docs[0].Name, Err: p.saveErr}
	}
	for _, doc := range docs {
		p.docs[doc.Name] = doc.Body
	}
	return nil
}

func (p *memoryPersister) Close() error { return nil }

func TestOpenWithMissingFilesStartsEmpty(t *testing.T) {
	trainsPath, stationsPath := filePaths(t)
	s := openFileStore(t, trainsPath, stationsPath)

	trains, stations := s.Counts()
	assert.Zero(t, trains)
	assert.Zero(t, stations)
	assert.Equal(t, LoadReport{Trains: StatusMissing, Stations: StatusMissing}, s.LoadReport())
	assert.False(t, s.LoadReport().Degraded())
}

func TestOpenWithCorruptFileDegradesToEmpty(t *testing.T) {
	trainsPath, stationsPath := filePaths(t)
	require.NoError(t, os.WriteFile(trainsPath, []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(stationsPath, []byte(`["a list"]`), 0o644))

	m := metrics.New()
	s, err := Open(context.Background(), Options{
		Persister: NewFilePersister(trainsPath, stationsPath),
		Metrics:   m,
	})
	require.NoError(t, err)

	trains, stations := s.Counts()
	assert.Zero(t, trains)
	assert.Zero(t, stations)
	assert.Equal(t, LoadReport{Trains: StatusCorrupt, Stations: StatusCorrupt}, s.LoadReport())
	assert.True(t, s.LoadReport().Degraded())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreLoadsTotal.WithLabelValues(TrainsDocument, string(StatusCorrupt))))
}

func TestOpenStrictFailsOnCorruptFile(t *testing.T) {
	trainsPath, stationsPath := filePaths(t)
	require.NoError(t, os.WriteFile(trainsPath, []byte(""), 0o644))

	_, err := Open(context.Background(), Options{
		Persister:  NewFilePersister(trainsPath, stationsPath),
		StrictLoad: true,
	})

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, TrainsDocument, loadErr.Document)
	assert.Equal(t, StatusCorrupt, loadErr.Status)
}

func TestOpenUnreadableDocument(t *testing.T) {
	p := newMemoryPersister()
	p.loadErr = errors.New("permission denied")

	s, err := Open(context.Background(), Options{Persister: p})
	require.NoError(t, err)
	assert.Equal(t, StatusUnreadable, s.LoadReport().Trains)

	_, err = Open(context.Background(), Options{Persister: p, StrictLoad: true})
	assert.Error(t, err)
}

func TestOpenNormalizesNullSchedules(t *testing.T) {
	p := newMemoryPersister()
	p.docs[TrainsDocument] = []byte(`{"T1": null, "T2": {"A": {"arrival": "1", "departure": "2", "day": "Mon", "days": []}}}`)
	p.docs[StationsDocument] = []byte(`{"A": null}`)

	s, err := Open(context.Background(), Options{Persister: p})
	require.NoError(t, err)

	schedule, err := s.GetTrain("T1")
	require.NoError(t, err)
	assert.Equal(t, 0, schedule.Len())

	station, err := s.GetStation("A")
	require.NoError(t, err)
	assert.Equal(t, 0, station.Len())

	assert.Equal(t, 1, s.ListTrains().Len(), "empty schedules are not summarized")
}

func TestPersistedStateSurvivesReopen(t *testing.T) {
	trainsPath, stationsPath := filePaths(t)
	s := openFileStore(t, trainsPath, stationsPath)

	require.NoError(t, s.AddTrain(context.Background(), models.Train{
		TrainID:  "T1",
		Schedule: newSchedule(t, "Delhi", "Kota", "Mumbai"),
	}))
	require.NoError(t, s.UpsertStationStop(context.Background(), "Pune", "T9", models.StationStop{
		Arrival: "10:00", Departure: "10:05", Days: []string{"Sun"},
	}))

	reopened := openFileStore(t, trainsPath, stationsPath)
	assert.Equal(t, LoadReport{Trains: StatusLoaded, Stations: StatusLoaded}, reopened.LoadReport())

	schedule, err := reopened.GetTrain("T1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi", "Kota", "Mumbai"}, models.StationNames(schedule))
	assert.Equal(t, []string{"Delhi", "Kota", "Mumbai", "Pune"}, reopened.ListStations())
}

func TestSavedDocumentsLayout(t *testing.T) {
	trainsPath, stationsPath := filePaths(t)
	s := openFileStore(t, trainsPath, stationsPath)

	require.NoError(t, s.AddTrain(context.Background(), models.Train{
		TrainID:  "T1",
		Schedule: newSchedule(t, "Delhi", "Mumbai"),
	}))

	trainsData, err := os.ReadFile(trainsPath)
	require.NoError(t, err)
	assert.Contains(t, string(trainsData), "\n    \"T1\": {", "documents are indented with four spaces")

	var trainsDoc map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(trainsData, &trainsDoc))
	assert.Equal(t, "Mon", trainsDoc["T1"]["Delhi"]["day"])

	stationsData, err := os.ReadFile(stationsPath)
	require.NoError(t, err)

	var stationsDoc map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(stationsData, &stationsDoc))
	assert.NotContains(t, stationsDoc["Delhi"]["T1"], "day")
	assert.Equal(t, "00:10", stationsDoc["Delhi"]["T1"]["departure"])
}

func TestPersistFailureIsReportedAndStateKept(t *testing.T) {
	p := newMemoryPersister()
	m := metrics.New()
	s, err := Open(context.Background(), Options{Persister: p, Metrics: m})
	require.NoError(t, err)

	p.saveErr = errors.New("disk full")
	err = s.AddTrain(context.Background(), models.Train{TrainID: "T1", Schedule: newSchedule(t, "A", "B")})

	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, TrainsDocument, persistErr.Document)
	assert.ErrorContains(t, err, "disk full")

	_, getErr := s.GetTrain("T1")
	assert.NoError(t, getErr, "in-memory mutation is not rolled back")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreSavesTotal.WithLabelValues("error")))
}

func TestSaveIgnoresCallerCancellation(t *testing.T) {
	trainsPath, stationsPath := filePaths(t)
	s := openFileStore(t, trainsPath, stationsPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.AddTrain(ctx, models.Train{TrainID: "T1", Schedule: newSchedule(t, "A", "B")}))
	require.NoError(t, s.UpsertStationStop(ctx, "Pune", "T1", models.StationStop{Days: []string{"Sun"}}))

	assert.FileExists(t, trainsPath)
	assert.FileExists(t, stationsPath)

	reopened := openFileStore(t, trainsPath, stationsPath)
	_, err := reopened.GetTrain("T1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "Pune"}, reopened.ListStations())
}

func TestFilePersisterWriteFailure(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePersister(filepath.Join(dir, "missing-dir", "trains.json"), filepath.Join(dir, "stations.json"))

	err := p.Save(context.Background(), []Document{{Name: TrainsDocument, Body: []byte("{}")}})

	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, TrainsDocument, persistErr.Document)
}

func TestFilePersisterUnknownDocument(t *testing.T) {
	trainsPath, stationsPath := filePaths(t)
	p := NewFilePersister(trainsPath, stationsPath)

	_, err := p.Load(context.Background(), "routes")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDocumentNotFound)
}

func TestStoreWithoutPersister(t *testing.T) {
	s := New(Options{})
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.AddTrain(context.Background(), models.Train{TrainID: "T1", Schedule: newSchedule(t, "A")}))
	assert.NoError(t, s.Close())
}
