package stationdb

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railbook.dev/railbook/internal/appconf"
	"railbook.dev/railbook/internal/models"
	"railbook.dev/railbook/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(NewConfig(":memory:", appconf.Test, false), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClientRejectsFileInTestEnv(t *testing.T) {
	_, err := NewClient(NewConfig("railbook.db", appconf.Test, false), nil)
	assert.Error(t, err)
}

func TestNewClientLogsThroughGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	client, err := NewClient(NewConfig(":memory:", appconf.Test, true), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Contains(t, buf.String(), `"operation":"sqlite_settings_applied"`)
	assert.Contains(t, buf.String(), `"component":"stationdb"`)
}

func TestLoadMissingDocument(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Load(context.Background(), store.TrainsDocument)
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
}

func TestSaveAndLoad(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Save(ctx, []store.Document{
		{Name: store.TrainsDocument, Body: []byte(`{"T1": {}}`)},
		{Name: store.StationsDocument, Body: []byte(`{}`)},
	}))

	body, err := client.Load(ctx, store.TrainsDocument)
	require.NoError(t, err)
	assert.JSONEq(t, `{"T1": {}}`, string(body))

	require.NoError(t, client.Save(ctx, []store.Document{
		{Name: store.TrainsDocument, Body: []byte(`{}`)},
	}))

	body, err = client.Load(ctx, store.TrainsDocument)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(body), "a second save replaces the document")

	docs, err := client.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, store.StationsDocument, docs[0].Name)
	assert.Equal(t, 2, docs[0].Size)
	assert.Equal(t, store.TrainsDocument, docs[1].Name)
	assert.Equal(t, 2, docs[1].Size)
}

func TestDocumentsRecordSaveTime(t *testing.T) {
	client := newTestClient(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return fixed }

	require.NoError(t, client.Save(context.Background(), []store.Document{
		{Name: store.StationsDocument, Body: []byte(`{}`)},
	}))

	docs, err := client.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1, "only saved documents are listed")
	assert.Equal(t, store.StationsDocument, docs[0].Name)
	assert.True(t, fixed.Equal(docs[0].UpdatedAt))
}

func TestSaveWithCancelledContext(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Save(ctx, []store.Document{{Name: store.TrainsDocument, Body: []byte(`{}`)}})

	var persistErr *store.PersistError
	require.ErrorAs(t, err, &persistErr)

	_, err = client.Load(context.Background(), store.TrainsDocument)
	assert.ErrorIs(t, err, store.ErrDocumentNotFound, "nothing is written when the transaction fails")
}

func TestStoreSavesAfterCallerCancellation(t *testing.T) {
	client := newTestClient(t)

	s, err := store.Open(context.Background(), store.Options{Persister: client})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.UpsertStationStop(ctx, "Pune", "T9", models.StationStop{Days: []string{"Sun"}}))

	body, err := client.Load(context.Background(), store.StationsDocument)
	require.NoError(t, err)
	assert.Contains(t, string(body), "T9")
}

func TestStoreBackedBySQLite(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	s, err := store.Open(ctx, store.Options{Persister: client})
	require.NoError(t, err)

	schedule := models.NewSchedule()
	schedule.Set("Delhi", models.Stop{Arrival: "00:00", Departure: "08:00", Day: "Mon", Days: []string{"Mon"}})
	schedule.Set("Mumbai", models.Stop{Arrival: "20:00", Departure: "20:10", Day: "Mon", Days: []string{"Mon"}})
	require.NoError(t, s.AddTrain(ctx, models.Train{TrainID: "T1", Schedule: schedule}))

	reopened, err := store.Open(ctx, store.Options{Persister: client})
	require.NoError(t, err)
	assert.Equal(t, store.LoadReport{Trains: store.StatusLoaded, Stations: store.StatusLoaded}, reopened.LoadReport())
	assert.Equal(t, []string{"Delhi", "Mumbai"}, reopened.ListStations())

	summary, ok := reopened.ListTrains().Get("T1")
	require.True(t, ok)
	assert.Equal(t, "Delhi to Mumbai", summary)
}
