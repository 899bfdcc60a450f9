package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"railbook.dev/railbook/internal/app"
	"railbook.dev/railbook/internal/appconf"
	"railbook.dev/railbook/internal/clock"
	"railbook.dev/railbook/internal/metrics"
	"railbook.dev/railbook/internal/store"
)

var testStartTime = time.Date(2024, 5, 13, 8, 0, 0, 0, time.UTC)

// createTestApi returns an API over an empty store persisted to a temp dir.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	dir := t.TempDir()
	return createTestApiWithPersister(t, store.NewFilePersister(
		filepath.Join(dir, "trains.json"),
		filepath.Join(dir, "stations.json"),
	))
}

func createTestApiWithPersister(t *testing.T, p store.Persister) *RestAPI {
	t.Helper()

	m := metrics.New()
	s, err := store.Open(context.Background(), store.Options{Persister: p, Metrics: m})
	require.NoError(t, err)

	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.RateLimit = 100

	api := NewRestAPI(&app.Application{
		Config:    cfg,
		Store:     s,
		Clock:     clock.NewMockClock(testStartTime),
		Metrics:   m,
		StartedAt: testStartTime,
	})
	t.Cleanup(api.Shutdown)
	return api
}

// serveApiAndRetrieveEndpoint sends one request through the full route table
// and returns the response with its body already read.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeDetail(t *testing.T, data []byte) string {
	t.Helper()
	var errResp struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(data, &errResp), "body: %s", data)
	return errResp.Detail
}

const delhiMumbaiTrain = `{"train_id":"T1","schedule":{` +
	`"Delhi":{"arrival":"00:00","departure":"08:00","day":"Mon","days":["Mon","Wed"]},` +
	`"Mumbai":{"arrival":"20:00","departure":"20:10","day":"Mon","days":["Mon","Wed"]}}}`
