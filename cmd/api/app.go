package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"railbook.dev/railbook/internal/app"
	"railbook.dev/railbook/internal/appconf"
	"railbook.dev/railbook/internal/clock"
	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/metrics"
	"railbook.dev/railbook/internal/restapi"
	"railbook.dev/railbook/internal/store"
	"railbook.dev/railbook/internal/webui"
	"railbook.dev/railbook/stationdb"
)

const (
	dbStatsInterval = 15 * time.Second
	shutdownTimeout = 30 * time.Second
)

// BuildApplication wires the logger, metrics, persister and store described
// by cfg and loads the persisted tables.
func BuildApplication(cfg appconf.Config) (*app.Application, error) {
	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	m := metrics.NewWithLogger(logger)

	coreApp := &app.Application{
		Config:  cfg,
		Logger:  logger,
		Clock:   clock.RealClock{},
		Metrics: m,
	}

	var persister store.Persister
	switch cfg.Storage.Backend {
	case appconf.BackendSQLite:
		client, err := stationdb.NewClient(stationdb.NewConfig(cfg.Storage.SQLitePath, cfg.Env, cfg.Verbose), logger)
		if err != nil {
			m.Shutdown()
			return nil, fmt.Errorf("failed to open station database: %w", err)
		}
		logging.LogOperation(logger, "station_database_opened",
			slog.String("path", client.GetDBPath()))
		m.StartDBStatsCollector(client.DB, dbStatsInterval)
		coreApp.DB = client
		persister = client
	default:
		persister = store.NewFilePersister(cfg.Storage.TrainsFile, cfg.Storage.StationsFile)
	}

	s, err := store.Open(context.Background(), store.Options{
		Persister:  persister,
		Logger:     logger,
		Metrics:    m,
		StrictLoad: cfg.Storage.StrictLoad,
	})
	if err != nil {
		m.Shutdown()
		logging.SafeCloseWithLogging(persister, logger, "persister")
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	coreApp.Store = s
	coreApp.StartedAt = coreApp.Clock.Now()
	return coreApp, nil
}

// CreateServer builds the HTTP server and the API behind it. The caller must
// call api.Shutdown when done.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	webUI := &webui.WebUI{Application: coreApp}
	webUI.SetWebUIRoutes(mux)

	var handler http.Handler = mux
	handler = restapi.MetricsHandler(coreApp.Metrics)(handler)
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger)(handler)
	handler = restapi.RequestIDMiddleware(handler)
	if len(cfg.AllowedOrigins) > 0 {
		handler = cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		})(handler)
	}
	handler = gzhttp.GzipHandler(handler)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}

	return srv, api
}

// Run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests and releases the application's resources.
func Run(ctx context.Context, srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	logger := coreApp.Logger

	serveErr := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "server_starting", slog.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logging.LogOperation(logger, "server_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	api.Shutdown()
	closeApplication(coreApp)

	if runErr == nil {
		logging.LogOperation(logger, "server_stopped")
	}
	return runErr
}

// closeApplication stops background collectors and closes the persister.
func closeApplication(coreApp *app.Application) {
	coreApp.Metrics.Shutdown()
	logging.SafeCloseWithLogging(coreApp.Store, coreApp.Logger, "store")
}
