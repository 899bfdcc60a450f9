package app

import (
	"log/slog"
	"time"

	"railbook.dev/railbook/internal/appconf"
	"railbook.dev/railbook/internal/clock"
	"railbook.dev/railbook/internal/metrics"
	"railbook.dev/railbook/internal/store"
	"railbook.dev/railbook/stationdb"
)

// Application holds the dependencies shared by the HTTP handlers and
// middleware.
type Application struct {
	Config  appconf.Config
	Logger  *slog.Logger
	Store   *store.Store
	Clock   clock.Clock
	Metrics *metrics.Metrics
	// DB is set only when the sqlite backend is configured.
	DB        *stationdb.Client
	StartedAt time.Time
}

// Uptime reports how long the application has been running.
func (app *Application) Uptime() time.Duration {
	if app.StartedAt.IsZero() {
		return 0
	}
	return app.Clock.Since(app.StartedAt)
}
