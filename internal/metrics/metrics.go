// Package metrics provides Prometheus metrics for the railbook application.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Store metrics
	StoreSavesTotal    *prometheus.CounterVec
	StoreSaveDuration  prometheus.Histogram
	StoreLoadsTotal    *prometheus.CounterVec
	TrainsTotal        prometheus.Gauge
	StationsTotal      prometheus.Gauge
	SearchResultsTotal prometheus.Counter

	// Database metrics (sqlite backend only)
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railbook_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	storeSavesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railbook_store_saves_total",
			Help: "Persistence attempts of the train and station documents by result",
		},
		[]string{"result"},
	)

	storeSaveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "railbook_store_save_duration_seconds",
		Help:    "Time spent writing both documents to storage",
		Buckets: prometheus.DefBuckets,
	})

	storeLoadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railbook_store_loads_total",
			Help: "Documents loaded at startup by document and status",
		},
		[]string{"document", "status"},
	)

	trainsTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railbook_trains",
		Help: "Number of trains in the train table",
	})

	stationsTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railbook_stations",
		Help: "Number of stations in the station table",
	})

	searchResultsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "railbook_search_results_total",
		Help: "Connections returned by station-to-station searches",
	})

	dbConnectionsOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railbook_db_connections_open",
		Help: "Number of open database connections",
	})

	dbConnectionsInUse := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railbook_db_connections_in_use",
		Help: "Number of database connections currently in use",
	})

	dbConnectionsIdle := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railbook_db_connections_idle",
		Help: "Number of idle database connections",
	})

	dbWaitSecondsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "railbook_db_wait_seconds_total",
		Help: "Total time blocked waiting for a database connection",
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		storeSavesTotal,
		storeSaveDuration,
		storeLoadsTotal,
		trainsTotal,
		stationsTotal,
		searchResultsTotal,
		dbConnectionsOpen,
		dbConnectionsInUse,
		dbConnectionsIdle,
		dbWaitSecondsTotal,
	)

	return &Metrics{
		Registry:            registry,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		StoreSavesTotal:     storeSavesTotal,
		StoreSaveDuration:   storeSaveDuration,
		StoreLoadsTotal:     storeLoadsTotal,
		TrainsTotal:         trainsTotal,
		StationsTotal:       stationsTotal,
		SearchResultsTotal:  searchResultsTotal,
		DBConnectionsOpen:   dbConnectionsOpen,
		DBConnectionsInUse:  dbConnectionsInUse,
		DBConnectionsIdle:   dbConnectionsIdle,
		DBWaitSecondsTotal:  dbWaitSecondsTotal,
		logger:              logger,
	}
}

// ObserveSave records one persistence attempt. Safe on a nil receiver.
func (m *Metrics) ObserveSave(duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StoreSavesTotal.WithLabelValues(result).Inc()
	m.StoreSaveDuration.Observe(duration.Seconds())
}

// ObserveLoad records the startup status of one document. Safe on a nil receiver.
func (m *Metrics) ObserveLoad(document, status string) {
	if m == nil {
		return
	}
	m.StoreLoadsTotal.WithLabelValues(document, status).Inc()
}

// SetTableSizes updates the table size gauges. Safe on a nil receiver.
func (m *Metrics) SetTableSizes(trains, stations int) {
	if m == nil {
		return
	}
	m.TrainsTotal.Set(float64(trains))
	m.StationsTotal.Set(float64(stations))
}

// ObserveSearch counts the connections returned by one search. Safe on a nil receiver.
func (m *Metrics) ObserveSearch(results int) {
	if m == nil {
		return
	}
	m.SearchResultsTotal.Add(float64(results))
}

// StartDBStatsCollector starts a goroutine that periodically collects database
// connection pool statistics and updates the corresponding metrics.
// This method is idempotent - calling it multiple times has no effect after the first call.
// Call Shutdown() to stop the collector.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}

	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	var lastWaitDuration time.Duration

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in DB stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
				m.DBConnectionsInUse.Set(float64(stats.InUse))
				m.DBConnectionsIdle.Set(float64(stats.Idle))

				waitDelta := stats.WaitDuration - lastWaitDuration
				if waitDelta > 0 {
					m.DBWaitSecondsTotal.Add(waitDelta.Seconds())
				}
				lastWaitDuration = stats.WaitDuration

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the DB stats collector goroutine and waits for it to exit.
// This method is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
