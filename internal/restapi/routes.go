package restapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	greetingCacheSeconds = 300
	noCache              = 0
)

// SetRoutes registers every endpoint on mux. Data endpoints are rate limited
// and never cached. The operational endpoints are neither.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	limited := api.rateLimiter.Handler()
	route := func(cacheSeconds int, h http.HandlerFunc) http.Handler {
		return limited(CacheControlMiddleware(cacheSeconds, h))
	}

	mux.Handle("GET /{$}", route(greetingCacheSeconds, api.greetingHandler))

	mux.Handle("GET /trains", route(noCache, api.listTrainsHandler))
	mux.Handle("POST /trains", route(noCache, api.addTrainHandler))
	mux.Handle("GET /trains/{train_id}", route(noCache, api.trainHandler))

	mux.Handle("GET /stations", route(noCache, api.listStationsHandler))
	mux.Handle("GET /stations/{station_name}", route(noCache, api.stationHandler))
	mux.Handle("POST /stations/{station_name}", route(noCache, api.addToStationHandler))

	mux.Handle("GET /search", route(noCache, api.searchHandler))

	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}
