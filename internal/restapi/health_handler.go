package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/store"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status        string            `json:"status"`
	Detail        string            `json:"detail,omitempty"`
	Documents     *store.LoadReport `json:"documents,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds,omitempty"`
}

// healthHandler reports whether the store is serving. A document that failed
// to load at startup leaves the service up but degraded.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	setJSONResponseType(w)

	if api.Application == nil || api.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "unavailable",
			Detail: "store not initialized",
		})
		return
	}

	if api.DB != nil {
		if err := api.DB.DB.PingContext(r.Context()); err != nil {
			logging.LogError(api.Logger, "station DB ping failed", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(HealthResponse{
				Status: "unavailable",
				Detail: "database connection failed",
			})
			return
		}
	}

	report := api.Store.LoadReport()
	resp := HealthResponse{
		Status:        "ok",
		Documents:     &report,
		UptimeSeconds: int64(api.Uptime() / time.Second),
	}
	if report.Degraded() {
		resp.Status = "degraded"
		resp.Detail = fmt.Sprintf("trains document %s, stations document %s", report.Trains, report.Stations)
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
