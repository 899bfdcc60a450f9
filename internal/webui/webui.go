// Package webui serves the HTML debug pages that sit beside the JSON API.
package webui

import (
	"net/http"

	"railbook.dev/railbook/internal/app"
)

type WebUI struct {
	*app.Application
}

// SetWebUIRoutes registers the debug pages on mux.
func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/{$}", webUI.debugIndexHandler)
}
