package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"railbook.dev/railbook/internal/appconf"
	"railbook.dev/railbook/internal/logging"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

var dataTypes = []string{"trains", "stations", "load_report", "documents", "config"}

type debugData struct {
	Title string
	Pre   string
	Links []string
}

func writeDebugData(w http.ResponseWriter, title string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
		Links: dataTypes,
	})
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps one in-memory structure chosen by ?dataType=. It is
// not served in production.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Application == nil || webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}

	var data any
	var title string

	switch r.URL.Query().Get("dataType") {
	case "trains":
		trains, _ := webUI.Store.Tables()
		data = trains
		title = "Train table"
	case "stations":
		_, stations := webUI.Store.Tables()
		data = stations
		title = "Station table"
	case "load_report":
		data = webUI.Store.LoadReport()
		title = "Document load status"
	case "documents":
		title = "Stored documents"
		if webUI.DB == nil {
			data = map[string]string{"backend": webUI.Config.Storage.Backend}
			break
		}
		docs, err := webUI.DB.Documents(r.Context())
		if err != nil {
			logging.LogError(webUI.Logger, "failed to list stored documents", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data = docs
	case "config":
		data = webUI.Config
		title = "Configuration"
	default:
		data = map[string][]string{"choose one of": dataTypes}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
