package restapi

import (
	"errors"
	"net/http"

	"railbook.dev/railbook/internal/store"
)

// searchHandler lists the trains that run from one station to another.
// Both query parameters are required but may be empty.
func (api *RestAPI) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("from") || !query.Has("to") {
		api.sendUnprocessable(w, r, "query parameters 'from' and 'to' are required")
		return
	}

	connections, err := api.Store.Search(query.Get("from"), query.Get("to"))
	if errors.Is(err, store.ErrNotFound) {
		api.sendNotFound(w, r, "One or both stations not found.")
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusOK, connections)
}
