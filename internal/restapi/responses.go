package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/models"
)

const maxBodyBytes = 1 << 20

func setJSONResponseType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

func (api *RestAPI) sendJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	setJSONResponseType(w)
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	setJSONResponseType(w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(models.NewErrorResponse(detail)); err != nil {
		logging.LogError(api.requestLogger(r), "failed to encode error response", err)
	}
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request, detail string) {
	api.sendError(w, r, http.StatusNotFound, detail)
}

func (api *RestAPI) sendUnprocessable(w http.ResponseWriter, r *http.Request, detail string) {
	api.sendError(w, r, http.StatusUnprocessableEntity, detail)
}

// serverErrorResponse logs err and answers with a generic 500.
func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.requestLogger(r), "internal server error", err,
		logMethodAndPath(r)...)
	api.sendError(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

// persistErrorResponse reports a write that was applied in memory but not saved.
func (api *RestAPI) persistErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.sendError(w, r, http.StatusInternalServerError, fmt.Sprintf("change applied but not saved: %v", err))
}

// decodeJSONBody reads a single JSON value from the request body into dst.
func decodeJSONBody(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body must not be larger than %d bytes", maxBytesErr.Limit)
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}
