package restapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/models"
	"railbook.dev/railbook/internal/store"
)

func (api *RestAPI) listStationsHandler(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, r, http.StatusOK, api.Store.ListStations())
}

func (api *RestAPI) stationHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("station_name")

	station, err := api.Store.GetStation(name)
	if errors.Is(err, store.ErrNotFound) {
		api.sendNotFound(w, r, "station not found")
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusOK, map[string]*models.StationSchedule{name: station})
}

func (api *RestAPI) addToStationHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("station_name")

	var req models.AddToStationRequest
	if err := decodeJSONBody(r, w, &req); err != nil {
		api.sendUnprocessable(w, r, err.Error())
		return
	}
	if err := api.validate.Struct(req); err != nil {
		api.sendUnprocessable(w, r, validationError(err).Error())
		return
	}

	trainID := *req.TrainID
	err := api.Store.UpsertStationStop(r.Context(), name, trainID, req.StationStop())
	var persistErr *store.PersistError
	switch {
	case errors.As(err, &persistErr):
		logging.LogError(api.requestLogger(r), "station stop recorded but not persisted", err,
			slog.String("station", name),
			slog.String("train_id", trainID))
		api.persistErrorResponse(w, r, err)
		return
	case err != nil:
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusCreated, models.MessageResponse{
		Message: fmt.Sprintf("Train %s added to station %s schedule.", trainID, name),
	})
}
