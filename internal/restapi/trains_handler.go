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

func (api *RestAPI) listTrainsHandler(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, r, http.StatusOK, api.Store.ListTrains())
}

func (api *RestAPI) trainHandler(w http.ResponseWriter, r *http.Request) {
	trainID := r.PathValue("train_id")

	schedule, err := api.Store.GetTrain(trainID)
	if errors.Is(err, store.ErrNotFound) {
		api.sendNotFound(w, r, fmt.Sprintf("Train with %s not found.", trainID))
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusOK, schedule)
}

func (api *RestAPI) addTrainHandler(w http.ResponseWriter, r *http.Request) {
	var req models.NewTrainRequest
	if err := decodeJSONBody(r, w, &req); err != nil {
		api.sendUnprocessable(w, r, err.Error())
		return
	}
	if err := api.validateTrain(req); err != nil {
		api.sendUnprocessable(w, r, err.Error())
		return
	}

	train := req.Train()
	err := api.Store.AddTrain(r.Context(), train)
	var persistErr *store.PersistError
	switch {
	case errors.Is(err, store.ErrConflict):
		api.sendError(w, r, http.StatusConflict, fmt.Sprintf("A train with similar Id %s already exists", train.TrainID))
		return
	case errors.As(err, &persistErr):
		logging.LogError(api.requestLogger(r), "train added but not persisted", err,
			slog.String("train_id", train.TrainID))
		api.persistErrorResponse(w, r, err)
		return
	case err != nil:
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusCreated, models.MessageResponse{
		Message: "Train added successfully",
		TrainID: &train.TrainID,
	})
}

// validateTrain checks the request envelope and then every stop in the schedule.
// Fields must be present; empty strings are allowed.
func (api *RestAPI) validateTrain(req models.NewTrainRequest) error {
	if err := api.validate.Struct(req); err != nil {
		return validationError(err)
	}
	for pair := req.Schedule.Oldest(); pair != nil; pair = pair.Next() {
		if err := api.validate.Struct(pair.Value); err != nil {
			return fmt.Errorf("schedule.%s: %w", pair.Key, validationError(err))
		}
	}
	return nil
}
