package restapi

import "net/http"

const greeting = "Hello world, hey there!"

func (api *RestAPI) greetingHandler(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, r, http.StatusOK, greeting)
}
