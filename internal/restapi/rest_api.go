package restapi

import (
	"time"

	"github.com/go-playground/validator/v10"
	"railbook.dev/railbook/internal/app"
)

// RestAPI serves the railbook HTTP endpoints on top of the shared Application.
type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
	validate    *validator.Validate
}

// NewRestAPI builds the API and starts the rate limiter's cleanup loop. Call
// Shutdown to stop it.
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.RateLimitExemptIPs, app.Clock),
		validate:    newValidator(),
	}
}

// Shutdown releases background resources held by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
