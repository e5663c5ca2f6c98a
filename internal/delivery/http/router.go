package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Reads are open or optionally authenticated; mutations require a credential.
func NewRouter(eventController *controllers.EventController, authController *controllers.AuthController, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	requireAuth := middleware.RequireAuth(verifier, logger)
	optionalAuth := middleware.OptionalAuth(verifier, logger)

	mux := http.NewServeMux()

	// Events
	mux.HandleFunc("GET /events", optionalAuth(eventController.List))
	mux.HandleFunc("GET /events/search", optionalAuth(eventController.Search))
	mux.HandleFunc("GET /events/filtered", requireAuth(eventController.ListMine))
	mux.HandleFunc("GET /events/{eventID}", optionalAuth(eventController.GetByID))
	mux.HandleFunc("POST /events", requireAuth(eventController.Create))
	mux.HandleFunc("PATCH /events/{eventID}", requireAuth(eventController.Update))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(eventController.Delete))

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
