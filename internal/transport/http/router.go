package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "warrantysync/internal/errors"
)

// NewRouter builds the status router
func NewRouter(status StatusProvider, metrics http.Handler, logger *slog.Logger) http.Handler {
	errHandler := apperrors.NewErrorHandler(logger, false)
	health := NewHealthHandler(status, errHandler, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apperrors.RecoveryMiddleware(errHandler))

	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)

	r.Get("/healthz", health.HealthCheck)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	return r
}
