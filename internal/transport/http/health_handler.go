package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "warrantysync/internal/errors"
	"warrantysync/internal/pipeline"
	"warrantysync/internal/portal"
)

// StatusProvider reports the supervisor's current state
type StatusProvider interface {
	Status() pipeline.Status
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	status StatusProvider
	errors *apperrors.ErrorHandler
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(status StatusProvider, errors *apperrors.ErrorHandler, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		status: status,
		errors: errors,
		logger: logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /healthz
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	st := h.status.Status()
	if st.SessionState == portal.Failed.String() {
		h.logger.WarnContext(r.Context(), "Health check reports failed session",
			slog.Int("attempt", st.Attempt))
		h.errors.HandleError(w, r, apperrors.ErrRunFailed(st.SessionState))
		return
	}
	render.JSON(w, r, st)
}
