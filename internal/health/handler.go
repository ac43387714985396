package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opsdeck/opsdeck/internal/pkg/httputil"
)

// Handler handles HTTP requests for the health module.
type Handler struct {
	service *Service
}

// NewHandler creates a new health handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the health routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/components/health", h.ComponentsHealth)
}

// ComponentsHealth handles GET /components/health request.
func (h *Handler) ComponentsHealth(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ComponentsHealth(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}
