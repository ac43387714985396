package incidents

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/opsdeck/opsdeck/internal/actions"
	"github.com/opsdeck/opsdeck/internal/analysis"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/httputil"
)

var incidentErrorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrIncidentResolved, Status: http.StatusConflict},
	{Error: ErrVersionConflict, Status: http.StatusConflict},
	{Error: actions.ErrActionNotAllowed, Status: http.StatusBadRequest},
	{Error: analysis.ErrAnalysisFailed, Status: http.StatusBadGateway},
}

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers all HTTP routes for the incidents module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/analyze", h.Analyze)
		r.Post("/{id}/execute-action", h.ExecuteAction)
		r.Post("/{id}/health-check", h.HealthCheck)
		r.Post("/{id}/close", h.Close)
	})
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=255"`
	Description     string `json:"description" validate:"required,min=1"`
	Component       string `json:"component" validate:"required,min=1,max=255"`
	AffectedService string `json:"affected_service" validate:"max=255"`
	Severity        string `json:"severity" validate:"required,oneof=low medium high critical"`
}

// ToDomain converts the request to a domain model.
func (r *CreateIncidentRequest) ToDomain() *domain.Incident {
	return &domain.Incident{
		Title:           r.Title,
		Description:     r.Description,
		Component:       r.Component,
		AffectedService: r.AffectedService,
		Severity:        domain.IncidentSeverity(r.Severity),
	}
}

// ExecuteActionRequest represents the request body for executing an action.
type ExecuteActionRequest struct {
	ActionID string         `json:"action_id" validate:"required,min=1,max=255"`
	Params   map[string]any `json:"params"`
}

// CloseIncidentRequest represents the request body for closing an incident.
type CloseIncidentRequest struct {
	Resolution string `json:"resolution" validate:"max=4000"`
}

// Create handles POST /incidents request.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident := req.ToDomain()
	if err := h.service.Create(r.Context(), incident); err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// List handles GET /incidents request.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := Filter{}

	if component := r.URL.Query().Get("component"); component != "" {
		filter.Component = &component
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.IncidentStatus(status)
		if !s.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = &s
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}

// Get handles GET /incidents/{id} request.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Analyze handles POST /incidents/{id}/analyze request.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}

// ExecuteAction handles POST /incidents/{id}/execute-action request.
func (h *Handler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	var req ExecuteActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	result, err := h.service.ExecuteAction(r.Context(), chi.URLParam(r, "id"), req.ActionID, req.Params)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}

// HealthCheck handles POST /incidents/{id}/health-check request.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.HealthCheck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}

// Close handles POST /incidents/{id}/close request.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	// The body is optional; ContentLength is unreliable for chunked
	// requests, so decode whenever the body is non-empty.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid body")
		return
	}

	var req CloseIncidentRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			httputil.ValidationError(w, err)
			return
		}
	}

	incident, err := h.service.Close(r.Context(), chi.URLParam(r, "id"), req.Resolution)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}
