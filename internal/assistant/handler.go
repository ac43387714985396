package assistant

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/opsdeck/opsdeck/internal/pkg/httputil"
)

var assistantErrorMappings = []httputil.ErrorMapping{
	{Error: ErrQueryFailed, Status: http.StatusBadGateway},
}

// Handler handles HTTP requests for the assistant module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new assistant handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers the assistant routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/query", h.Query)
	r.Post("/documents", h.IngestDocument)
}

// QueryRequest represents the request body for a chat query.
type QueryRequest struct {
	Query             string `json:"query" validate:"required,min=1,max=4000"`
	AdditionalContext string `json:"additional_context" validate:"max=4000"`
	ForceRefresh      bool   `json:"force_refresh"`
}

// IngestDocumentRequest represents the request body for adding a
// knowledge-base document.
type IngestDocumentRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=255"`
	Source    string `json:"source" validate:"max=255"`
	Component string `json:"component" validate:"max=255"`
	Content   string `json:"content" validate:"required,min=1"`
}

// Query handles POST /query request.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	result, err := h.service.Query(r.Context(), req.Query, req.AdditionalContext, req.ForceRefresh)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, assistantErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}

// IngestDocument handles POST /documents request.
func (h *Handler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	source := req.Source
	if source == "" {
		source = req.Title
	}

	doc, chunks, err := h.service.IngestDocument(r.Context(), req.Title, source, req.Component, req.Content)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, assistantErrorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, map[string]interface{}{
		"id":     doc.ID,
		"title":  doc.Title,
		"chunks": chunks,
	})
}
