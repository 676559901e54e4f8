package catalog

import (
	"net/http"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// DefaultUptimeWindow is used when the request names no window.
const DefaultUptimeWindow = "24h"

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterPublicRoutes registers read-only component routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/components", h.ListComponents)
	r.Get("/components/{id}", h.GetComponent)
	r.Get("/components/{id}/uptime", h.GetUptime)
}

// RegisterRoutes registers routes that modify components.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/components", h.CreateComponent)
	r.Put("/components/{id}", h.UpdateComponent)
	r.Delete("/components/{id}", h.DeleteComponent)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrComponentNotFound, Status: http.StatusNotFound, Message: "Component not found"},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrInvalidType, Status: http.StatusBadRequest},
	{Error: ErrInvalidWindow, Status: http.StatusBadRequest},
}

// CreateComponentRequest represents the request body for creating a component.
type CreateComponentRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=operational degraded_performance partial_outage major_outage"`
	Type        string `json:"type" validate:"omitempty,oneof=active third-party"`
}

// UpdateComponentRequest represents the request body for updating a component.
// Absent fields keep their stored value.
type UpdateComponentRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=operational degraded_performance partial_outage major_outage"`
	Type        *string `json:"type" validate:"omitempty,oneof=active third-party"`
}

// ToInput converts the request to a service input.
func (r *UpdateComponentRequest) ToInput() UpdateComponentInput {
	input := UpdateComponentInput{
		Name:        r.Name,
		Description: r.Description,
	}
	if r.Status != nil {
		s := domain.ComponentStatus(*r.Status)
		input.Status = &s
	}
	if r.Type != nil {
		t := domain.ComponentType(*r.Type)
		input.Type = &t
	}
	return input
}

// ListComponents handles GET /components.
func (h *Handler) ListComponents(w http.ResponseWriter, r *http.Request) {
	filter := ComponentFilter{}
	if t := r.URL.Query().Get("type"); t != "" {
		ct := domain.ComponentType(t)
		filter.Type = &ct
	}

	components, err := h.service.ListComponents(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, components)
}

// GetComponent handles GET /components/{id}.
func (h *Handler) GetComponent(w http.ResponseWriter, r *http.Request) {
	component, err := h.service.GetComponent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, component)
}

// CreateComponent handles POST /components.
func (h *Handler) CreateComponent(w http.ResponseWriter, r *http.Request) {
	var req CreateComponentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	component, err := h.service.CreateComponent(r.Context(), CreateComponentInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.ComponentStatus(req.Status),
		Type:        domain.ComponentType(req.Type),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, component)
}

// UpdateComponent handles PUT /components/{id}.
func (h *Handler) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	var req UpdateComponentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	component, err := h.service.UpdateComponent(r.Context(), chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, component)
}

// DeleteComponent handles DELETE /components/{id}.
func (h *Handler) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteComponent(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Message(w, http.StatusOK, "Component deleted successfully")
}

// GetUptime handles GET /components/{id}/uptime?window=24h|7d|30d.
func (h *Handler) GetUptime(w http.ResponseWriter, r *http.Request) {
	window := r.URL.Query().Get("window")
	if window == "" {
		window = DefaultUptimeWindow
	}

	report, err := h.service.GetUptime(r.Context(), chi.URLParam(r, "id"), window)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}
