package incidents

import (
	"net/http"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

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

// RegisterPublicRoutes registers read-only incident routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/incidents", h.ListIncidents)
	r.Get("/incidents/{id}", h.GetIncident)
}

// RegisterRoutes registers routes that modify incidents.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/incidents", h.CreateIncident)
	r.Put("/incidents/{id}", h.UpdateIncident)
	r.Post("/incidents/{id}/updates", h.AddUpdate)
	r.Delete("/incidents/{id}", h.DeleteIncident)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound, Message: "Incident not found"},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrUnknownComponent, Status: http.StatusBadRequest},
	{Error: ErrStatusMismatch, Status: http.StatusBadRequest},
	{Error: ErrMessageRequired, Status: http.StatusBadRequest},
	{Error: ErrEmptyUpdates, Status: http.StatusBadRequest},
	{Error: ErrNameRequired, Status: http.StatusBadRequest},
}

// CreateIncidentRequest represents the request body for opening an incident.
type CreateIncidentRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=255"`
	ComponentIDs []string `json:"component_ids"`
	Message      string   `json:"message" validate:"required"`
}

// AddUpdateRequest represents the request body for appending an update.
type AddUpdateRequest struct {
	Status  string `json:"status" validate:"required,oneof=investigating identified monitoring resolved"`
	Message string `json:"message" validate:"required"`
}

// UpdateIncidentRequest represents the request body for PUT /incidents/{id}.
type UpdateIncidentRequest struct {
	Name         *string                  `json:"name" validate:"omitempty,min=1,max=255"`
	ComponentIDs *[]string                `json:"component_ids"`
	Status       *string                  `json:"status" validate:"omitempty,oneof=investigating identified monitoring resolved"`
	Message      *string                  `json:"message"`
	Updates      *[]domain.IncidentUpdate `json:"updates"`
}

// ToInput converts the request to a service input.
func (r *UpdateIncidentRequest) ToInput() UpdateIncidentInput {
	input := UpdateIncidentInput{
		Name:         r.Name,
		ComponentIDs: r.ComponentIDs,
		Message:      r.Message,
		Updates:      r.Updates,
	}
	if r.Status != nil {
		s := domain.IncidentStatus(*r.Status)
		input.Status = &s
	}
	return input
}

// ListIncidents handles GET /incidents.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.service.ListIncidents(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, incidents)
}

// GetIncident handles GET /incidents/{id}.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.GetIncident(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

// CreateIncident handles POST /incidents.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.CreateIncident(r.Context(), CreateIncidentInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, incident)
}

// AddUpdate handles POST /incidents/{id}/updates.
func (h *Handler) AddUpdate(w http.ResponseWriter, r *http.Request) {
	var req AddUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.AddUpdate(r.Context(), chi.URLParam(r, "id"), AddUpdateInput{
		Status:  domain.IncidentStatus(req.Status),
		Message: req.Message,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, incident)
}

// UpdateIncident handles PUT /incidents/{id}.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	var req UpdateIncidentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.UpdateIncident(r.Context(), chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

// DeleteIncident handles DELETE /incidents/{id}.
func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteIncident(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Message(w, http.StatusOK, "Incident deleted successfully")
}
