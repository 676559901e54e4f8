package notifications

import (
	"net/http"

	"github.com/bissquit/statusboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrSubscriberNotFound, Status: http.StatusNotFound, Message: "Subscriber not found"},
	{Error: ErrSubscriberExists, Status: http.StatusConflict, Message: "Subscriber already exists"},
}

// Handler handles HTTP requests for the notifications module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new notifications handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers subscriber routes (require auth).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/subscribers", h.ListSubscribers)
	r.Post("/subscribers", h.CreateSubscriber)
	r.Delete("/subscribers/{id}", h.DeleteSubscriber)
}

// CreateSubscriberRequest represents the request body for adding a subscriber.
type CreateSubscriberRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// ListSubscribers handles GET /subscribers.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.service.ListSubscribers(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, subscribers)
}

// CreateSubscriber handles POST /subscribers.
func (h *Handler) CreateSubscriber(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriberRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	subscriber, err := h.service.CreateSubscriber(r.Context(), req.Email)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusCreated, subscriber)
}

// DeleteSubscriber handles DELETE /subscribers/{id}.
func (h *Handler) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSubscriber(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Message(w, http.StatusOK, "Subscriber deleted successfully")
}
