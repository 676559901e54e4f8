package identity

import (
	"net/http"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
	"github.com/bissquit/statusboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// CookieSettings contains settings for the session cookie.
type CookieSettings struct {
	Secure   bool
	Domain   string
	Lifetime time.Duration
}

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service        *Service
	validator      *validator.Validate
	cookieSettings CookieSettings
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service, cookieSettings CookieSettings) *Handler {
	return &Handler{
		service:        service,
		validator:      validator.New(),
		cookieSettings: cookieSettings,
	}
}

// RegisterRoutes registers identity routes. /auth/user resolves the token
// itself so it can tell a bad token from a deleted user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/user", h.User)
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrEmailExists, Status: http.StatusBadRequest, Message: "User already exists"},
	{Error: ErrPasswordTooLong, Status: http.StatusBadRequest},
	{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid credentials"},
	{Error: ErrInvalidToken, Status: http.StatusUnauthorized, Message: "Not authenticated"},
	{Error: ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
}

// RegisterRequest represents registration request body.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UserResponse wraps a user with an optional message.
type UserResponse struct {
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, UserResponse{
		Message: "User created successfully",
		User:    user,
	})
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	h.setSessionCookie(w, token.Value, int(h.cookieSettings.Lifetime.Seconds()))

	httputil.JSON(w, http.StatusOK, UserResponse{
		Message: "Login successful",
		User:    user,
	})
}

// Logout handles POST /auth/logout. It always succeeds; a valid presented
// token is revoked so copies of it stop working.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), httputil.TokenFromRequest(r)); err != nil {
		ctxlog.FromContext(r.Context()).Warn("token revocation failed", "error", err)
	}

	h.setSessionCookie(w, "", -1)

	httputil.Message(w, http.StatusOK, "Logged out successfully")
}

// User handles GET /auth/user.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), httputil.TokenFromRequest(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, UserResponse{User: user})
}

// setSessionCookie writes the session cookie. maxAge < 0 deletes it.
func (h *Handler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     httputil.SessionCookie,
		Value:    value,
		Path:     "/",
		Domain:   h.cookieSettings.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSettings.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge < 0 {
		cookie.Expires = time.Unix(0, 0)
	}
	http.SetCookie(w, cookie)
}
