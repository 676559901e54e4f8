// Package web serves the server-rendered HTML pages.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"time"

	"github.com/bissquit/statusboard/internal/catalog"
	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
	"github.com/bissquit/statusboard/internal/pkg/httputil"
	"github.com/bissquit/statusboard/internal/statuspage"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templatesFS embed.FS

var incidentStatuses = []domain.IncidentStatus{
	domain.IncidentStatusInvestigating,
	domain.IncidentStatusIdentified,
	domain.IncidentStatusMonitoring,
	domain.IncidentStatusResolved,
}

var pageNames = []string{
	"status", "login", "register", "dashboard",
	"components", "incidents", "subscribers", "error",
}

// ComponentLister lists components.
type ComponentLister interface {
	ListComponents(ctx context.Context, filter catalog.ComponentFilter) ([]domain.Component, error)
}

// IncidentLister lists incidents newest first.
type IncidentLister interface {
	ListIncidents(ctx context.Context) ([]domain.Incident, error)
}

// SubscriberLister lists subscribers.
type SubscriberLister interface {
	ListSubscribers(ctx context.Context) ([]domain.Subscriber, error)
}

// SnapshotSource builds the public status snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*statuspage.Snapshot, error)
}

// Deps are the read-side services the pages render.
type Deps struct {
	Sessions    httputil.SessionResolver
	Status      SnapshotSource
	Components  ComponentLister
	Incidents   IncidentLister
	Subscribers SubscriberLister
}

// Handler renders HTML pages.
type Handler struct {
	deps  Deps
	pages map[string]*template.Template
}

type page struct {
	Title string
	User  *domain.User
	Data  any
}

// NewHandler parses the embedded templates.
func NewHandler(deps Deps) (*Handler, error) {
	funcs := template.FuncMap{
		"componentStatus":   func(s domain.ComponentStatus) domain.Display { return s.Display() },
		"incidentStatus":    func(s domain.IncidentStatus) domain.Display { return s.Display() },
		"componentType":     func(t domain.ComponentType) domain.Display { return t.Display() },
		"formatTime":        func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04 UTC") },
		"formatDate":        func(t time.Time) string { return t.UTC().Format("Jan 2, 2006") },
		"componentStatuses": func() []domain.ComponentStatus { return domain.ComponentStatuses },
		"incidentStatuses":  func() []domain.IncidentStatus { return incidentStatuses },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			fmt.Sprintf("templates/%s.html", name),
		)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Handler{deps: deps, pages: pages}, nil
}

// RegisterRoutes registers page routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/status", http.StatusFound)
	})
	r.Get("/status", h.Status)
	r.Get("/login", h.Login)
	r.Get("/register", h.Register)

	r.Get("/dashboard", h.requireSession(h.Dashboard))
	r.Get("/components", h.requireSession(h.Components))
	r.Get("/incidents", h.requireSession(h.Incidents))
	r.Get("/subscribers", h.requireSession(h.Subscribers))
}

type authenticatedHandler func(w http.ResponseWriter, r *http.Request, user *domain.User)

// requireSession resolves the session once and gates the page on it.
func (h *Handler) requireSession(next authenticatedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := h.deps.Sessions.ResolveSession(r.Context(), httputil.TokenFromRequest(r))

		switch session.State {
		case domain.SessionAuthenticated:
			next(w, r, session.User)
		case domain.SessionError:
			h.fail(w, r, session.Err)
		default:
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		}
	}
}

// optionalUser returns the signed-in user for public pages, if any.
func (h *Handler) optionalUser(r *http.Request) *domain.User {
	token := httputil.TokenFromRequest(r)
	if token == "" {
		return nil
	}
	session := h.deps.Sessions.ResolveSession(r.Context(), token)
	if session.State == domain.SessionError {
		ctxlog.FromContext(r.Context()).Warn("session resolution failed on public page", "error", session.Err)
	}
	return session.User
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.deps.Status.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "status", page{Title: "System Status", User: h.optionalUser(r), Data: snapshot})
}

// Login handles GET /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	user := h.optionalUser(r)
	if user != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", page{Title: "Login"})
}

// Register handles GET /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if user := h.optionalUser(r); user != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "register", page{Title: "Register"})
}

// Dashboard summarizes the registry for the signed-in operator.
type Dashboard struct {
	TotalIncidents        int
	ActiveIncidents       int
	TotalComponents       int
	OperationalComponents int
	Timeline              []TimelineEntry
}

// TimelineEntry is one incident update flattened out of its incident.
type TimelineEntry struct {
	IncidentID   string
	IncidentName string
	domain.IncidentUpdate
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request, user *domain.User) {
	incidents, err := h.deps.Incidents.ListIncidents(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	components, err := h.deps.Components.ListComponents(r.Context(), catalog.ComponentFilter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "dashboard", page{
		Title: "Dashboard",
		User:  user,
		Data:  BuildDashboard(incidents, components),
	})
}

// BuildDashboard computes dashboard totals and the update timeline, newest first.
func BuildDashboard(incidents []domain.Incident, components []domain.Component) Dashboard {
	d := Dashboard{
		TotalIncidents:  len(incidents),
		TotalComponents: len(components),
		Timeline:        make([]TimelineEntry, 0),
	}

	for _, inc := range incidents {
		if inc.Status.IsActive() {
			d.ActiveIncidents++
		}
		for _, u := range inc.Updates {
			d.Timeline = append(d.Timeline, TimelineEntry{
				IncidentID:     inc.ID,
				IncidentName:   inc.Name,
				IncidentUpdate: u,
			})
		}
	}
	for _, c := range components {
		if c.Status == domain.ComponentStatusOperational {
			d.OperationalComponents++
		}
	}

	sort.SliceStable(d.Timeline, func(i, j int) bool {
		return d.Timeline[i].CreatedAt.After(d.Timeline[j].CreatedAt)
	})
	return d
}

// Components handles GET /components.
func (h *Handler) Components(w http.ResponseWriter, r *http.Request, user *domain.User) {
	components, err := h.deps.Components.ListComponents(r.Context(), catalog.ComponentFilter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "components", page{Title: "Components", User: user, Data: components})
}

type incidentsPage struct {
	Incidents  []domain.Incident
	Components []domain.Component
}

// Incidents handles GET /incidents.
func (h *Handler) Incidents(w http.ResponseWriter, r *http.Request, user *domain.User) {
	incidents, err := h.deps.Incidents.ListIncidents(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	components, err := h.deps.Components.ListComponents(r.Context(), catalog.ComponentFilter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "incidents", page{
		Title: "Incidents",
		User:  user,
		Data:  incidentsPage{Incidents: incidents, Components: components},
	})
}

// Subscribers handles GET /subscribers.
func (h *Handler) Subscribers(w http.ResponseWriter, r *http.Request, user *domain.User) {
	subscribers, err := h.deps.Subscribers.ListSubscribers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "subscribers", page{Title: "Subscribers", User: user, Data: subscribers})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctxlog.FromContext(r.Context()).Error("page failed", "path", r.URL.Path, "error", err)
	h.render(w, r, http.StatusInternalServerError, "error", page{Title: "Error", Data: "Something went wrong. Please try again later."})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to render page", "page", name, "error", err)
		httputil.Text(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
