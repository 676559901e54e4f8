package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/statusboard/internal/catalog"
	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/httputil"
	"github.com/bissquit/statusboard/internal/statuspage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type mockSessions struct {
	session domain.Session
	calls   int
}

func (m *mockSessions) ResolveSession(_ context.Context, _ string) domain.Session {
	m.calls++
	return m.session
}

type mockData struct {
	components  []domain.Component
	incidents   []domain.Incident
	subscribers []domain.Subscriber
	err         error
}

func (m *mockData) ListComponents(_ context.Context, _ catalog.ComponentFilter) ([]domain.Component, error) {
	return m.components, m.err
}

func (m *mockData) ListIncidents(_ context.Context) ([]domain.Incident, error) {
	return m.incidents, m.err
}

func (m *mockData) ListSubscribers(_ context.Context) ([]domain.Subscriber, error) {
	return m.subscribers, m.err
}

func (m *mockData) Snapshot(_ context.Context) (*statuspage.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := statuspage.BuildSnapshot(m.components, m.incidents, testTime)
	return &s, nil
}

var operator = &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", CreatedAt: testTime}

func newTestRouter(t *testing.T, session domain.Session, data *mockData) (http.Handler, *mockSessions) {
	t.Helper()
	sessions := &mockSessions{session: session}
	h, err := NewHandler(Deps{
		Sessions:    sessions,
		Status:      data,
		Components:  data,
		Incidents:   data,
		Subscribers: data,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, sessions
}

func get(h http.Handler, path string, withCookie bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withCookie {
		req.AddCookie(&http.Cookie{Name: httputil.SessionCookie, Value: "token"})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sampleData() *mockData {
	return &mockData{
		components: []domain.Component{
			{ID: "c1", Name: "API", Status: domain.ComponentStatusOperational, Type: domain.ComponentTypeActive},
			{ID: "c2", Name: "Website", Status: domain.ComponentStatusMajorOutage, Type: domain.ComponentTypeActive},
		},
		incidents: []domain.Incident{{
			ID:        "i1",
			Name:      "Website down",
			Status:    domain.IncidentStatusInvestigating,
			CreatedAt: testTime,
			Updates: []domain.IncidentUpdate{
				{Status: domain.IncidentStatusInvestigating, Message: "Looking into it", CreatedAt: testTime},
			},
		}},
		subscribers: []domain.Subscriber{{ID: "s1", Email: "ops@example.com", CreatedAt: testTime}},
	}
}

func TestHandler_RootRedirects(t *testing.T) {
	router, _ := newTestRouter(t, domain.Session{}, sampleData())

	rec := get(router, "/", false)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/status", rec.Header().Get("Location"))
}

func TestHandler_StatusPage(t *testing.T) {
	router, sessions := newTestRouter(t, domain.Session{}, sampleData())

	rec := get(router, "/status", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "Major Outage")
	assert.Contains(t, body, "Website down")
	assert.Contains(t, body, "Looking into it")
	assert.Contains(t, body, "Login")
	assert.Zero(t, sessions.calls, "anonymous request without a token needs no session lookup")
}

func TestHandler_StatusPageError(t *testing.T) {
	data := sampleData()
	data.err = errors.New("db down")
	router, _ := newTestRouter(t, domain.Session{}, data)

	rec := get(router, "/status", false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestHandler_ProtectedPages(t *testing.T) {
	pages := []string{"/dashboard", "/components", "/incidents", "/subscribers"}

	tests := []struct {
		name         string
		session      domain.Session
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "anonymous redirects to login",
			session:      domain.Session{State: domain.SessionAnonymous},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login",
		},
		{
			name:       "resolution failure",
			session:    domain.Session{State: domain.SessionError, Err: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "authenticated",
			session:    domain.Session{State: domain.SessionAuthenticated, User: operator},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		for _, path := range pages {
			t.Run(tt.name+" "+path, func(t *testing.T) {
				router, sessions := newTestRouter(t, tt.session, sampleData())

				rec := get(router, path, true)
				assert.Equal(t, tt.wantStatus, rec.Code)
				assert.Equal(t, 1, sessions.calls)
				if tt.wantLocation != "" {
					assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
				}
			})
		}
	}
}

func TestHandler_DashboardContent(t *testing.T) {
	router, _ := newTestRouter(t, domain.Session{State: domain.SessionAuthenticated, User: operator}, sampleData())

	rec := get(router, "/dashboard", true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Welcome, Ada!")
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, "Apr 1, 2026")
	assert.Contains(t, body, "Looking into it")
}

func TestHandler_SubscribersContent(t *testing.T) {
	router, _ := newTestRouter(t, domain.Session{State: domain.SessionAuthenticated, User: operator}, sampleData())

	rec := get(router, "/subscribers", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ops@example.com")
}

func TestHandler_LoginRedirectsWhenSignedIn(t *testing.T) {
	router, _ := newTestRouter(t, domain.Session{State: domain.SessionAuthenticated, User: operator}, sampleData())

	rec := get(router, "/login", true)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestHandler_LoginAndRegisterPages(t *testing.T) {
	router, _ := newTestRouter(t, domain.Session{}, sampleData())

	for _, path := range []string{"/login", "/register"} {
		rec := get(router, path, false)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "<form", path)
	}
}

func TestBuildDashboard(t *testing.T) {
	incidents := []domain.Incident{
		{
			ID: "a", Name: "A", Status: domain.IncidentStatusResolved,
			Updates: []domain.IncidentUpdate{
				{Message: "a1", CreatedAt: testTime},
				{Message: "a2", CreatedAt: testTime.Add(3 * time.Hour)},
			},
		},
		{
			ID: "b", Name: "B", Status: domain.IncidentStatusMonitoring,
			Updates: []domain.IncidentUpdate{
				{Message: "b1", CreatedAt: testTime.Add(time.Hour)},
			},
		},
	}
	components := []domain.Component{
		{Status: domain.ComponentStatusOperational},
		{Status: domain.ComponentStatusPartialOutage},
		{Status: domain.ComponentStatusOperational},
	}

	d := BuildDashboard(incidents, components)

	assert.Equal(t, 2, d.TotalIncidents)
	assert.Equal(t, 1, d.ActiveIncidents)
	assert.Equal(t, 3, d.TotalComponents)
	assert.Equal(t, 2, d.OperationalComponents)

	require.Len(t, d.Timeline, 3)
	assert.Equal(t, "a2", d.Timeline[0].Message)
	assert.Equal(t, "b1", d.Timeline[1].Message)
	assert.Equal(t, "B", d.Timeline[1].IncidentName)
	assert.Equal(t, "a1", d.Timeline[2].Message)
}
