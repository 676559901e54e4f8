package statuspage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, source *mockSource) (*httptest.Server, *Hub) {
	t.Helper()

	svc := NewService(source, source)
	hub := NewHub(svc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := chi.NewRouter()
	NewHandler(svc, hub).RegisterRoutes(r)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-hub.Done()
	})
	return srv, hub
}

func TestHandler_GetStatus(t *testing.T) {
	source := &mockSource{
		components: []domain.Component{{ID: "c1", Name: "API", Status: domain.ComponentStatusDegradedPerformance}},
	}
	srv, _ := newTestServer(t, source)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, domain.ComponentStatusDegradedPerformance, s.Status)
	assert.Equal(t, 1, s.AffectedComponents)
	require.Len(t, s.Components, 1)
}

func TestHandler_GetStatusError(t *testing.T) {
	srv, _ := newTestServer(t, &mockSource{err: errors.New("db down")})

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/status/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var s Snapshot
	require.NoError(t, conn.ReadJSON(&s))
	return s
}

func TestHub_StreamsSnapshotOnConnectAndChange(t *testing.T) {
	source := &mockSource{
		components: []domain.Component{{ID: "c1", Status: domain.ComponentStatusOperational}},
	}
	srv, hub := newTestServer(t, source)
	conn := dialStream(t, srv)

	first := readSnapshot(t, conn)
	assert.Equal(t, domain.ComponentStatusOperational, first.Status)

	source.setComponents(domain.Component{ID: "c1", Status: domain.ComponentStatusMajorOutage})
	hub.ComponentsChanged(context.Background())

	second := readSnapshot(t, conn)
	assert.Equal(t, domain.ComponentStatusMajorOutage, second.Status)
}

func TestHub_IncidentChangeBroadcastsToAllClients(t *testing.T) {
	source := &mockSource{}
	srv, hub := newTestServer(t, source)
	a := dialStream(t, srv)
	b := dialStream(t, srv)
	readSnapshot(t, a)
	readSnapshot(t, b)

	source.mu.Lock()
	source.incidents = []domain.Incident{incidentAt("x", domain.IncidentStatusInvestigating, 0, "looking")}
	source.mu.Unlock()
	hub.IncidentChanged(context.Background(), domain.IncidentChange{Action: domain.IncidentCreated})

	for _, conn := range []*websocket.Conn{a, b} {
		s := readSnapshot(t, conn)
		assert.Equal(t, 1, s.ActiveIncidents)
	}
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	srv, _ := newTestServer(t, &mockSource{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/status/stream"

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no origin", nil, "", "status.example.com", true},
		{"same host", nil, "https://status.example.com", "status.example.com", true},
		{"foreign", nil, "https://other.example.com", "status.example.com", false},
		{"allowed list", []string{"https://other.example.com"}, "https://other.example.com", "status.example.com", true},
		{"wildcard", []string{"*"}, "https://any.example.com", "status.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/status/stream", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checkOrigin(tt.allowed)(req))
		})
	}
}
