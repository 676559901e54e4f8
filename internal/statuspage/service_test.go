package statuspage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func incidentAt(id string, status domain.IncidentStatus, offset time.Duration, messages ...string) domain.Incident {
	inc := domain.Incident{
		ID:        id,
		Name:      "Incident " + id,
		Status:    status,
		CreatedAt: baseTime.Add(offset),
		Updates:   []domain.IncidentUpdate{},
	}
	for _, m := range messages {
		inc.Updates = append(inc.Updates, domain.IncidentUpdate{Status: status, Message: m, CreatedAt: inc.CreatedAt})
	}
	return inc
}

func TestBuildSnapshot_Empty(t *testing.T) {
	s := BuildSnapshot(nil, nil, baseTime)

	assert.Equal(t, domain.ComponentStatusOperational, s.Status)
	assert.Zero(t, s.TotalIncidents)
	assert.Zero(t, s.ActiveIncidents)
	assert.Zero(t, s.AffectedComponents)
	assert.NotNil(t, s.Components)
	assert.NotNil(t, s.Active)
	assert.NotNil(t, s.Recent)
	assert.Equal(t, baseTime, s.GeneratedAt)
}

func TestBuildSnapshot_Counts(t *testing.T) {
	components := []domain.Component{
		{ID: "c1", Status: domain.ComponentStatusOperational},
		{ID: "c2", Status: domain.ComponentStatusPartialOutage},
		{ID: "c3", Status: domain.ComponentStatusDegradedPerformance},
	}
	incidents := []domain.Incident{
		incidentAt("old", domain.IncidentStatusResolved, 0, "fixed"),
		incidentAt("new", domain.IncidentStatusIdentified, 2*time.Hour, "found it"),
		incidentAt("mid", domain.IncidentStatusInvestigating, time.Hour, "looking"),
	}

	s := BuildSnapshot(components, incidents, baseTime)

	assert.Equal(t, domain.ComponentStatusPartialOutage, s.Status)
	assert.Equal(t, 3, s.TotalIncidents)
	assert.Equal(t, 2, s.ActiveIncidents)
	assert.Equal(t, 2, s.AffectedComponents)

	require.Len(t, s.Active, 2)
	assert.Equal(t, "new", s.Active[0].ID)
	assert.Equal(t, "mid", s.Active[1].ID)

	require.Len(t, s.Recent, 3)
	assert.Equal(t, "new", s.Recent[0].ID)
	assert.Equal(t, "found it", s.Recent[0].LatestMessage)
	assert.Equal(t, "old", s.Recent[2].ID)
}

func TestBuildSnapshot_RecentLimitAndPlaceholder(t *testing.T) {
	var incidents []domain.Incident
	for i := 0; i < 12; i++ {
		incidents = append(incidents, incidentAt(fmt.Sprint(i), domain.IncidentStatusResolved, time.Duration(i)*time.Minute))
	}

	s := BuildSnapshot(nil, incidents, baseTime)

	require.Len(t, s.Recent, recentLimit)
	assert.Equal(t, "11", s.Recent[0].ID)
	assert.Equal(t, "2", s.Recent[9].ID)
	assert.Equal(t, noUpdatesMessage, s.Recent[0].LatestMessage)
	assert.Equal(t, 12, s.TotalIncidents)
}

func TestBuildSnapshot_LatestMessageIsLastUpdate(t *testing.T) {
	inc := incidentAt("a", domain.IncidentStatusMonitoring, 0, "first", "second", "third")

	s := BuildSnapshot(nil, []domain.Incident{inc}, baseTime)

	require.Len(t, s.Recent, 1)
	assert.Equal(t, "third", s.Recent[0].LatestMessage)
}

func TestService_Snapshot(t *testing.T) {
	source := &mockSource{
		components: []domain.Component{{ID: "c1", Status: domain.ComponentStatusMajorOutage}},
		incidents:  []domain.Incident{incidentAt("a", domain.IncidentStatusInvestigating, 0, "down")},
	}
	svc := NewService(source, source)
	svc.now = func() time.Time { return baseTime }

	s, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ComponentStatusMajorOutage, s.Status)
	assert.Equal(t, 1, s.ActiveIncidents)
	assert.Equal(t, baseTime, s.GeneratedAt)
}

func TestService_SnapshotError(t *testing.T) {
	boom := errors.New("db down")
	source := &mockSource{err: boom}
	svc := NewService(source, source)

	_, err := svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}
