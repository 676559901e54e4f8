//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/incidents"
	incidentspostgres "github.com/bissquit/statusboard/internal/incidents/postgres"
	"github.com/bissquit/statusboard/internal/pkg/postgres"
	"github.com/bissquit/statusboard/internal/testutil"
	"github.com/bissquit/statusboard/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T) *incidentspostgres.Repository {
	t.Helper()
	ctx := context.Background()

	container, err := testutil.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	require.NoError(t, postgres.Migrate(container.ConnectionString, migrations.FS))

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             container.ConnectionString,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnectAttempts: 3,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return incidentspostgres.NewRepository(db)
}

func TestRepository_AppendUpdate(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	incident := &domain.Incident{
		Name:         "Checkout failures",
		Status:       domain.IncidentStatusInvestigating,
		ComponentIDs: []string{},
		Updates: []domain.IncidentUpdate{{
			Status:    domain.IncidentStatusInvestigating,
			Message:   "Investigating",
			CreatedAt: time.Now().UTC(),
		}},
	}
	require.NoError(t, repo.CreateIncident(ctx, incident))

	identified, err := repo.AppendUpdate(ctx, incident.ID, domain.IncidentUpdate{
		Status:    domain.IncidentStatusIdentified,
		Message:   "Bad deploy",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusIdentified, identified.Status)
	assert.Len(t, identified.Updates, 2)
	assert.Nil(t, identified.ResolvedAt)

	resolved, err := repo.AppendUpdate(ctx, incident.ID, domain.IncidentUpdate{
		Status:    domain.IncidentStatusResolved,
		Message:   "Rolled back",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	resolvedAt := *resolved.ResolvedAt

	// A second resolved update keeps the first resolution time.
	again, err := repo.AppendUpdate(ctx, incident.ID, domain.IncidentUpdate{
		Status:    domain.IncidentStatusResolved,
		Message:   "Postmortem published",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NotNil(t, again.ResolvedAt)
	assert.True(t, resolvedAt.Equal(*again.ResolvedAt))

	reopened, err := repo.AppendUpdate(ctx, incident.ID, domain.IncidentUpdate{
		Status:    domain.IncidentStatusMonitoring,
		Message:   "Errors are back",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusMonitoring, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Len(t, reopened.Updates, 5)

	stored, err := repo.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, reopened.Updates, stored.Updates)
}

func TestRepository_AppendUpdateMissing(t *testing.T) {
	repo := newRepository(t)

	_, err := repo.AppendUpdate(context.Background(), "00000000-0000-0000-0000-000000000000", domain.IncidentUpdate{
		Status:  domain.IncidentStatusResolved,
		Message: "x",
	})
	assert.ErrorIs(t, err, incidents.ErrIncidentNotFound)
}
