package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestCreateComponent_Defaults(t *testing.T) {
	repo := newMockRepository()
	observer := &countingObserver{}
	service := NewService(repo)
	service.Subscribe(observer)

	component, err := service.CreateComponent(context.Background(), CreateComponentInput{Name: "API"})

	require.NoError(t, err)
	assert.Equal(t, domain.ComponentStatusOperational, component.Status)
	assert.Equal(t, domain.ComponentTypeActive, component.Type)
	assert.NotEmpty(t, component.ID)
	assert.Len(t, repo.log, 1, "initial status is logged")
	assert.Equal(t, 1, observer.calls)
}

func TestCreateComponent_InvalidEnums(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.CreateComponent(context.Background(), CreateComponentInput{Name: "API", Status: "broken"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = service.CreateComponent(context.Background(), CreateComponentInput{Name: "API", Type: "internal"})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestCreateComponent_NameNotUnique(t *testing.T) {
	service := NewService(newMockRepository())

	a, err := service.CreateComponent(context.Background(), CreateComponentInput{Name: "API"})
	require.NoError(t, err)
	b, err := service.CreateComponent(context.Background(), CreateComponentInput{Name: "API"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestUpdateComponent_MergesProvidedFields(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)
	created, err := service.CreateComponent(context.Background(), CreateComponentInput{
		Name:        "API",
		Description: "Public API",
		Type:        domain.ComponentTypeThirdParty,
	})
	require.NoError(t, err)

	updated, err := service.UpdateComponent(context.Background(), created.ID, UpdateComponentInput{
		Status: ptr(domain.ComponentStatusMajorOutage),
	})

	require.NoError(t, err)
	assert.Equal(t, "API", updated.Name)
	assert.Equal(t, "Public API", updated.Description)
	assert.Equal(t, domain.ComponentTypeThirdParty, updated.Type)
	assert.Equal(t, domain.ComponentStatusMajorOutage, updated.Status)

	require.Len(t, repo.log, 2)
	assert.Equal(t, domain.ComponentStatusOperational, *repo.log[1].OldStatus)
	assert.Equal(t, domain.ComponentStatusMajorOutage, repo.log[1].NewStatus)
}

func TestUpdateComponent_NoStatusChangeNotLogged(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)
	created, err := service.CreateComponent(context.Background(), CreateComponentInput{Name: "API"})
	require.NoError(t, err)

	_, err = service.UpdateComponent(context.Background(), created.ID, UpdateComponentInput{Name: ptr("Public API")})

	require.NoError(t, err)
	assert.Len(t, repo.log, 1)
}

func TestUpdateComponent_Errors(t *testing.T) {
	service := NewService(newMockRepository())
	created, err := service.CreateComponent(context.Background(), CreateComponentInput{Name: "API"})
	require.NoError(t, err)

	_, err = service.UpdateComponent(context.Background(), "missing", UpdateComponentInput{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrComponentNotFound)

	_, err = service.UpdateComponent(context.Background(), created.ID, UpdateComponentInput{
		Status: ptr(domain.ComponentStatus("exploded")),
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteComponent(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)
	created, err := service.CreateComponent(context.Background(), CreateComponentInput{Name: "API"})
	require.NoError(t, err)

	require.NoError(t, service.DeleteComponent(context.Background(), created.ID))
	assert.Empty(t, repo.components)

	assert.ErrorIs(t, service.DeleteComponent(context.Background(), created.ID), ErrComponentNotFound)
}

func TestListComponents_TypeFilter(t *testing.T) {
	service := NewService(newMockRepository())
	ctx := context.Background()
	_, _ = service.CreateComponent(ctx, CreateComponentInput{Name: "API"})
	_, _ = service.CreateComponent(ctx, CreateComponentInput{Name: "Stripe", Type: domain.ComponentTypeThirdParty})
	_, _ = service.CreateComponent(ctx, CreateComponentInput{Name: "Website"})

	all, err := service.ListComponents(ctx, ComponentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"API", "Stripe", "Website"}, []string{all[0].Name, all[1].Name, all[2].Name})

	thirdParty, err := service.ListComponents(ctx, ComponentFilter{Type: ptr(domain.ComponentTypeThirdParty)})
	require.NoError(t, err)
	require.Len(t, thirdParty, 1)
	assert.Equal(t, "Stripe", thirdParty[0].Name)

	_, err = service.ListComponents(ctx, ComponentFilter{Type: ptr(domain.ComponentType("internal"))})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestListComponents_RepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.err = errors.New("connection reset")
	service := NewService(repo)

	_, err := service.ListComponents(context.Background(), ComponentFilter{})
	assert.Error(t, err)
}

func TestSeedDefaults(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	require.NoError(t, service.SeedDefaults(context.Background()))
	require.Len(t, repo.components, 2)
	assert.Equal(t, "API", repo.components[0].Name)
	assert.Equal(t, "Public API endpoints", repo.components[0].Description)
	assert.Equal(t, "Website", repo.components[1].Name)
	assert.Equal(t, "Main company website and web application", repo.components[1].Description)

	// Second run is a no-op.
	require.NoError(t, service.SeedDefaults(context.Background()))
	assert.Len(t, repo.components, 2)
}

func TestGetUptime_InvalidWindow(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.GetUptime(context.Background(), "component-1", "1y")
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestGetUptime_UsesStatusLog(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)
	created, err := service.CreateComponent(context.Background(), CreateComponentInput{Name: "API"})
	require.NoError(t, err)
	service.now = func() time.Time { return created.CreatedAt.Add(2 * time.Hour) }

	report, err := service.GetUptime(context.Background(), created.ID, "24h")

	require.NoError(t, err)
	assert.Equal(t, "24h", report.Window)
	assert.Len(t, report.Buckets, 24)
	assert.Equal(t, 100.0, report.Uptime)
}
