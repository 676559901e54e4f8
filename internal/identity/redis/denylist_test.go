//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	identityredis "github.com/bissquit/statusboard/internal/identity/redis"
	"github.com/bissquit/statusboard/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenylist(t *testing.T) {
	ctx := context.Background()

	container, err := testutil.NewRedisContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	client := redis.NewClient(&redis.Options{Addr: container.Addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	denylist := identityredis.NewDenylist(client)

	t.Run("unknown token is not revoked", func(t *testing.T) {
		revoked, err := denylist.IsRevoked(ctx, "never-seen")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked token", func(t *testing.T) {
		require.NoError(t, denylist.Revoke(ctx, "token-1", time.Now().Add(time.Hour)))

		revoked, err := denylist.IsRevoked(ctx, "token-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("entry expires with the token", func(t *testing.T) {
		require.NoError(t, denylist.Revoke(ctx, "token-2", time.Now().Add(1500*time.Millisecond)))

		revoked, err := denylist.IsRevoked(ctx, "token-2")
		require.NoError(t, err)
		require.True(t, revoked)

		assert.Eventually(t, func() bool {
			revoked, err := denylist.IsRevoked(ctx, "token-2")
			return err == nil && !revoked
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("expired token is skipped", func(t *testing.T) {
		require.NoError(t, denylist.Revoke(ctx, "token-3", time.Now().Add(-time.Minute)))

		revoked, err := denylist.IsRevoked(ctx, "token-3")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
