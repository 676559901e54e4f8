package identity

import (
	"context"
	"time"

	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
)

// Purger deletes denylist entries for tokens that have expired.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// RunSweeper purges expired denylist entries every interval until ctx is done.
func RunSweeper(ctx context.Context, purger Purger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := purger.PurgeExpired(ctx, time.Now())
			if err != nil {
				ctxlog.FromContext(ctx).Error("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				ctxlog.FromContext(ctx).Debug("purged revoked tokens", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
