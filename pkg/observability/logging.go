package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/vanity/pkg/domain"
)

// LoggingHooks logs every lifecycle event on logger.
// Tracks are logged at Debug since they follow request volume.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLoad: func(ctx context.Context, e *domain.LoadEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "load_failed", "family", e.Family, "path", e.Path, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "load_pass",
				"family", e.Family,
				"path", e.Path,
				"count", e.Count,
				"duration", e.Duration,
			)
		},
		OnTrack: func(ctx context.Context, e *domain.TrackEvent) {
			logger.DebugContext(ctx, "track",
				"metric", e.Metric,
				"identity", e.Identity,
				"amount", e.Amount,
			)
		},
		OnConnect: func(ctx context.Context, e *domain.ConnectionEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "connect_failed", "adapter", e.Adapter, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "connect", "adapter", e.Adapter)
		},
		OnDisconnect: func(ctx context.Context, e *domain.ConnectionEvent) {
			logger.InfoContext(ctx, "disconnect", "adapter", e.Adapter)
		},
	}
}
