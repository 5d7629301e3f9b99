package commands

import (
	"context"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/layoutrack/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/layoutrack/internal/shared/domain"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// TimelineInvalidator drops cached timelines after a write.
type TimelineInvalidator interface {
	Invalidate(ctx context.Context) error
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) error { return nil }

// Options carries the collaborators shared by all layout command handlers.
type Options struct {
	Cache   TimelineInvalidator
	Metrics observability.Metrics
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Cache == nil {
		o.Cache = noopInvalidator{}
	}
	if o.Metrics == nil {
		o.Metrics = observability.NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// recordEvents stamps request metadata on events and writes them to the
// outbox within the caller's transaction.
func recordEvents(ctx context.Context, repo outbox.Repository, events ...sharedDomain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	metadata := sharedApplication.NewEventMetadata(
		observability.CorrelationIDFromContext(ctx),
		observability.ActorFromContext(ctx),
	)
	sharedApplication.ApplyEventMetadata(events, metadata)

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}

// invalidate clears cached timelines. A failure is logged: the cache entries
// expire on their own.
func invalidate(ctx context.Context, opts Options) {
	if err := opts.Cache.Invalidate(ctx); err != nil {
		opts.Metrics.Counter(observability.MetricCacheErrors, 1, observability.T("op", "invalidate"))
		opts.Logger.WarnContext(ctx, "timeline cache invalidation failed", "error", err)
	}
}

func actorOr(ctx context.Context, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return observability.ActorFromContext(ctx)
}
