package cache

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/eventbus"
)

// Invalidator drops cached timelines.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// TimelineInvalidator is an event consumer that clears the timeline cache
// whenever a layout event arrives. In server mode it keeps the caches of
// other instances consistent.
type TimelineInvalidator struct {
	cache  Invalidator
	logger *slog.Logger
}

// NewTimelineInvalidator creates a new timeline cache invalidator.
func NewTimelineInvalidator(cache Invalidator, logger *slog.Logger) *TimelineInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimelineInvalidator{cache: cache, logger: logger}
}

// EventTypes returns the topic patterns this consumer handles.
func (i *TimelineInvalidator) EventTypes() []string {
	return []string{"layouts.#"}
}

// Handle clears the cache.
func (i *TimelineInvalidator) Handle(ctx context.Context, event *eventbus.Envelope) error {
	if err := i.cache.Invalidate(ctx); err != nil {
		return err
	}
	i.logger.Debug("timeline cache invalidated",
		"routing_key", event.RoutingKey,
		"aggregate_id", event.AggregateID,
	)
	return nil
}
