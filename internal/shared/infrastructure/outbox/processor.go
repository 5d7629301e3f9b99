package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	// Retention is how long published messages are kept. Zero keeps them forever.
	Retention       time.Duration
	CleanupInterval time.Duration
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Stats is a snapshot of the processor counters.
type Stats struct {
	Running     bool
	Published   uint64
	Failed      uint64
	Dead        uint64
	Lag         time.Duration
	LastError   string
	LastErrorAt time.Time
	LastBatchAt time.Time
	// FetchError is set while the outbox cannot be read.
	FetchError string
}

// Processor polls the outbox and hands messages to an event publisher.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	stats  Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		now:       time.Now,
	}
}

// WithMetrics records publish counters on m.
func (p *Processor) WithMetrics(m observability.Metrics) *Processor {
	if m != nil {
		p.metrics = m
	}
	return p
}

// Start runs the polling loop until ctx is done or Stop is called. Calling
// Start on a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.stats.Running = true
	go p.run(loopCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop cancels the loop and waits for the current batch to finish.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the polling loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.Running
}

func (p *Processor) run(ctx context.Context, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		p.stats.Running = false
		p.mu.Unlock()
		close(done)
	}()

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()
	interval := p.config.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	cleanup := time.NewTicker(interval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		case <-cleanup.C:
			p.Cleanup(ctx)
		}
	}
}

// ProcessOnce publishes one batch of pending messages synchronously. Publish
// failures are recorded on the messages; only a failed fetch is returned.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.recordError(err)
		return fmt.Errorf("fetch unpublished: %w", err)
	}
	p.recordBatch(messages)

	for _, msg := range messages {
		if err := p.publish(ctx, msg); err != nil {
			p.handleFailure(ctx, msg, err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.Error("failed to mark message as published",
				"id", msg.ID,
				"event_id", msg.EventID,
				"error", err,
			)
			continue
		}
		p.mu.Lock()
		p.stats.Published++
		p.mu.Unlock()
		p.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", msg.RoutingKey))
	}
	return nil
}

func (p *Processor) publish(ctx context.Context, msg *Message) error {
	body, err := msg.Body()
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, msg.RoutingKey, body)
}

// handleFailure schedules a retry, or dead-letters msg once its retries are spent.
func (p *Processor) handleFailure(ctx context.Context, msg *Message, cause error) {
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"correlation_id", msg.Metadata.CorrelationID,
		"retry_count", msg.RetryCount,
		"error", cause,
	)

	dead := p.config.MaxRetries <= 0 || msg.RetryCount+1 >= p.config.MaxRetries
	p.mu.Lock()
	if dead {
		p.stats.Dead++
	} else {
		p.stats.Failed++
	}
	p.stats.LastError = cause.Error()
	p.stats.LastErrorAt = p.now()
	p.mu.Unlock()

	var err error
	if dead {
		err = p.repo.MarkDead(ctx, msg.ID, cause.Error())
	} else {
		err = p.repo.MarkFailed(ctx, msg.ID, cause.Error(), p.now().Add(p.retryBackoff(msg.RetryCount+1)))
	}
	if err != nil {
		p.logger.Error("failed to record publish failure", "id", msg.ID, "dead", dead, "error", err)
	}
}

// retryBackoff doubles RetryBackoffBase per attempt, capped at RetryBackoffMax.
func (p *Processor) retryBackoff(attempt int) time.Duration {
	base, limit := p.config.RetryBackoffBase, p.config.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if limit <= 0 {
		limit = time.Minute
	}

	shift := convert.IntToUintClamped(attempt - 1)
	if shift > 30 {
		return limit
	}
	return min(base*time.Duration(1<<shift), limit)
}

// Cleanup deletes published messages past the retention period.
func (p *Processor) Cleanup(ctx context.Context) {
	if p.config.Retention <= 0 {
		return
	}
	n, err := p.repo.DeleteOld(ctx, p.config.Retention)
	if err != nil {
		p.logger.Warn("outbox cleanup failed", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("outbox cleanup", "deleted", n)
	}
}

// Stats returns a snapshot of the processor counters.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// HealthChecker reports degraded when the oldest pending message of the last
// batch is older than maxLag, and unhealthy when the outbox cannot be read.
func (p *Processor) HealthChecker(maxLag time.Duration) observability.HealthChecker {
	return func(ctx context.Context) observability.HealthCheckResult {
		s := p.Stats()
		result := observability.HealthCheckResult{
			Status:    observability.HealthStatusHealthy,
			Timestamp: p.now(),
			Details: map[string]any{
				"running":   s.Running,
				"published": s.Published,
				"failed":    s.Failed,
				"dead":      s.Dead,
				"lag":       s.Lag.String(),
			},
		}
		switch {
		case s.FetchError != "":
			result.Status = observability.HealthStatusUnhealthy
			result.Message = s.FetchError
		case maxLag > 0 && s.Lag > maxLag:
			result.Status = observability.HealthStatusDegraded
			result.Message = fmt.Sprintf("oldest pending event is %s old", s.Lag.Round(time.Second))
		}
		return result
	}
}

func (p *Processor) recordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = p.now()
	p.stats.FetchError = err.Error()
}

func (p *Processor) recordBatch(messages []*Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.stats.LastBatchAt = now
	p.stats.FetchError = ""
	p.stats.Lag = 0
	for _, msg := range messages {
		if lag := now.Sub(msg.CreatedAt); lag > p.stats.Lag {
			p.stats.Lag = lag
		}
	}
}
