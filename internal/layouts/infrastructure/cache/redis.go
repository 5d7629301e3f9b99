package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	ganttDomain "github.com/felixgeelhaar/layoutrack/internal/gantt/domain"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// BreakerConfig configures the circuit breaker guarding Redis calls.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
}

// DefaultBreakerConfig returns the breaker settings used in server mode.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// RedisTimelineCache stores timelines in Redis. Redis failures never reach
// the caller: reads degrade to a miss and writes are dropped, so the
// timeline is recomputed from the repository.
type RedisTimelineCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	ttl     time.Duration
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewRedisTimelineCache creates a Redis-backed timeline cache.
func NewRedisTimelineCache(client *redis.Client, ttl time.Duration, cfg BreakerConfig, logger *slog.Logger, metrics observability.Metrics) *RedisTimelineCache {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.FailureThreshold == 0 {
		cfg = DefaultBreakerConfig()
	}

	settings := gobreaker.Settings{
		Name:        "redis-timeline-cache",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &RedisTimelineCache{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the cached timeline for key. An unavailable Redis is reported
// as a miss.
func (c *RedisTimelineCache) Get(ctx context.Context, key string) (ganttDomain.Timeline, bool, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		val, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		c.degraded("get", err)
		return ganttDomain.Timeline{}, false, nil
	}
	if data == nil {
		return ganttDomain.Timeline{}, false, nil
	}

	tl, err := decodeTimeline(data)
	if err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		c.degraded("decode", err)
		return ganttDomain.Timeline{}, false, nil
	}
	return tl, true, nil
}

// Set stores tl under key with the configured TTL.
func (c *RedisTimelineCache) Set(ctx context.Context, key string, tl ganttDomain.Timeline) error {
	data, err := encodeTimeline(tl)
	if err != nil {
		return err
	}
	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, KeyPrefix+key, data, c.ttl).Err()
	})
	if err != nil {
		c.degraded("set", err)
	}
	return nil
}

// Generation returns the shared invalidation counter. Unlike Get, an
// unavailable Redis is returned as an error so the caller skips the cache.
func (c *RedisTimelineCache) Generation(ctx context.Context) (uint64, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		val, err := c.client.Get(ctx, GenerationKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		c.degraded("generation", err)
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	return strconv.ParseUint(string(data), 10, 64)
}

// Invalidate advances the generation and removes every timeline entry.
func (c *RedisTimelineCache) Invalidate(ctx context.Context) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		if err := c.client.Incr(ctx, GenerationKey).Err(); err != nil {
			return nil, err
		}
		iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, nil
		}
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		c.degraded("invalidate", err)
		return err
	}
	return nil
}

// State returns the breaker state, e.g. "closed" or "open".
func (c *RedisTimelineCache) State() string {
	return c.breaker.State().String()
}

func (c *RedisTimelineCache) degraded(op string, err error) {
	c.metrics.Counter(observability.MetricCacheErrors, 1, observability.T("op", op))
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Debug("timeline cache bypassed", "op", op, "breaker", c.breaker.State().String())
		return
	}
	c.logger.Warn("timeline cache unavailable", "op", op, "error", err)
}
