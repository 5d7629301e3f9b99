package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	ganttDomain "github.com/felixgeelhaar/layoutrack/internal/gantt/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/commands"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/queries"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/infrastructure/cache"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/infrastructure/calendar"
	sharedApplication "github.com/felixgeelhaar/layoutrack/internal/shared/application"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/layoutrack/pkg/config"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// TimelineCache is the cache surface the container wires: reads and writes
// for the gantt query, invalidation for commands and event consumers.
type TimelineCache interface {
	queries.TimelineCache
	cache.Invalidator
}

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	LayoutRepo domain.Repository
	OutboxRepo outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork

	// Timeline
	TimelineCache  TimelineCache
	TimelinePolicy ganttDomain.Policy

	// Events
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	EventConsumer     *eventbus.RabbitMQConsumer
	OutboxProcessor   *outbox.Processor

	// Command handlers
	SubmitLayoutsHandler   *commands.SubmitLayoutsHandler
	UpdateWeightHandler    *commands.UpdateWeightHandler
	SetLayoutClosedHandler *commands.SetLayoutClosedHandler

	// Query handlers
	ListLayoutsHandler       *queries.ListLayoutsHandler
	GetProjectLayoutsHandler *queries.GetProjectLayoutsHandler
	GetWeightHistoryHandler  *queries.GetWeightHistoryHandler
	GetGanttHandler          *queries.GetGanttHandler

	// CalendarPublisher is nil unless CALDAV_URL is set.
	CalendarPublisher *calendar.CalDAVPublisher
}

// NewContainer connects to the configured database and brokers. Without
// DATABASE_URL it opens the local SQLite database; a missing Redis or
// RabbitMQ falls back to in-process implementations outside production.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:         cfg,
		Logger:         logger,
		Metrics:        observability.NewInMemoryMetrics(),
		Health:         observability.NewHealthRegistry(),
		TimelinePolicy: timelinePolicy(cfg.TimelinePolicy),
	}

	conn, err := openConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver)

	if _, err := migrations.Run(ctx, conn, logger); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))

	factory := NewRepositoryFactory(conn)
	c.LayoutRepo, err = factory.LayoutRepository()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create layout repository: %w", err)
	}
	c.OutboxRepo = factory.OutboxRepository()
	c.UnitOfWork = factory.UnitOfWork()

	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initEvents(); err != nil {
		c.Close()
		return nil, err
	}

	opts := commands.Options{Cache: c.TimelineCache, Metrics: c.Metrics, Logger: logger}
	c.SubmitLayoutsHandler = commands.NewSubmitLayoutsHandler(c.LayoutRepo, c.OutboxRepo, c.UnitOfWork, opts)
	c.UpdateWeightHandler = commands.NewUpdateWeightHandler(c.LayoutRepo, c.OutboxRepo, c.UnitOfWork, opts)
	c.SetLayoutClosedHandler = commands.NewSetLayoutClosedHandler(c.LayoutRepo, c.OutboxRepo, c.UnitOfWork, opts)

	c.ListLayoutsHandler = queries.NewListLayoutsHandler(c.LayoutRepo)
	c.GetProjectLayoutsHandler = queries.NewGetProjectLayoutsHandler(c.LayoutRepo)
	c.GetWeightHistoryHandler = queries.NewGetWeightHistoryHandler(c.LayoutRepo)
	c.GetGanttHandler = queries.NewGetGanttHandler(c.LayoutRepo, c.TimelineCache, c.TimelinePolicy, logger, c.Metrics)

	if cfg.CalDAVURL != "" {
		c.CalendarPublisher = calendar.NewCalDAVPublisher(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, logger).
			WithCalendarPath(cfg.CalDAVCalendarPath)
	}

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"redis", c.RedisClient != nil,
		"rabbitmq", c.EventConsumer != nil,
	)
	return c, nil
}

func openConnection(ctx context.Context, cfg *config.Config) (database.Connection, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// initCache selects Redis when configured and reachable, else the in-memory cache.
func (c *Container) initCache(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		c.TimelineCache = cache.NewMemoryTimelineCache(cfg.TimelineCacheTTL)
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err == nil {
		client := redis.NewClient(opt)
		if err = client.Ping(ctx).Err(); err == nil {
			c.RedisClient = client
			c.TimelineCache = cache.NewRedisTimelineCache(client, cfg.TimelineCacheTTL, cache.BreakerConfig{
				FailureThreshold: convert.IntToUint32Clamped(cfg.CacheBreakerFailures),
				Timeout:          cfg.CacheBreakerTimeout,
				MaxRequests:      1,
			}, c.Logger, c.Metrics)
			c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}))
			c.Logger.Info("connected to Redis")
			return nil
		}
		_ = client.Close()
	}

	if cfg.IsProduction() {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	c.Logger.Warn("Redis not available, timeline cache is in-memory", "error", err)
	c.TimelineCache = cache.NewMemoryTimelineCache(cfg.TimelineCacheTTL)
	return nil
}

// initEvents wires the outbox processor to RabbitMQ, or to the in-process
// bus when no broker is configured. In both cases the timeline invalidator
// consumes layout events.
func (c *Container) initEvents() error {
	cfg := c.Config
	invalidator := cache.NewTimelineInvalidator(c.TimelineCache, c.Logger)

	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, c.Logger)
		if err == nil {
			c.EventPublisher = publisher
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Check))

			consumer, cerr := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
				URL:       cfg.RabbitMQURL,
				QueueName: cfg.RabbitMQQueue,
				Exchange:  cfg.RabbitMQExchange,
				Logger:    c.Logger,
			}, eventbus.NewConsumerRegistry(c.Logger))
			if cerr != nil {
				c.Logger.Warn("RabbitMQ consumer not available, remote cache invalidation disabled", "error", cerr)
			} else {
				consumer.RegisterConsumer(invalidator)
				c.EventConsumer = consumer
			}
		} else if cfg.IsProduction() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		} else {
			c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
		}
	}

	if c.EventPublisher == nil {
		bus := eventbus.NewInProcessEventBus(c.Logger)
		bus.RegisterConsumer(invalidator)
		c.InProcessEventBus = bus
		c.EventPublisher = bus
	}

	processorConfig := outbox.DefaultProcessorConfig()
	if cfg.OutboxPollInterval > 0 {
		processorConfig.PollInterval = cfg.OutboxPollInterval
	}
	if cfg.OutboxBatchSize > 0 {
		processorConfig.BatchSize = cfg.OutboxBatchSize
	}
	if cfg.OutboxMaxRetries > 0 {
		processorConfig.MaxRetries = cfg.OutboxMaxRetries
	}
	processorConfig.Retention = cfg.OutboxRetention
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, c.Logger).
		WithMetrics(c.Metrics)
	c.Health.Register("outbox", c.OutboxProcessor.HealthChecker(cfg.OutboxMaxLag))
	return nil
}

// StartBackground runs the outbox processor and, in server mode, the event
// consumer until ctx is done.
func (c *Container) StartBackground(ctx context.Context) error {
	if err := c.OutboxProcessor.Start(ctx); err != nil {
		return err
	}
	if c.EventConsumer != nil {
		go func() {
			if err := c.EventConsumer.Start(ctx); err != nil && ctx.Err() == nil {
				c.Logger.Error("event consumer stopped", "error", err)
			}
		}()
	}
	return nil
}

// FlushEvents publishes pending outbox messages once. Short-lived CLI
// commands call it instead of running the processor loop.
func (c *Container) FlushEvents(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.OutboxProcessor.ProcessOnce(ctx)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventConsumer != nil {
		if err := c.EventConsumer.Close(); err != nil {
			c.Logger.Warn("error closing event consumer", "error", err)
		}
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}

func timelinePolicy(p config.TimelinePolicy) ganttDomain.Policy {
	return ganttDomain.Policy{
		DayCalendarDays: p.DayCalendarDays,
		Weeks:           p.Weeks,
		Months:          p.Months,
		Quarters:        p.Quarters,
		HalfYears:       p.HalfYears,
	}
}
