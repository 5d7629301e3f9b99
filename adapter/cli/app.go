package cli

import (
	"context"
	"log/slog"

	internalApp "github.com/felixgeelhaar/layoutrack/internal/app"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/commands"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/queries"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/infrastructure/calendar"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	SubmitLayoutsHandler   *commands.SubmitLayoutsHandler
	UpdateWeightHandler    *commands.UpdateWeightHandler
	SetLayoutClosedHandler *commands.SetLayoutClosedHandler

	// Query Handlers
	ListLayoutsHandler       *queries.ListLayoutsHandler
	GetProjectLayoutsHandler *queries.GetProjectLayoutsHandler
	GetWeightHistoryHandler  *queries.GetWeightHistoryHandler
	GetGanttHandler          *queries.GetGanttHandler

	LayoutRepo        domain.Repository
	CalendarPublisher *calendar.CalDAVPublisher

	container *internalApp.Container
}

// NewApp creates a new CLI application from the dependency container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		SubmitLayoutsHandler:     c.SubmitLayoutsHandler,
		UpdateWeightHandler:      c.UpdateWeightHandler,
		SetLayoutClosedHandler:   c.SetLayoutClosedHandler,
		ListLayoutsHandler:       c.ListLayoutsHandler,
		GetProjectLayoutsHandler: c.GetProjectLayoutsHandler,
		GetWeightHistoryHandler:  c.GetWeightHistoryHandler,
		GetGanttHandler:          c.GetGanttHandler,
		LayoutRepo:               c.LayoutRepo,
		CalendarPublisher:        c.CalendarPublisher,
		container:                c,
	}
}

// Container returns the container the app was built from.
func (a *App) Container() *internalApp.Container {
	return a.container
}

// Health reports the health of the wired components.
func (a *App) Health(ctx context.Context) observability.OverallHealth {
	return a.container.Health.GetOverallHealth(ctx)
}

// FlushEvents publishes the events recorded by a write command. A failure is
// logged only; the outbox keeps the messages for the next run.
func (a *App) FlushEvents(ctx context.Context) {
	if a.container == nil {
		return
	}
	if err := a.container.FlushEvents(ctx); err != nil {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		l.Warn("failed to publish pending events", "error", err)
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
