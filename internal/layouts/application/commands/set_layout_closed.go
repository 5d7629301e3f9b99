package commands

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	sharedApplication "github.com/felixgeelhaar/layoutrack/internal/shared/application"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// SetLayoutClosedCommand closes or reopens a layout.
type SetLayoutClosedCommand struct {
	ProjectID string
	IPName    string
	Closed    bool
}

// CommandName implements application.Command.
func (SetLayoutClosedCommand) CommandName() string { return "layouts.set_closed" }

// SetLayoutClosedHandler handles the SetLayoutClosedCommand.
type SetLayoutClosedHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	opts       Options
	now        func() time.Time
}

var _ sharedApplication.CommandHandler[SetLayoutClosedCommand, domain.Task] = (*SetLayoutClosedHandler)(nil)

// NewSetLayoutClosedHandler creates a new SetLayoutClosedHandler.
func NewSetLayoutClosedHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, opts Options) *SetLayoutClosedHandler {
	return &SetLayoutClosedHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		opts:       opts.withDefaults(),
		now:        time.Now,
	}
}

// Handle is a no-op when the task already has the requested state.
func (h *SetLayoutClosedHandler) Handle(ctx context.Context, cmd SetLayoutClosedCommand) (domain.Task, error) {
	key := domain.Key{ProjectID: strings.TrimSpace(cmd.ProjectID), IPName: strings.TrimSpace(cmd.IPName)}
	if err := key.Validate(); err != nil {
		return domain.Task{}, err
	}

	changed := false
	task, err := sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (domain.Task, error) {
		task, err := h.repo.FindByKey(txCtx, key)
		if err != nil {
			return domain.Task{}, err
		}
		if task.LayoutClosed == cmd.Closed {
			return task, nil
		}

		task = task.SetClosed(cmd.Closed, h.now())
		if err := h.repo.Save(txCtx, &task); err != nil {
			return domain.Task{}, err
		}
		event := domain.NewLayoutClosedChanged(key, cmd.Closed)
		if err := recordEvents(txCtx, h.outboxRepo, &event); err != nil {
			return domain.Task{}, err
		}
		changed = true
		return task, nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	if !changed {
		return task, nil
	}

	action := "reopened"
	if cmd.Closed {
		action = "closed"
	}
	h.opts.Metrics.Counter(observability.MetricLayoutsClosed, 1, observability.T("action", action))
	invalidate(ctx, h.opts)
	h.opts.Logger.InfoContext(ctx, "layout "+action, "key", key.String())
	return task, nil
}
