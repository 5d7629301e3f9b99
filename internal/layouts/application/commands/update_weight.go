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

// UpdateWeightCommand records a layout owner's weekly weight for a task.
type UpdateWeightCommand struct {
	ProjectID string
	IPName    string
	Week      string
	Value     float64
	UpdatedBy string
	Role      string
}

// CommandName implements application.Command.
func (UpdateWeightCommand) CommandName() string { return "layouts.update_weight" }

// UpdateWeightResult holds the new entry and the week's full history.
type UpdateWeightResult struct {
	Task    domain.Task
	Weight  domain.WeeklyWeight
	History []domain.WeeklyWeight
}

// UpdateWeightHandler handles the UpdateWeightCommand.
type UpdateWeightHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	opts       Options
	now        func() time.Time
}

var _ sharedApplication.CommandHandler[UpdateWeightCommand, UpdateWeightResult] = (*UpdateWeightHandler)(nil)

// NewUpdateWeightHandler creates a new UpdateWeightHandler.
func NewUpdateWeightHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, opts Options) *UpdateWeightHandler {
	return &UpdateWeightHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		opts:       opts.withDefaults(),
		now:        time.Now,
	}
}

// Handle appends a new weight version. Earlier versions stay in history.
func (h *UpdateWeightHandler) Handle(ctx context.Context, cmd UpdateWeightCommand) (UpdateWeightResult, error) {
	key := domain.Key{ProjectID: strings.TrimSpace(cmd.ProjectID), IPName: strings.TrimSpace(cmd.IPName)}
	if err := key.Validate(); err != nil {
		return UpdateWeightResult{}, err
	}
	week, err := domain.ParseISOWeek(cmd.Week)
	if err != nil {
		return UpdateWeightResult{}, err
	}
	if err := domain.ValidateWeightValue(cmd.Value); err != nil {
		return UpdateWeightResult{}, err
	}

	result, err := sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (UpdateWeightResult, error) {
		task, err := h.repo.FindByKey(txCtx, key)
		if err != nil {
			return UpdateWeightResult{}, err
		}

		now := h.now()
		updated, entry, err := domain.WithWeight(task, week, cmd.Value, now, actorOr(txCtx, cmd.UpdatedBy), cmd.Role)
		if err != nil {
			return UpdateWeightResult{}, err
		}
		if err := h.repo.AppendWeight(txCtx, key, entry); err != nil {
			return UpdateWeightResult{}, err
		}
		updated.UpdatedAt = now.UTC()
		if err := h.repo.Save(txCtx, &updated); err != nil {
			return UpdateWeightResult{}, err
		}

		event := domain.NewWeightUpdated(key, entry)
		if err := recordEvents(txCtx, h.outboxRepo, &event); err != nil {
			return UpdateWeightResult{}, err
		}

		return UpdateWeightResult{
			Task:    updated,
			Weight:  entry,
			History: domain.WeightHistory(updated.WeeklyWeights, week),
		}, nil
	})
	if err != nil {
		return UpdateWeightResult{}, err
	}

	h.opts.Metrics.Counter(observability.MetricWeightsUpdated, 1)
	invalidate(ctx, h.opts)
	h.opts.Logger.InfoContext(ctx, "weight updated",
		"key", key.String(),
		"week", result.Weight.Week,
		"value", result.Weight.Value,
		"version", result.Weight.Version,
	)
	return result, nil
}
