package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	sharedApplication "github.com/felixgeelhaar/layoutrack/internal/shared/application"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// LayoutRow is one submitted grid row. Dates are YYYY-MM-DD strings; an
// empty string clears the date. Nil pointers leave the stored value alone.
type LayoutRow struct {
	IPName                      string
	Designer                    string
	LayoutOwner                 string
	SchematicFreeze             string
	LVSClean                    string
	LayoutLeaderSchematicFreeze string
	LayoutLeaderLVSClean        string
	PlannedMandays              *int
	ReworkNote                  string
	LayoutClosed                *bool
}

// SubmitLayoutsCommand upserts a batch of rows for one project.
type SubmitLayoutsCommand struct {
	ProjectID   string
	Rows        []LayoutRow
	SubmittedBy string
}

// CommandName implements application.Command.
func (SubmitLayoutsCommand) CommandName() string { return "layouts.submit" }

// RowError reports why a submitted row was rejected.
type RowError struct {
	Index   int    `json:"index"`
	IPName  string `json:"ipName"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %s", e.Index, e.IPName, e.Message)
}

// SubmitLayoutsResult lists the saved tasks and the rejected rows.
type SubmitLayoutsResult struct {
	ProjectID string
	Saved     []domain.Task
	Errors    []RowError
}

// SubmitLayoutsHandler handles the SubmitLayoutsCommand.
type SubmitLayoutsHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	opts       Options
	now        func() time.Time
}

var _ sharedApplication.CommandHandler[SubmitLayoutsCommand, SubmitLayoutsResult] = (*SubmitLayoutsHandler)(nil)

// NewSubmitLayoutsHandler creates a new SubmitLayoutsHandler.
func NewSubmitLayoutsHandler(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, opts Options) *SubmitLayoutsHandler {
	return &SubmitLayoutsHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		opts:       opts.withDefaults(),
		now:        time.Now,
	}
}

// Handle validates each row, saves the valid ones and collects errors for the
// rest. A repository failure aborts the whole batch.
func (h *SubmitLayoutsHandler) Handle(ctx context.Context, cmd SubmitLayoutsCommand) (SubmitLayoutsResult, error) {
	projectID := strings.TrimSpace(cmd.ProjectID)
	if err := domain.ValidateProjectID(projectID); err != nil {
		return SubmitLayoutsResult{}, err
	}

	result, err := sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (SubmitLayoutsResult, error) {
		res := SubmitLayoutsResult{ProjectID: projectID}
		seen := make(map[string]int, len(cmd.Rows))

		for i, row := range cmd.Rows {
			ipName := strings.TrimSpace(row.IPName)
			if ipName == "" {
				res.Errors = append(res.Errors, RowError{Index: i, Message: domain.ErrEmptyIPName.Error()})
				continue
			}
			if prev, dup := seen[ipName]; dup {
				res.Errors = append(res.Errors, RowError{Index: i, IPName: ipName, Message: fmt.Sprintf("duplicate of row %d", prev)})
				continue
			}
			seen[ipName] = i

			task, err := h.apply(txCtx, domain.Key{ProjectID: projectID, IPName: ipName}, row)
			if err != nil {
				var rowErr RowError
				if errors.As(err, &rowErr) {
					rowErr.Index = i
					res.Errors = append(res.Errors, rowErr)
					continue
				}
				return SubmitLayoutsResult{}, err
			}
			if err := h.repo.Save(txCtx, &task); err != nil {
				return SubmitLayoutsResult{}, err
			}
			res.Saved = append(res.Saved, task)
		}

		if len(res.Saved) > 0 {
			names := make([]string, 0, len(res.Saved))
			for _, t := range res.Saved {
				names = append(names, t.IPName)
			}
			event := domain.NewLayoutsSubmitted(projectID, names, actorOr(txCtx, cmd.SubmittedBy))
			if err := recordEvents(txCtx, h.outboxRepo, &event); err != nil {
				return SubmitLayoutsResult{}, err
			}
		}
		return res, nil
	})
	if err != nil {
		return SubmitLayoutsResult{}, err
	}

	h.opts.Metrics.Counter(observability.MetricLayoutsSubmitted, int64(len(result.Saved)))
	h.opts.Metrics.Counter(observability.MetricLayoutsRejected, int64(len(result.Errors)))
	if len(result.Saved) > 0 {
		invalidate(ctx, h.opts)
	}
	h.opts.Logger.InfoContext(ctx, "layouts submitted",
		"project_id", projectID,
		"saved", len(result.Saved),
		"rejected", len(result.Errors),
	)
	return result, nil
}

// apply merges row into the stored task, or a new one. Validation problems
// come back as RowError.
func (h *SubmitLayoutsHandler) apply(ctx context.Context, key domain.Key, row LayoutRow) (domain.Task, error) {
	task, err := h.repo.FindByKey(ctx, key)
	switch {
	case errors.Is(err, domain.ErrLayoutNotFound):
		task = domain.Task{ProjectID: key.ProjectID, IPName: key.IPName}
	case err != nil:
		return domain.Task{}, err
	}

	dates := []struct {
		name string
		raw  string
		dst  **time.Time
	}{
		{"schematicFreeze", row.SchematicFreeze, &task.SchematicFreeze},
		{"lvsClean", row.LVSClean, &task.LVSClean},
		{"layoutLeaderSchematicFreeze", row.LayoutLeaderSchematicFreeze, &task.LayoutLeaderSchematicFreeze},
		{"layoutLeaderLvsClean", row.LayoutLeaderLVSClean, &task.LayoutLeaderLVSClean},
	}
	for _, d := range dates {
		raw := strings.TrimSpace(d.raw)
		if raw == "" {
			*d.dst = nil
			continue
		}
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			return domain.Task{}, RowError{IPName: key.IPName, Message: fmt.Sprintf("%s: %v %q", d.name, err, raw)}
		}
		*d.dst = &parsed
	}

	if row.PlannedMandays != nil {
		if *row.PlannedMandays < 0 {
			return domain.Task{}, RowError{IPName: key.IPName, Message: "plannedMandays cannot be negative"}
		}
		task.PlannedMandays = *row.PlannedMandays
	}
	// Both designer dates present: the business-day span wins.
	task.PlannedMandays = task.Mandays()

	task.Designer = strings.TrimSpace(row.Designer)
	task.LayoutOwner = strings.TrimSpace(row.LayoutOwner)
	task.ReworkNote = strings.TrimSpace(row.ReworkNote)

	now := h.now()
	if row.LayoutClosed != nil && *row.LayoutClosed != task.LayoutClosed {
		task = task.SetClosed(*row.LayoutClosed, now)
	}
	task.UpdatedAt = now.UTC()
	return task, nil
}
