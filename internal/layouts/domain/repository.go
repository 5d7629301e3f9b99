package domain

import "context"

// Repository defines the interface for layout task persistence.
type Repository interface {
	// Save upserts the task row by key and bumps its version. Weights are
	// not written; use AppendWeight.
	Save(ctx context.Context, task *Task) error

	// FindByKey loads one task with its weights. Returns ErrLayoutNotFound.
	FindByKey(ctx context.Context, key Key) (Task, error)

	// FindByProject loads all tasks of a project ordered by IP name.
	FindByProject(ctx context.Context, projectID string) ([]Task, error)

	// FindAll loads every task ordered by project and IP name.
	FindAll(ctx context.Context) ([]Task, error)

	// AppendWeight stores a new weight history entry for the task.
	AppendWeight(ctx context.Context, key Key, weight WeeklyWeight) error

	// WeightHistory lists the weight entries of a task; an empty week returns all weeks.
	WeightHistory(ctx context.Context, key Key, week string) ([]WeeklyWeight, error)
}
