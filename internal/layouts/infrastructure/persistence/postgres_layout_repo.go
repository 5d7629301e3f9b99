package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database"
)

// PostgresLayoutRepository implements domain.Repository using PostgreSQL.
type PostgresLayoutRepository struct {
	conn database.Connection
}

// NewPostgresLayoutRepository creates a new PostgreSQL layout repository.
func NewPostgresLayoutRepository(conn database.Connection) *PostgresLayoutRepository {
	return &PostgresLayoutRepository{conn: conn}
}

// layoutRow represents a database row for layouts.
type layoutRow struct {
	ProjectID                   string
	IPName                      string
	Designer                    string
	LayoutOwner                 string
	SchematicFreeze             *time.Time
	LVSClean                    *time.Time
	LayoutLeaderSchematicFreeze *time.Time
	LayoutLeaderLVSClean        *time.Time
	PlannedMandays              int
	ReworkNote                  string
	LayoutClosed                bool
	Reopened                    bool
	Version                     int
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// Save persists a task to the database.
func (r *PostgresLayoutRepository) Save(ctx context.Context, t *domain.Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO layouts (` + layoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, NOW())
		ON CONFLICT (project_id, ip_name) DO UPDATE SET
			designer = EXCLUDED.designer,
			layout_owner = EXCLUDED.layout_owner,
			schematic_freeze = EXCLUDED.schematic_freeze,
			lvs_clean = EXCLUDED.lvs_clean,
			layout_leader_schematic_freeze = EXCLUDED.layout_leader_schematic_freeze,
			layout_leader_lvs_clean = EXCLUDED.layout_leader_lvs_clean,
			planned_mandays = EXCLUDED.planned_mandays,
			rework_note = EXCLUDED.rework_note,
			layout_closed = EXCLUDED.layout_closed,
			reopened = EXCLUDED.reopened,
			version = layouts.version + 1,
			updated_at = NOW()
		RETURNING version, created_at, updated_at
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		t.ProjectID,
		t.IPName,
		t.Designer,
		t.LayoutOwner,
		t.SchematicFreeze,
		t.LVSClean,
		t.LayoutLeaderSchematicFreeze,
		t.LayoutLeaderLVSClean,
		t.PlannedMandays,
		t.ReworkNote,
		t.LayoutClosed,
		t.Reopened,
		t.CreatedAt,
	).Scan(&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save layout %s: %w", t.Key(), err)
	}
	return nil
}

// FindByKey retrieves a task by its key.
func (r *PostgresLayoutRepository) FindByKey(ctx context.Context, key domain.Key) (domain.Task, error) {
	query := `SELECT ` + layoutColumns + ` FROM layouts WHERE project_id = $1 AND ip_name = $2`

	var row layoutRow
	exec := database.ExecutorFromContext(ctx, r.conn)
	if err := scanLayoutRow(exec.QueryRow(ctx, query, key.ProjectID, key.IPName), &row); err != nil {
		if database.IsNoRows(err) {
			return domain.Task{}, domain.ErrLayoutNotFound
		}
		return domain.Task{}, fmt.Errorf("find layout %s: %w", key, err)
	}

	t := rowToTask(row)
	weights, err := r.WeightHistory(ctx, key, "")
	if err != nil {
		return domain.Task{}, err
	}
	t.WeeklyWeights = weights
	return t, nil
}

// FindByProject retrieves all tasks for a project.
func (r *PostgresLayoutRepository) FindByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	tasks, err := r.queryLayouts(ctx,
		`SELECT `+layoutColumns+` FROM layouts WHERE project_id = $1 ORDER BY ip_name`, projectID)
	if err != nil {
		return nil, err
	}
	weights, err := r.queryWeights(ctx,
		`SELECT `+weightColumns+` FROM layout_weekly_weights WHERE project_id = $1 ORDER BY ip_name, week, version, id`, projectID)
	if err != nil {
		return nil, err
	}
	return attachWeights(tasks, weights), nil
}

// FindAll retrieves every task.
func (r *PostgresLayoutRepository) FindAll(ctx context.Context) ([]domain.Task, error) {
	tasks, err := r.queryLayouts(ctx,
		`SELECT `+layoutColumns+` FROM layouts ORDER BY project_id, ip_name`)
	if err != nil {
		return nil, err
	}
	weights, err := r.queryWeights(ctx,
		`SELECT `+weightColumns+` FROM layout_weekly_weights ORDER BY project_id, ip_name, week, version, id`)
	if err != nil {
		return nil, err
	}
	return attachWeights(tasks, weights), nil
}

// AppendWeight inserts a weight history entry. The insert is skipped when
// the layout does not exist.
func (r *PostgresLayoutRepository) AppendWeight(ctx context.Context, key domain.Key, w domain.WeeklyWeight) error {
	query := `
		INSERT INTO layout_weekly_weights (` + weightColumns + `)
		SELECT project_id, ip_name, $3, $4, $5, $6, $7, $8
		FROM layouts
		WHERE project_id = $1 AND ip_name = $2
	`
	updatedAt := w.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		key.ProjectID, key.IPName, w.Week, w.Value, w.Version, w.Role, w.UpdatedBy, updatedAt)
	if err != nil {
		return fmt.Errorf("append weight %s %s: %w", key, w.Week, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrLayoutNotFound
	}
	return nil
}

// WeightHistory lists weight entries ordered by week and version.
func (r *PostgresLayoutRepository) WeightHistory(ctx context.Context, key domain.Key, week string) ([]domain.WeeklyWeight, error) {
	query := `SELECT ` + weightColumns + ` FROM layout_weekly_weights WHERE project_id = $1 AND ip_name = $2`
	args := []any{key.ProjectID, key.IPName}
	if week != "" {
		query += ` AND week = $3`
		args = append(args, week)
	}
	query += ` ORDER BY week, version, id`

	rows, err := r.queryWeights(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	weights := make([]domain.WeeklyWeight, 0, len(rows))
	for _, row := range rows {
		weights = append(weights, row.weight)
	}
	return weights, nil
}

func (r *PostgresLayoutRepository) queryLayouts(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query layouts: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var row layoutRow
		if err := scanLayoutRow(rows, &row); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		tasks = append(tasks, rowToTask(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *PostgresLayoutRepository) queryWeights(ctx context.Context, query string, args ...any) ([]weightRow, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weights: %w", err)
	}
	defer rows.Close()

	var out []weightRow
	for rows.Next() {
		var row weightRow
		if err := rows.Scan(
			&row.key.ProjectID,
			&row.key.IPName,
			&row.weight.Week,
			&row.weight.Value,
			&row.weight.Version,
			&row.weight.Role,
			&row.weight.UpdatedBy,
			&row.weight.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		row.weight.UpdatedAt = row.weight.UpdatedAt.UTC()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanLayoutRow(src database.Row, row *layoutRow) error {
	return src.Scan(
		&row.ProjectID,
		&row.IPName,
		&row.Designer,
		&row.LayoutOwner,
		&row.SchematicFreeze,
		&row.LVSClean,
		&row.LayoutLeaderSchematicFreeze,
		&row.LayoutLeaderLVSClean,
		&row.PlannedMandays,
		&row.ReworkNote,
		&row.LayoutClosed,
		&row.Reopened,
		&row.Version,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
}

func rowToTask(row layoutRow) domain.Task {
	return domain.Task{
		ProjectID:                   row.ProjectID,
		IPName:                      row.IPName,
		Designer:                    row.Designer,
		LayoutOwner:                 row.LayoutOwner,
		SchematicFreeze:             utcDate(row.SchematicFreeze),
		LVSClean:                    utcDate(row.LVSClean),
		LayoutLeaderSchematicFreeze: utcDate(row.LayoutLeaderSchematicFreeze),
		LayoutLeaderLVSClean:        utcDate(row.LayoutLeaderLVSClean),
		PlannedMandays:              row.PlannedMandays,
		ReworkNote:                  row.ReworkNote,
		LayoutClosed:                row.LayoutClosed,
		Reopened:                    row.Reopened,
		Version:                     row.Version,
		CreatedAt:                   row.CreatedAt.UTC(),
		UpdatedAt:                   row.UpdatedAt.UTC(),
	}
}

func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.DateOf(*t)
	return &d
}
