package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database"
)

// SQLiteLayoutRepository implements domain.Repository using SQLite. Dates
// are stored as YYYY-MM-DD text and timestamps as RFC 3339 text.
type SQLiteLayoutRepository struct {
	conn database.Connection
}

// NewSQLiteLayoutRepository creates a new SQLite layout repository.
func NewSQLiteLayoutRepository(conn database.Connection) *SQLiteLayoutRepository {
	return &SQLiteLayoutRepository{conn: conn}
}

// Save upserts the task row and writes back the stored version and timestamps.
func (r *SQLiteLayoutRepository) Save(ctx context.Context, t *domain.Task) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	query := `
		INSERT INTO layouts (` + layoutColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (project_id, ip_name) DO UPDATE SET
			designer = excluded.designer,
			layout_owner = excluded.layout_owner,
			schematic_freeze = excluded.schematic_freeze,
			lvs_clean = excluded.lvs_clean,
			layout_leader_schematic_freeze = excluded.layout_leader_schematic_freeze,
			layout_leader_lvs_clean = excluded.layout_leader_lvs_clean,
			planned_mandays = excluded.planned_mandays,
			rework_note = excluded.rework_note,
			layout_closed = excluded.layout_closed,
			reopened = excluded.reopened,
			version = layouts.version + 1,
			updated_at = excluded.updated_at
		RETURNING version, created_at
	`

	var createdAt string
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		t.ProjectID,
		t.IPName,
		t.Designer,
		t.LayoutOwner,
		nullDate(t.SchematicFreeze),
		nullDate(t.LVSClean),
		nullDate(t.LayoutLeaderSchematicFreeze),
		nullDate(t.LayoutLeaderLVSClean),
		t.PlannedMandays,
		t.ReworkNote,
		boolToInt(t.LayoutClosed),
		boolToInt(t.Reopened),
		formatTimestamp(t.CreatedAt),
		formatTimestamp(t.UpdatedAt),
	).Scan(&t.Version, &createdAt)
	if err != nil {
		return fmt.Errorf("save layout %s: %w", t.Key(), err)
	}
	t.CreatedAt = parseTimestamp(createdAt)
	return nil
}

// FindByKey loads one task with its weights.
func (r *SQLiteLayoutRepository) FindByKey(ctx context.Context, key domain.Key) (domain.Task, error) {
	query := `SELECT ` + layoutColumns + ` FROM layouts WHERE project_id = ? AND ip_name = ?`

	exec := database.ExecutorFromContext(ctx, r.conn)
	t, err := scanSQLiteLayout(exec.QueryRow(ctx, query, key.ProjectID, key.IPName))
	if err != nil {
		if database.IsNoRows(err) {
			return domain.Task{}, domain.ErrLayoutNotFound
		}
		return domain.Task{}, fmt.Errorf("find layout %s: %w", key, err)
	}

	weights, err := r.WeightHistory(ctx, key, "")
	if err != nil {
		return domain.Task{}, err
	}
	t.WeeklyWeights = weights
	return t, nil
}

// FindByProject loads all tasks of a project ordered by IP name.
func (r *SQLiteLayoutRepository) FindByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	tasks, err := r.queryLayouts(ctx,
		`SELECT `+layoutColumns+` FROM layouts WHERE project_id = ? ORDER BY ip_name`, projectID)
	if err != nil {
		return nil, err
	}
	weights, err := r.queryWeights(ctx,
		`SELECT `+weightColumns+` FROM layout_weekly_weights WHERE project_id = ? ORDER BY ip_name, week, version, id`, projectID)
	if err != nil {
		return nil, err
	}
	return attachWeights(tasks, weights), nil
}

// FindAll loads every task ordered by project and IP name.
func (r *SQLiteLayoutRepository) FindAll(ctx context.Context) ([]domain.Task, error) {
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

// AppendWeight stores a new weight history entry.
func (r *SQLiteLayoutRepository) AppendWeight(ctx context.Context, key domain.Key, w domain.WeeklyWeight) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var exists int
	if err := exec.QueryRow(ctx,
		`SELECT COUNT(*) FROM layouts WHERE project_id = ? AND ip_name = ?`,
		key.ProjectID, key.IPName,
	).Scan(&exists); err != nil {
		return fmt.Errorf("append weight %s: %w", key, err)
	}
	if exists == 0 {
		return domain.ErrLayoutNotFound
	}

	_, err := exec.Exec(ctx,
		`INSERT INTO layout_weekly_weights (`+weightColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key.ProjectID, key.IPName, w.Week, w.Value, w.Version, w.Role, w.UpdatedBy, formatTimestamp(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("append weight %s %s: %w", key, w.Week, err)
	}
	return nil
}

// WeightHistory lists weight entries ordered by week and version.
func (r *SQLiteLayoutRepository) WeightHistory(ctx context.Context, key domain.Key, week string) ([]domain.WeeklyWeight, error) {
	query := `SELECT ` + weightColumns + ` FROM layout_weekly_weights WHERE project_id = ? AND ip_name = ?`
	args := []any{key.ProjectID, key.IPName}
	if week != "" {
		query += ` AND week = ?`
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

func (r *SQLiteLayoutRepository) queryLayouts(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query layouts: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanSQLiteLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *SQLiteLayoutRepository) queryWeights(ctx context.Context, query string, args ...any) ([]weightRow, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weights: %w", err)
	}
	defer rows.Close()

	var out []weightRow
	for rows.Next() {
		var (
			row       weightRow
			updatedAt string
		)
		if err := rows.Scan(
			&row.key.ProjectID,
			&row.key.IPName,
			&row.weight.Week,
			&row.weight.Value,
			&row.weight.Version,
			&row.weight.Role,
			&row.weight.UpdatedBy,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		row.weight.UpdatedAt = parseTimestamp(updatedAt)
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanSQLiteLayout(row database.Row) (domain.Task, error) {
	var (
		t                    domain.Task
		sf, lvs, llSF, llLVS sql.NullString
		closed, reopened     int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&t.ProjectID,
		&t.IPName,
		&t.Designer,
		&t.LayoutOwner,
		&sf,
		&lvs,
		&llSF,
		&llLVS,
		&t.PlannedMandays,
		&t.ReworkNote,
		&closed,
		&reopened,
		&t.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}
	// Unparseable stored dates load as absent.
	t.SchematicFreeze = domain.OptionalDate(sf.String)
	t.LVSClean = domain.OptionalDate(lvs.String)
	t.LayoutLeaderSchematicFreeze = domain.OptionalDate(llSF.String)
	t.LayoutLeaderLVSClean = domain.OptionalDate(llLVS.String)
	t.LayoutClosed = closed != 0
	t.Reopened = reopened != 0
	t.CreatedAt = parseTimestamp(createdAt)
	t.UpdatedAt = parseTimestamp(updatedAt)
	return t, nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return domain.FormatDate(t)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
