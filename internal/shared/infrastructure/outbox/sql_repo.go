package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database"
)

// timestampLayout is fixed-width so that text comparison orders timestamps.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

const messageColumns = `id, event_id, aggregate_type, aggregate_id, routing_key, payload, metadata,
	created_at, published_at, next_retry_at, retry_count, last_error, dead_lettered_at, dead_letter_reason`

// SQLRepository implements Repository for every registered driver. The
// outbox table keeps timestamps as UTC text in both dialects.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRepository creates a new outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

func (r *SQLRepository) q(query string) string {
	return r.conn.Driver().Rebind(query)
}

// SaveBatch stores messages. Outside a unit of work the batch gets its own
// transaction.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	query := r.q(`
		INSERT INTO outbox (event_id, aggregate_type, aggregate_id, routing_key, payload, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	return database.RunInTx(ctx, r.conn, func(ctx context.Context) error {
		exec := database.ExecutorFromContext(ctx, r.conn)
		for _, msg := range msgs {
			metadata, err := json.Marshal(msg.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata: %w", err)
			}
			if err := exec.QueryRow(ctx, query,
				msg.EventID.String(),
				msg.AggregateType,
				msg.AggregateID,
				msg.RoutingKey,
				string(msg.Payload),
				string(metadata),
				formatTime(msg.CreatedAt),
			).Scan(&msg.ID); err != nil {
				return fmt.Errorf("insert outbox message %s: %w", msg.RoutingKey, err)
			}
		}
		return nil
	})
}

// GetUnpublished retrieves messages due for publishing.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := r.q(`
		SELECT ` + messageColumns + `
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?
	`)

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, formatTime(r.now()), limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.update(ctx, `UPDATE outbox SET published_at = ? WHERE id = ?`, formatTime(r.now()), id)
}

// MarkFailed records a publish failure.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return r.update(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`,
		errMsg, formatTime(nextRetryAt), id)
}

// MarkDead marks a message as dead-lettered.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	return r.update(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`,
		formatTime(r.now()), reason, id)
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx,
		r.q(`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`),
		formatTime(r.now().Add(-olderThan)))
	if err != nil {
		return 0, fmt.Errorf("delete old outbox messages: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLRepository) update(ctx context.Context, query string, args ...any) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, r.q(query), args...)
	if err != nil {
		return fmt.Errorf("update outbox: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return database.ErrNoRows
	}
	return nil
}

func scanMessage(rows database.Rows) (*Message, error) {
	var (
		msg                                   Message
		eventID, payload, metadata, createdAt string
		publishedAt, nextRetryAt, deadAt      sql.NullString
		lastError, deadReason                 sql.NullString
	)
	if err := rows.Scan(
		&msg.ID,
		&eventID,
		&msg.AggregateType,
		&msg.AggregateID,
		&msg.RoutingKey,
		&payload,
		&metadata,
		&createdAt,
		&publishedAt,
		&nextRetryAt,
		&msg.RetryCount,
		&lastError,
		&deadAt,
		&deadReason,
	); err != nil {
		return nil, fmt.Errorf("scan outbox message: %w", err)
	}

	msg.EventID, _ = uuid.Parse(eventID)
	msg.Payload = json.RawMessage(payload)
	_ = json.Unmarshal([]byte(metadata), &msg.Metadata)
	msg.CreatedAt = parseTime(createdAt)
	msg.PublishedAt = parseNullTime(publishedAt)
	msg.NextRetryAt = parseNullTime(nextRetryAt)
	msg.DeadLetteredAt = parseNullTime(deadAt)
	if lastError.Valid {
		msg.LastError = &lastError.String
	}
	if deadReason.Valid {
		msg.DeadLetterReason = &deadReason.String
	}
	return &msg, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timestampLayout, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
