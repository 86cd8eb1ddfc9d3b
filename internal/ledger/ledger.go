// Package ledger records webhook delivery outcomes in SQLite so operators
// can audit recent deliveries after the fact.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded webhook delivery.
type Entry struct {
	ID          string    `json:"id"`
	Event       string    `json:"event"`
	ContentType string    `json:"contentType"`
	Action      string    `json:"action,omitempty"`
	Domain      string    `json:"domain,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Paths       int       `json:"paths"`
	Tags        int       `json:"tags"`
	DurationMs  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Ledger is the SQLite-backed delivery log.
type Ledger struct {
	db *sql.DB
}

// New wraps an opened database (see storage.OpenSQLite).
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Record inserts a delivery entry. An empty ID is assigned a fresh UUID.
func (l *Ledger) Record(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
INSERT INTO webhook_log(id, event, content_type, action, domain, success, error, paths_n, tags_n, duration_ms, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, e.ID, e.Event, e.ContentType, e.Action, e.Domain, boolToInt(e.Success), e.Error,
		e.Paths, e.Tags, e.DurationMs, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("record delivery: %w", err)
	}
	return e.ID, nil
}

// Recent returns the most recent deliveries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
SELECT id, event, content_type, action, domain, success, error, paths_n, tags_n, duration_ms, created_at
FROM webhook_log
ORDER BY created_at DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var success int
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Event, &e.ContentType, &e.Action, &e.Domain,
			&success, &e.Error, &e.Paths, &e.Tags, &e.DurationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		e.Success = success != 0
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries older than the retention window.
func (l *Ledger) Prune(ctx context.Context, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	if _, err := l.db.ExecContext(ctx, `DELETE FROM webhook_log WHERE created_at < ?;`, cutoff); err != nil {
		return fmt.Errorf("prune deliveries: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
