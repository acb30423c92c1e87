package insight

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// AuditEntry records one analysis attempt for traceability: what went into
// the model, what came back, and how long it took.
type AuditEntry struct {
	ID        int64           `json:"id,omitempty"`
	PostID    string          `json:"post_id"`
	TaskType  string          `json:"task_type"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output"`
	Model     string          `json:"model,omitempty"`
	LatencyMS int64           `json:"latency_ms"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditLog persists analysis audit entries.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// InMemoryAuditLog is an in-memory AuditLog for testing. Thread-safe.
type InMemoryAuditLog struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

// NewInMemoryAuditLog creates an empty in-memory audit log.
func NewInMemoryAuditLog() *InMemoryAuditLog {
	return &InMemoryAuditLog{}
}

// Record stores an audit entry.
func (l *InMemoryAuditLog) Record(_ context.Context, entry AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of all recorded entries (for testing).
func (l *InMemoryAuditLog) Entries() []AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]AuditEntry, len(l.entries))
	copy(result, l.entries)
	return result
}

// ListByPost returns a post's audit entries, newest first.
func (l *InMemoryAuditLog) ListByPost(_ context.Context, postID string, limit int) ([]AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := []AuditEntry{}
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].PostID != postID {
			continue
		}
		result = append(result, l.entries[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// PostgresAuditLog is a PostgreSQL-backed AuditLog.
type PostgresAuditLog struct {
	db *sql.DB
}

// NewPostgresAuditLog creates a postgres-backed audit log.
func NewPostgresAuditLog(db *sql.DB) *PostgresAuditLog {
	return &PostgresAuditLog{db: db}
}

// Record stores an audit entry.
func (l *PostgresAuditLog) Record(ctx context.Context, entry AuditEntry) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO llm_audit_logs (post_id, task_type, input, output, model, latency_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NOW())`,
		entry.PostID, entry.TaskType, []byte(entry.Input), []byte(entry.Output),
		entry.Model, entry.LatencyMS, entry.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListByPost returns a post's audit entries, newest first.
func (l *PostgresAuditLog) ListByPost(ctx context.Context, postID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, post_id, task_type, input, output, COALESCE(model, ''), latency_ms, COALESCE(error, ''), created_at
		FROM llm_audit_logs
		WHERE post_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var input, output []byte
		if err := rows.Scan(&e.ID, &e.PostID, &e.TaskType, &input, &output,
			&e.Model, &e.LatencyMS, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Input = json.RawMessage(input)
		e.Output = json.RawMessage(output)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
