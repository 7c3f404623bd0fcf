package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry represents a record stored in audit_logs.
type AuditEntry struct {
	ActorID  uuid.UUID
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes admin mutations into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the audit entry.
func (l *AuditLogger) Record(ctx context.Context, entry AuditEntry) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("audit entry requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ActorID, entry.Action, entry.Entity, entry.EntityID, metaJSON, at)
	return err
}

// Cleanup removes audit entries older than the retention window.
func (l *AuditLogger) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if l == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := l.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	return err
}
