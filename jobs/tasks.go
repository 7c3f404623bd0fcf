package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention prunes audit log entries past the retention window.
	TaskAuditRetention = "maintenance:audit_retention"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// RetentionPayload carries the retention window for cleanup tasks.
type RetentionPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewAuditRetentionTask constructs an audit retention task.
func NewAuditRetentionTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(RetentionPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// NewIdempotencyCleanupTask constructs an idempotency cleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(RetentionPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// MaintenanceJob runs periodic retention cleanups.
type MaintenanceJob struct {
	audit       *shared.AuditLogger
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
}

// NewMaintenanceJob constructs a MaintenanceJob.
func NewMaintenanceJob(audit *shared.AuditLogger, idempotency *shared.IdempotencyStore, logger *slog.Logger) *MaintenanceJob {
	return &MaintenanceJob{audit: audit, idempotency: idempotency, logger: logger}
}

// HandleAuditRetention processes TaskAuditRetention tasks.
func (j *MaintenanceJob) HandleAuditRetention(ctx context.Context, t *asynq.Task) error {
	var payload RetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.audit.Cleanup(ctx, payload.OlderThan); err != nil {
		j.logger.Error("audit retention", slog.Any("error", err))
		return err
	}
	j.logger.Info("audit retention complete", slog.Duration("older_than", payload.OlderThan))
	return nil
}

// HandleIdempotencyCleanup processes TaskIdempotencyCleanup tasks.
func (j *MaintenanceJob) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) error {
	var payload RetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.idempotency.Cleanup(ctx, payload.OlderThan); err != nil {
		j.logger.Error("idempotency cleanup", slog.Any("error", err))
		return err
	}
	j.logger.Info("idempotency cleanup complete", slog.Duration("older_than", payload.OlderThan))
	return nil
}
