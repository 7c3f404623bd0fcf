package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nivra-platform/nivra-core/internal/app"
	"github.com/nivra-platform/nivra-core/internal/platform/db"
	"github.com/nivra-platform/nivra-core/internal/shared"
	"github.com/nivra-platform/nivra-core/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	maintenance := jobs.NewMaintenanceJob(shared.NewAuditLogger(pool), shared.NewIdempotencyStore(pool), logger)

	auditTask, err := jobs.NewAuditRetentionTask(cfg.AuditRetention)
	if err != nil {
		logger.Error("build audit retention task", slog.Any("error", err))
		os.Exit(1)
	}
	idempotencyTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build idempotency cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditRetention, Handler: maintenance.HandleAuditRetention},
			{Type: jobs.TaskIdempotencyCleanup, Handler: maintenance.HandleIdempotencyCleanup},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 2 * * *", Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 2 * * *", Task: idempotencyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
