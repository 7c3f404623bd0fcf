package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nivra-platform/nivra-core/internal/app"
	"github.com/nivra-platform/nivra-core/internal/authz"
	"github.com/nivra-platform/nivra-core/internal/permissions"
	"github.com/nivra-platform/nivra-core/internal/platform/cache"
	"github.com/nivra-platform/nivra-core/internal/platform/db"
	"github.com/nivra-platform/nivra-core/internal/roles"
	"github.com/nivra-platform/nivra-core/internal/shared"
	"github.com/nivra-platform/nivra-core/internal/societies"
	"github.com/nivra-platform/nivra-core/internal/societyadmins"
	"github.com/nivra-platform/nivra-core/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := shared.NewTokenStore(redisClient, cfg.IdentityTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	evaluator := authz.NewEvaluator(authz.NewRepository(pool))
	guard := authz.Middleware{Evaluator: evaluator, Logger: logger}

	permissionsService := permissions.NewService(permissions.NewRepository(pool))
	permissionsHandler := permissions.NewHandler(logger, permissionsService, auditLogger, guard)

	rolesService := roles.NewService(roles.NewRepository(pool))
	rolesHandler := roles.NewHandler(logger, rolesService, auditLogger, guard)

	usersService := users.NewService(users.NewRepository(pool), users.BcryptHasher{Cost: cfg.BcryptCost})
	usersHandler := users.NewHandler(logger, usersService, auditLogger, guard)

	societiesService := societies.NewService(societies.NewRepository(pool))
	societiesHandler := societies.NewHandler(logger, societiesService, auditLogger, guard)

	adminService := societyadmins.NewService(societyadmins.NewRepository(pool))
	adminHandler := societyadmins.NewHandler(logger, adminService, auditLogger, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Tokens:              tokens,
		Idempotency:         idempotencyStore,
		PermissionsHandler:  permissionsHandler,
		RolesHandler:        rolesHandler,
		UsersHandler:        usersHandler,
		SocietiesHandler:    societiesHandler,
		SocietyAdminHandler: adminHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
