package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridianbank/meridian-core/internal/app"
	"github.com/meridianbank/meridian-core/internal/engine"
	"github.com/meridianbank/meridian-core/internal/ledger"
	"github.com/meridianbank/meridian-core/internal/observability"
	"github.com/meridianbank/meridian-core/internal/platform/cache"
	"github.com/meridianbank/meridian-core/internal/platform/db"
	"github.com/meridianbank/meridian-core/internal/policy"
	"github.com/meridianbank/meridian-core/internal/reporting"
	"github.com/meridianbank/meridian-core/internal/shared"
	"github.com/meridianbank/meridian-core/internal/txlog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
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

	maxPerTransfer, err := cfg.MaxPerTransferAmount()
	if err != nil {
		logger.Error("parse max per transfer", slog.Any("error", err))
		os.Exit(1)
	}
	dailyCap, err := cfg.DailyTransferCapAmount()
	if err != nil {
		logger.Error("parse daily transfer cap", slog.Any("error", err))
		os.Exit(1)
	}

	clock := shared.SystemClock{}
	limits := policy.NewFixed(maxPerTransfer, dailyCap, cfg.ReversalWindow)
	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
	metrics := observability.NewMetrics()

	accountRepo := ledger.NewRepository(pool)
	accountService := ledger.NewService(accountRepo, auditLogger, logger)

	txlogRepo := txlog.NewRepository(pool)

	engineStore := engine.NewPgStore(pool)
	engineService := engine.NewService(engineStore, limits, clock, logger)

	reportingCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)
	reportingService := reporting.NewService(reporting.NewRepository(pool), reportingCache, clock)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		EngineHandler:    engine.NewHandler(logger, engineService, idempotency),
		AccountsHandler:  ledger.NewHandler(logger, accountService),
		TxLogHandler:     txlog.NewHandler(logger, txlogRepo),
		ReportingHandler: reporting.NewHandler(logger, reportingService),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("meridian core listening", slog.String("addr", cfg.AppAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
