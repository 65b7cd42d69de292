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

	"github.com/hibiken/asynq"

	"github.com/inkwell-books/inkwell/internal/app"
	"github.com/inkwell-books/inkwell/internal/auth"
	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/observability"
	"github.com/inkwell-books/inkwell/internal/orders"
	"github.com/inkwell-books/inkwell/internal/platform/cache"
	"github.com/inkwell-books/inkwell/internal/platform/db"
	"github.com/inkwell-books/inkwell/internal/shared"
	"github.com/inkwell-books/inkwell/internal/subscription"
	"github.com/inkwell-books/inkwell/internal/users"
	"github.com/inkwell-books/inkwell/jobs"
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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, redisClient)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}
	authzMiddleware := authz.Middleware{Logger: logger}

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, authzMiddleware)

	subscriptionRepo := subscription.NewRepository(pool)
	subscriptionService := subscription.NewService(subscriptionRepo, auditLogger)
	subscriptionHandler := subscription.NewHandler(logger, subscriptionService, authzMiddleware)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, auditLogger)
	ordersHandler := orders.NewHandler(logger, ordersService, authzMiddleware)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	jobHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthMiddleware:      authMiddleware,
		AuthzMiddleware:     authzMiddleware,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		SubscriptionHandler: subscriptionHandler,
		OrdersHandler:       ordersHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
