package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"movie-watchlist/internal/config"
	"movie-watchlist/internal/database"
	"movie-watchlist/internal/handler"
	"movie-watchlist/internal/metrics"
	"movie-watchlist/internal/middleware"
	"movie-watchlist/internal/repository"
	"movie-watchlist/internal/router"
	"movie-watchlist/internal/security"
	"movie-watchlist/internal/service"
)

type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	db     *database.DB
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	tokens, err := security.NewTokenManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTAccessTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool, m)
	sessionRepo := repository.NewSessionRepository(pool, m)
	watchlistRepo := repository.NewWatchlistRepository(pool, m)
	auditRepo := repository.NewAuditRepository(pool, m)
	logger.Info("database ready")

	auditService := service.NewAuditService(auditRepo, logger)
	accountService := service.NewAccountService(
		userRepo,
		sessionRepo,
		security.NewPasswordHasher(security.DefaultArgon2Params),
		tokens,
		auditService,
		m,
		service.AccountOptions{EnforceSessionStatus: cfg.EnforceSessionStatus},
	)
	watchlistService := service.NewWatchlistService(watchlistRepo, auditService)

	authMiddleware := middleware.NewAuthMiddleware(accountService, m)
	appRouter := router.New(cfg, logger, authMiddleware, m, registry, router.Handlers{
		Auth:      handler.NewAuthHandler(accountService),
		User:      handler.NewUserHandler(accountService),
		Watchlist: handler.NewWatchlistHandler(watchlistService),
		Audit:     handler.NewAuditHandler(auditService),
		Docs:      handler.NewDocsHandler(cfg.DocsSpecPath),
		Health:    handler.NewHealthHandler(db),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return &App{cfg: cfg, logger: logger, server: server, db: db}, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Close() {
	a.db.Close()
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests within
// the shutdown timeout and closes the pool.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.db.Close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server starting", "addr", a.server.Addr, "env", a.cfg.Env)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("server stopped")
	return nil
}
