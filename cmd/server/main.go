package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/crm/api"
	dbfs "github.com/garnizeh/crm/db"
	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/internal/jobs"
	"github.com/garnizeh/crm/internal/repository/sqlite"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config YAML file")
		envFile    = flag.String("env", ".env", "Path to .env file")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	if err := config.LoadEnvFile(*envFile); err != nil {
		logger.Error("failed to load env file", "err", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	logger.Info("starting CRM server", "version", version, "build_time", buildTime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open DB", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
			logger.Error("migration failed", "err", err)
			os.Exit(1)
		}
	}

	store := sqlite.New(database, logger)
	if cfg.AdminEmail != "" {
		created, err := api.EnsureAdmin(ctx, store, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Error("admin bootstrap failed", "err", err)
			os.Exit(1)
		}
		if created {
			logger.Info("admin user created", "email", cfg.AdminEmail)
		}
	}

	pool := jobs.NewWorkerPool(jobs.NewRepository(database), map[string]jobs.Handler{
		jobs.TypeProjectUpdateLog: jobs.UpdateLogHandler(store),
	}, logger, jobs.Options{
		Workers:      cfg.Jobs.Workers,
		PollInterval: cfg.Jobs.PollInterval,
		BaseBackoff:  cfg.Jobs.BaseBackoff,
		MaxBackoff:   cfg.Jobs.MaxBackoff,
	})
	pool.Start(ctx)
	recorder := jobs.NewChangeRecorder(pool, logger)

	handler := api.SetupRoutes(cfg, version, buildTime, store, recorder)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}
	pool.Stop()

	logger.Info("server exited")
}
