package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/Tally/internal/api"
	"github.com/MikeSquared-Agency/Tally/internal/cache"
	"github.com/MikeSquared-Agency/Tally/internal/config"
	"github.com/MikeSquared-Agency/Tally/internal/evaluation"
	"github.com/MikeSquared-Agency/Tally/internal/hermes"
	"github.com/MikeSquared-Agency/Tally/internal/rescorer"
	"github.com/MikeSquared-Agency/Tally/internal/store"
	"github.com/MikeSquared-Agency/Tally/migrations"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	var db store.Store
	if cfg.Database.URL == "" {
		logger.Warn("no database configured, using in-memory store")
		db = store.NewMemoryStore()
	} else {
		version, err := migrations.Up(cfg.Database.URL)
		if err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("database schema up to date", "version", version)

		pg, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		db = pg
		logger.Info("connected to database")
	}
	defer db.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Score cache (optional)
	var scoreCache cache.Cache = cache.NopCache{}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("failed to connect to redis, running without score cache", "error", err)
		} else {
			scoreCache = cache.NewRedisCache(rdb, cfg.CacheTTL())
			defer rdb.Close()
			logger.Info("connected to redis", "ttl", cfg.CacheTTL())
		}
	}

	questions, err := evaluation.LoadQuestionnaire(cfg.Prequal.QuestionnairePath)
	if err != nil {
		logger.Error("failed to load questionnaire", "error", err)
		os.Exit(1)
	}

	svc := evaluation.New(db, scoreCache, hermesClient, questions, cfg, logger)

	// Rescorer
	if cfg.Scoring.RescoreEnabled {
		rs := rescorer.New(db, svc, hermesClient, cfg, logger)
		rs.Start(ctx)
		defer rs.Stop()
		rs.SetupSubscriptions()
		logger.Info("rescorer started", "interval", cfg.RescoreInterval())
	}

	// API server
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(svc, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
