package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ameeeetster/iga-risk-engine/internal/api/rest"
	"github.com/ameeeetster/iga-risk-engine/internal/infrastructure/cache"
	"github.com/ameeeetster/iga-risk-engine/internal/infrastructure/config"
	"github.com/ameeeetster/iga-risk-engine/internal/infrastructure/database"
	"github.com/ameeeetster/iga-risk-engine/internal/infrastructure/telemetry"
	"github.com/ameeeetster/iga-risk-engine/internal/metrics"
	"github.com/ameeeetster/iga-risk-engine/internal/service/anomalydetect"
	"github.com/ameeeetster/iga-risk-engine/internal/service/orgstats"
	"github.com/ameeeetster/iga-risk-engine/internal/service/recommend"
	"github.com/ameeeetster/iga-risk-engine/internal/service/riskscoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to set up logger: %v", err)
	}

	zapLogger, err := telemetry.SetupZapLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up zap logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	telCfg := telemetry.DefaultConfig()
	telCfg.ServiceVersion = cfg.Version
	telCfg.Environment = cfg.Environment
	provider, err := telemetry.Setup(ctx, telCfg)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("failed to shut down telemetry", "error", err)
		}
	}()

	registry, err := metrics.NewRegistry("iga-risk-engine")
	if err != nil {
		log.Fatalf("failed to create metrics registry: %v", err)
	}

	pool, err := database.NewConnectionPool(&cfg.Database, zapLogger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()
	registry.SetDBPoolSize(int64(cfg.Database.MaxOpenConns))

	factStore := database.NewFactStore(pool.Pool())

	healthDeps := map[string]rest.Pinger{
		"database": rest.PingerFunc(pool.Pool().Ping),
	}

	var assessmentCache riskscoring.AssessmentCache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(&cfg.Redis, zapLogger)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisCache.Close()
		assessmentCache = cache.NewAssessmentCache(redisCache, zapLogger)
		healthDeps["redis"] = rest.PingerFunc(func(ctx context.Context) error {
			_, err := redisCache.Exists(ctx, "healthz")
			return err
		})
	}

	scoring := riskscoring.NewService(factStore, assessmentCache, registry, cfg.Scoring.CacheTTL)
	detector := anomalydetect.NewService(factStore, factStore, zapLogger, registry, cfg.Detection.SweepWorkers)
	recommender := recommend.NewService(factStore, zapLogger, registry)
	aggregator := orgstats.NewService(factStore, scoring, zapLogger)

	handler := rest.NewHandler(scoring, detector, recommender, aggregator,
		rest.NewHealthService(healthDeps), logger)
	server := rest.NewServer(cfg, handler, registry, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
