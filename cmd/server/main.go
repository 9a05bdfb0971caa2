package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/api"
	"github.com/heartguard-api/internal/auth"
	"github.com/heartguard-api/internal/classifier"
	"github.com/heartguard-api/internal/config"
	"github.com/heartguard-api/internal/database"
	"github.com/heartguard-api/internal/domain"
	"github.com/heartguard-api/internal/repository"
	"github.com/heartguard-api/internal/service"
	"github.com/heartguard-api/internal/store"
	"github.com/heartguard-api/pkg/advisory"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	logger.WithFields(logrus.Fields{
		"host":    cfg.Server.Host,
		"port":    cfg.Server.Port,
		"storage": cfg.Storage.Driver,
	}).Info("Starting HeartGuard API server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	// Select the storage backend
	records, users, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer cleanup()

	// Classifier: trained artifacts with rule-based fallback
	riskClassifier := classifier.Load(cfg.Classifier, logger)
	logger.WithField("classifier", riskClassifier.Name()).Info("Classifier ready")

	assessment := service.NewAssessmentService(riskClassifier, records, logger)

	// Advisory gateway with its reply cache
	gateway := advisory.NewGateway(
		advisory.NewGenerativeClient(cfg.Advisory),
		buildAdvisoryCache(cfg, logger),
		logger,
	)

	tokens := auth.NewTokenService(cfg.Auth)

	server := api.NewServer(cfg, assessment, users, records, gateway, tokens, logger)

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// buildStores wires the configured storage backend. SQLite is the
// default; Postgres runs migrations before serving.
func buildStores(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (domain.RecordStore, domain.UserStore, func(), error) {
	if cfg.Storage.Driver == "postgres" {
		runner, err := database.NewMigrationRunner(&cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := runner.Up(); err != nil {
			runner.Close()
			return nil, nil, nil, err
		}
		runner.Close()

		db, err := database.NewConnection(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, err
		}

		records := repository.NewRecordRepository(db.Pool, logger)
		users := repository.NewUserRepository(db.Pool, logger)
		return records, users, func() { db.Close() }, nil
	}

	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, nil, nil, err
	}
	return st, st, func() { st.Close() }, nil
}

// buildAdvisoryCache prefers Redis when configured and falls back to
// the in-process LRU.
func buildAdvisoryCache(cfg *domain.Config, logger *logrus.Logger) advisory.Cache {
	if cfg.Cache.RedisURL != "" {
		cache, err := advisory.NewRedisCache(cfg.Cache, cfg.Advisory.CacheTTL, logger)
		if err == nil {
			return cache
		}
		logger.WithError(err).Warn("Redis unavailable, using in-process advisory cache")
	}
	return advisory.NewMemoryCache(cfg.Cache.LRUSize, cfg.Advisory.CacheTTL)
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
