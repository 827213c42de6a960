package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/config"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/database"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/handlers"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/landregistry"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/middleware"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/repositories"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/services"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/workers"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("db_host", cfg.Database.Host),
		zap.String("land_registry", cfg.LandRegistry.BaseURL))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:             cfg.Database.URL(),
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnLifetime: time.Duration(cfg.Database.ConnLifetimeMinutes) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.Database.ConnIdleMinutes) * time.Minute,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrationDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	agencyRepo := repositories.NewAgencyRepository(db)
	listingRepo := repositories.NewListingRepository(db)
	pricePaidRepo := repositories.NewPricePaidRepository(db)
	matchRepo := repositories.NewMatchRepository(db)

	// External ownership verification client
	registryClient := landregistry.NewClient(landregistry.Config{
		BaseURL:           cfg.LandRegistry.BaseURL,
		APIKey:            cfg.LandRegistry.APIKey,
		Timeout:           time.Duration(cfg.LandRegistry.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.LandRegistry.RequestsPerSecond,
	}, logger)

	// Services
	scorer := services.NewMatchScorer(cfg.Scoring)
	screener := services.NewScreeningService(listingRepo, pricePaidRepo, matchRepo, scorer, cfg.Scoring, logger)
	pool := workers.NewPool(workers.PoolConfig{MaxConcurrent: cfg.LandRegistry.MaxConcurrentLookups}, logger)
	verifier := services.NewVerificationService(matchRepo, listingRepo, registryClient, pool, cfg.Scoring, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAgenciesHandler(agencyRepo, matchRepo, logger).RegisterRoutes(mux)
	handlers.NewListingsHandler(listingRepo, agencyRepo, logger).RegisterRoutes(mux)
	handlers.NewScreeningHandler(screener, logger).RegisterRoutes(mux)
	handlers.NewVerificationHandler(verifier, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting property-eye-backend",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
