package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/contabilhub/tributo/internal"
	"github.com/contabilhub/tributo/internal/handler"
	"github.com/contabilhub/tributo/internal/middleware"
	"github.com/contabilhub/tributo/internal/postgres"
	"github.com/contabilhub/tributo/internal/router"
	"github.com/contabilhub/tributo/internal/routes"
	"github.com/contabilhub/tributo/internal/tax"
	"github.com/contabilhub/tributo/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for the application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize services
	catalogService := postgres.NewCatalogService(pool)
	simulationService := postgres.NewSimulationService(pool)

	resolver := tax.NewResolver(cfg.Tax.DefaultSimplesISSRate)
	engine := tax.NewEngine(catalogService, resolver, logger)
	logger.Info("Tax engine initialized",
		"default_simples_iss_rate", cfg.Tax.DefaultSimplesISSRate.String())

	taxMetrics := telemetry.NewTaxMetrics("tributo")
	taxHandler := handler.NewTaxHandler(engine, simulationService, taxMetrics, logger)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics("tributo")

	calcRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer calcRateLimiter.Stop()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		router.Logger(logger),
	)

	routes.RegisterTaxRoutes(r, routes.TaxDeps{
		Handler:   taxHandler,
		RateLimit: calcRateLimiter.Middleware,
	})

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		MetricsHandler: metrics.Handler(),
		HealthHandler: func(w http.ResponseWriter, req *http.Request) {
			if err := pool.Ping(req.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		},
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
