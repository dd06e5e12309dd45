package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medsupply/orderportal/internal/config"
	"github.com/medsupply/orderportal/internal/domain/customer"
	"github.com/medsupply/orderportal/internal/domain/order"
	"github.com/medsupply/orderportal/internal/domain/site"
	"github.com/medsupply/orderportal/internal/platform/audit"
	"github.com/medsupply/orderportal/internal/platform/db"
	"github.com/medsupply/orderportal/internal/platform/middleware"
	"github.com/medsupply/orderportal/internal/platform/session"
	"github.com/medsupply/orderportal/internal/seed"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-server",
		Short: "Order portal API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo dataset into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// repositories bundles the storage layer so memory mode and Postgres mode
// wire identically above it.
type repositories struct {
	customers customer.Repository
	sites     site.Repository
	orders    order.Repository
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	var repos repositories
	var pgPool *pgxpool.Pool
	if cfg.MemoryMode {
		repos = repositories{
			customers: customer.NewMemoryRepo(),
			sites:     site.NewMemoryRepo(),
			orders:    order.NewMemoryRepo(),
		}
		if err := seed.Apply(ctx, repos.customers, repos.sites, repos.orders); err != nil {
			logger.Fatal().Err(err).Msg("seeding demo data failed")
		}
		logger.Info().Msg("memory mode: demo dataset loaded")
	} else {
		p, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer p.Close()
		if err := db.Migrate(ctx, p); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("connected to database")
		pgPool = p
		repos = repositories{
			customers: customer.NewPGRepo(p),
			sites:     site.NewPGRepo(p),
			orders:    order.NewPGRepo(p),
		}
	}

	// Audit trail: structured log always, database sink when configured.
	sinks := []audit.Sink{audit.NewLogSink(logger)}
	if cfg.AuditToDatabase && pgPool != nil {
		sinks = append(sinks, audit.NewPostgresSink(pgPool))
	}
	auditLogger := audit.NewLogger(logger, sinks...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if pgPool != nil {
		e.GET("/health/db", db.HealthHandler(pgPool))
	}

	apiV1 := e.Group("/api/v1",
		session.Middleware(session.MiddlewareConfig{SigningKey: cfg.SigningKey()}),
		middleware.ImpersonationAudit(auditLogger),
	)

	session.NewHandler(session.NewManager(auditLogger)).Register(apiV1)
	order.NewHandler(order.NewService(repos.orders, auditLogger)).Register(apiV1)
	site.NewHandler(site.NewService(repos.sites)).Register(apiV1)
	customer.NewHandler(customer.NewService(repos.customers)).Register(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	auditLogger.Close()
	logger.Info().Msg("server stopped")
	return nil
}

func runSeed() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if cfg.MemoryMode {
		logger.Info().Msg("memory mode seeds itself at startup; nothing to do")
		return nil
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	if err := seed.Apply(ctx,
		customer.NewPGRepo(pool),
		site.NewPGRepo(pool),
		order.NewPGRepo(pool),
	); err != nil {
		return err
	}
	logger.Info().Msg("demo dataset loaded")
	return nil
}
