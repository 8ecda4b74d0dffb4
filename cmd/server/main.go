package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"worktyhub/backend/internal/api"
	"worktyhub/backend/internal/auth"
	"worktyhub/backend/internal/config"
	"worktyhub/backend/internal/logging"
	"worktyhub/backend/internal/mcp"
	"worktyhub/backend/internal/policy"
	"worktyhub/backend/internal/repository"
	"worktyhub/backend/internal/services"
	"worktyhub/backend/internal/tls"
)

func main() {
	ctx := context.Background()

	logger := logging.NewLogger()

	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Configuration loading failed: %v", err)
	}
	logger.Info("Configuration loaded", "environment", cfg.Environment, "addr", cfg.HTTP.Addr)

	logger.Info("Starting Workty Market Service")

	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer dbPool.Close()

	if err := repository.Migrate(ctx, dbPool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	logger.Info("Database connected")

	stores := repository.NewPostgresStores(dbPool)

	engine := policy.NewEngine(stores.Policy, logger)
	if err := engine.Load(ctx); err != nil {
		log.Fatalf("Policy load failed: %v", err)
	}

	cloner := services.NewPropertyCloner(stores.Properties)
	purchases := services.NewPurchaseService(stores, cloner, logger)
	composer := services.NewComposer(stores, cloner, logger)
	registry := services.NewRegistry(stores, services.NopExecutionHook{}, logger)

	logger.Info("Service layer initialized")

	otel.SetTextMapPropagator(propagation.TraceContext{})

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	authz, err := auth.New(ctx, cfg, stores.Accounts, logger)
	if err != nil {
		log.Fatalf("Auth initialization failed: %v", err)
	}

	e.GET("/login", authz.LoginHandler)
	e.GET("/auth/callback", authz.CallbackHandler)
	e.GET("/logout", authz.LogoutHandler)

	apiHandler := api.NewServer(purchases, composer, registry, engine, logger)
	e.GET("/health", apiHandler.HandleHealth)

	apiGroup := e.Group("/api/v1")
	apiGroup.Use(otelecho.Middleware("workty-market"))
	apiGroup.Use(authz.RequireAccount)
	apiHandler.Register(apiGroup)

	logger.Info("REST API handlers mounted")

	mcpServer := mcp.NewServer(purchases, registry, engine)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	addr := cfg.HTTP.Addr
	if cfg.TLS.Enable {
		addr = ":8443"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", addr, "tls", cfg.TLS.Enable)
		if cfg.TLS.Enable {
			if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
				logger.Error("TLS enabled but cert/key file not provided")
				serverErrors <- server.ListenAndServe()
				return
			}
			if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) {
				if len(cfg.TLS.Hostnames) > 0 {
					if err := tls.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames); err != nil {
						logger.Error("failed to generate self-signed cert", "error", err)
					}
				}
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
