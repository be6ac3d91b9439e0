// Upsell server - post-purchase offer resolution and changeset signing
// for a hosted commerce platform. Designed for Cloud Run deployment with
// stateless operation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"upsell-server/internal/auth"
	"upsell-server/internal/catalog"
	"upsell-server/internal/changeset"
	"upsell-server/internal/config"
	"upsell-server/internal/events"
	"upsell-server/internal/handler"
	"upsell-server/internal/middleware"
	"upsell-server/internal/offer"
	"upsell-server/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Bool("redis", cfg.RedisAddr != ""),
		slog.Bool("kafka", len(cfg.KafkaBrokers) > 0),
	)

	// Session store: Redis when configured, in-memory for development
	sessions, closeSessions, err := createSessionStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	defer closeSessions()

	// Event publisher: Kafka when configured, otherwise discard
	publisher := createPublisher(cfg, logger)
	defer publisher.Close()

	// Offer resolver over the platform catalog API
	resolver := offer.NewResolver(offer.Config{
		Source:        catalog.New(catalog.Config{APIVersion: cfg.App.CatalogAPIVersion}),
		ShippingPrice: cfg.App.ShippingPrice,
		ShippingTitle: cfg.App.ShippingTitle,
	})

	// Changeset signing. A bad secret fails here, at startup.
	signer, err := changeset.NewTokenSigner(cfg.App.APIKey, cfg.App.APISecret)
	if err != nil {
		return fmt.Errorf("creating signer: %w", err)
	}
	signService := changeset.NewService(sessions, resolver, signer, logger)

	// Session token verification for extension requests
	verifier, err := auth.NewVerifier(cfg.App.APIKey, cfg.App.APISecret)
	if err != nil {
		return fmt.Errorf("creating verifier: %w", err)
	}

	// Setup routes
	h := handler.New(resolver, signService, sessions, publisher, cfg.App.APISecret, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, middleware.Auth(verifier, logger))

	// Apply middleware chain: recovery → logging → cors → handler
	// Recovery must be outermost to catch panics from logging middleware
	// CORS must run before auth so preflights never need a token
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.CORS(),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// createSessionStore picks the session backend from configuration.
// The returned func releases the store's resources on shutdown.
func createSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, sessions are in-memory and lost on restart")
		return session.NewMemoryStore(), func() {}, nil
	}

	store, err := session.NewRedisStore(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("session store connected", slog.String("redis_addr", cfg.RedisAddr))
	return store, func() { store.Close() }, nil
}

// createPublisher picks the event backend from configuration.
func createPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NoopPublisher{}
	}
	logger.Info("event publisher configured",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic", cfg.KafkaTopic))
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
