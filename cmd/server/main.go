package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/config"
	"github.com/mmynk/fintrack/internal/events"
	"github.com/mmynk/fintrack/internal/handler"
	"github.com/mmynk/fintrack/internal/service"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/internal/storage/postgres"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
	"github.com/mmynk/fintrack/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		return sqlite.New(cfg.DBPath)
	}
}

func openPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		// Events are best effort; the API still works without a broker.
		logger.Warn("AMQP unavailable, transaction events disabled", "error", err)
		return events.NopPublisher{}
	}
	logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange)
	return pub
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.DBDriver)

	publisher := openPublisher(cfg, logger)
	defer publisher.Close()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	h := handler.NewHandler(
		service.NewAuthService(authenticator, tokens, logger),
		service.NewTransactionService(store, publisher, logger),
		service.NewAnalyticsService(store, cfg.AnalyticsWindowMonths, logger),
		store,
		handler.CookieConfig{Secure: cfg.CookieSecure, TTL: tokens.TTL()},
		logger,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := handler.NewRouter(h, handler.RouterOptions{
		Verifier:   tokens,
		Logger:     logger,
		Registry:   registry,
		CORSOrigin: cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
