package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bizvoice/console/internal/api"
	"github.com/bizvoice/console/internal/catalog"
	"github.com/bizvoice/console/internal/config"
	"github.com/bizvoice/console/internal/debuglog"
	"github.com/bizvoice/console/internal/server"
	"github.com/bizvoice/console/internal/telemetry"
	"github.com/bizvoice/console/internal/voice"
	"github.com/bizvoice/console/internal/webhook"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("biz-console", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	configPath := os.Getenv("CONSOLE_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	watcher, err := config.NewWatcher(configPath, logger)
	if err != nil {
		log.Fatalf("Failed to create config watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := watcher.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Config changes are picked up for the next request; already-built
	// components keep their construction-time settings.
	if err := watcher.Watch(ctx, func(next *config.Config) {
		logger.Info("config reloaded",
			slog.String("environment", next.Server.Environment),
			slog.String("webhook_url", next.Webhook.URL))
	}); err != nil {
		logger.Warn("config hot-reload unavailable", slog.String("error", err.Error()))
	}

	capacity := cfg.Debug.Capacity
	if capacity <= 0 {
		capacity = debuglog.DefaultCapacity
	}
	var debug debuglog.Store
	if cfg.Debug.SQLitePath != "" {
		debug, err = debuglog.NewSQLiteStore(cfg.Debug.SQLitePath, capacity)
		if err != nil {
			log.Fatalf("Failed to open debug log store: %v", err)
		}
	} else {
		debug = debuglog.NewMemoryStore(capacity)
	}
	defer func() {
		if err := debug.Close(); err != nil {
			logger.Error("failed to close debug log store", slog.String("error", err.Error()))
		}
	}()

	var notifier webhook.Sender = webhook.NewNotifier(
		cfg.Webhook.URL, cfg.Webhook.Source, cfg.Server.Environment,
		webhook.WithLogger(logger))
	if !cfg.IsProduction() {
		notifier = webhook.NewFallbackNotifier(notifier, debug, logger)
	}

	store := catalog.NewStore(
		catalog.WithNotifier(webhook.NewProductEvents(notifier)),
		catalog.WithLogger(logger))
	if !cfg.IsProduction() {
		seedCatalog(store)
	}

	var clientOpts []voice.ClientOption
	if cfg.Voice.BaseURL != "" {
		clientOpts = append(clientOpts, voice.WithBaseURL(cfg.Voice.BaseURL))
	}
	tokens := voice.NewTokenClient(cfg.Voice.APIKey, clientOpts...)
	calls := voice.NewManager(tokens, cfg.Voice.AgentID, notifier, logger)
	defer calls.Close()

	srv := server.New(cfg.Server.Port, logger)
	api.Mount(srv.Router, api.Deps{
		Store:       store,
		Calls:       calls,
		Notifier:    notifier,
		Debug:       debug,
		DebugRoutes: cfg.Debug.Enabled && !cfg.IsProduction(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("console started",
		slog.Int("port", cfg.Server.Port),
		slog.String("environment", cfg.Server.Environment),
		slog.Bool("debug_routes", cfg.Debug.Enabled && !cfg.IsProduction()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server failed", slog.String("error", err.Error()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("console shutdown complete")
}

// seedCatalog loads demo products so a fresh development instance has
// something to show. Seeding bypasses webhook notifications.
func seedCatalog(store *catalog.Store) {
	store.Seed([]catalog.Fields{
		{Name: "Business Starter Package", Description: "Onboarding toolkit for new businesses", Price: 199.99, Stock: 15, Category: "services"},
		{Name: "Premium Consultation", Description: "One-hour strategy session", Price: 299.99, Stock: 3, Category: "services"},
		{Name: "Legacy CRM License", Description: "Discontinued single-seat license", Price: 89.99, Stock: 0, Category: "software"},
	})
}
