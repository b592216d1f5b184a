package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"fbmp/internal/config"
	"fbmp/internal/database/postgresql"
	"fbmp/internal/database/postgrest"
	"fbmp/internal/events"
	"fbmp/internal/store"
	"fbmp/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No config means no env; log with the default shape before exiting.
		slog.New(telemetry.NewTraceHandler(slog.NewJSONHandler(os.Stderr, nil))).
			Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.Env, os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		slog.Error("Failed to initialize tracer", "error", err)
		os.Exit(1)
	}

	slog.Info("Connecting to listings store", "url", redact(cfg.Store.URL))
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("Failed to open listings store", "error", err)
		os.Exit(1)
	}

	var eventBus events.Bus = events.NopBus{}
	if cfg.Events.NATSEndpoint != "" {
		slog.Info("Connecting to event bus", "endpoint", cfg.Events.NATSEndpoint)
		natsBus, err := events.NewNATSBus(cfg.Events, logger)
		if err != nil {
			slog.Error("Failed to initialize event bus", "error", err)
			os.Exit(1)
		}
		eventBus = natsBus
	}

	app := &application{
		config:         cfg,
		store:          st,
		eventBus:       eventBus,
		logger:         logger,
		metrics:        telemetry.NewMetrics(),
		shutdownTracer: shutdownTracer,
	}

	if err := app.run(app.mount()); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

// openStore picks the backend from the store URL scheme.
func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		pool, err := postgresql.NewPool(ctx, cfg.URL, cfg.Key)
		if err != nil {
			return nil, err
		}
		return postgresql.NewStore(pool), nil
	case "http", "https":
		return postgrest.NewStore(cfg.URL, cfg.Key, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported store url scheme %q", u.Scheme)
	}
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
