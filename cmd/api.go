package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fbmp/internal/config"
	apperrors "fbmp/internal/errors"
	"fbmp/internal/events"
	"fbmp/internal/handlers/listings"
	"fbmp/internal/store"
	"fbmp/internal/telemetry"
	"fbmp/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type application struct {
	config         *config.Config
	store          store.Store
	eventBus       events.Bus
	logger         *slog.Logger
	metrics        *telemetry.Metrics
	shutdownTracer func(context.Context) error
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(app.metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     app.config.HTTPServer.AllowedOrigins,
		AllowedMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials:   false,
		MaxAge:             300,
		OptionsPassthrough: true,
	}))
	slog.Info("Allowed origins", "origins", app.config.HTTPServer.AllowedOrigins)

	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(apperrors.Recoverer)

	r.NotFound(apperrors.NotFound)
	r.MethodNotAllowed(apperrors.MethodNotAllowed(r))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	eventHandler := events.NewEventHandler(app.eventBus, events.NewEventConfig(app.config.Events), app.logger)

	listingsService := listings.NewListingsService(app.store, app.logger, eventHandler)
	listings.NewListingsHandler(listingsService).Mount(r)
	web.NewHandler(listingsService, app.logger).Mount(r)

	return r
}

func (app *application) run(h http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.HTTPServer.Address,
		Handler:      h,
		ReadTimeout:  app.config.HTTPServer.ReadTimeout,
		WriteTimeout: app.config.HTTPServer.WriteTimeout,
		IdleTimeout:  app.config.HTTPServer.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	slog.Info("Starting server on " + srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for Interrupt Signal (Ctrl+C or Docker Stop)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
	case <-quit:
	}

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), app.config.HTTPServer.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	// Drain lets in-flight publishes finish.
	if err := app.eventBus.Drain(); err != nil {
		errs = append(errs, err)
	}

	if err := app.store.Close(); err != nil {
		errs = append(errs, err)
	}

	if app.shutdownTracer != nil {
		if err := app.shutdownTracer(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	slog.Info("Server exited properly")
	return nil
}
