package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moodscout/moodscout/internal/api"
	"github.com/moodscout/moodscout/internal/core/config"
	"github.com/moodscout/moodscout/internal/core/health"
	middleware "github.com/moodscout/moodscout/internal/core/middleware"
	"github.com/moodscout/moodscout/internal/core/router"
)

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, h *api.Handler) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(h))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/suggestions", router.HandleSuggest(logger, cfg, h))
		r.Get("/suggestions/latest", h.LatestSuggestions)
		r.Get("/events", h.NearbyEvents)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/events", h.ListEvents)
			r.Post("/events", h.SaveEvent)
			r.Delete("/events/{eventID}", h.RemoveEvent)

			r.Get("/favorites", h.ListFavorites)
			r.Post("/favorites", h.SaveFavorite)
			r.Get("/favorites/{suggestionID}", h.CheckFavorite)
			r.Delete("/favorites/{suggestionID}", h.RemoveFavorite)
		})
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
