package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spherical-ai/asha/cmd/asha-api/handlers"
	"github.com/spherical-ai/asha/cmd/asha-api/middleware"
	"github.com/spherical-ai/asha/internal/api/rpc"
	"github.com/spherical-ai/asha/internal/app"
	"github.com/spherical-ai/asha/internal/domain"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(a *app.App) http.Handler {
	cfg := a.Config
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.TraceID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Metrics(a.Metrics))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"asha"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if a.Store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.Store.Ping(ctx); err != nil {
				a.Logger.Warn().Err(err).Msg("Readiness check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable","database":"down"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	if cfg.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	}

	// Storage-backed handlers take interfaces; leave them nil without a store.
	var (
		history      domain.HistoryStore
		applications handlers.ApplicationStore
		favorites    handlers.FavoriteStore
		feedback     handlers.FeedbackStore
	)
	if a.Store != nil {
		history = a.Store.Conversations
		applications = a.Store.Applications
		favorites = a.Store.Favorites
		feedback = a.Store.Feedback
	}

	chatHandler := handlers.NewChatHandler(a.Logger, a.Assistant, history)
	nlpHandler := handlers.NewNLPHandler(a.Pipeline)
	catalogHandler := handlers.NewCatalogHandler(a.Logger, a.Catalog, applications)
	engagementHandler := handlers.NewEngagementHandler(a.Logger, a.Catalog, favorites, feedback, a.Tracker)

	auth := middleware.Auth(middleware.AuthConfig{
		Enabled: cfg.Auth.Enabled,
		APIKeys: cfg.Auth.APIKeys,
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)

		r.Post("/chat/messages", chatHandler.PostMessage)
		r.Get("/sessions/{sessionId}/history", chatHandler.History)

		r.Route("/nlp", func(r chi.Router) {
			r.Post("/intent", nlpHandler.Intent)
			r.Post("/entities", nlpHandler.Entities)
			r.Post("/sentiment", nlpHandler.Sentiment)
		})
		r.Post("/bias/detect", nlpHandler.DetectBias)

		r.Post("/knowledge/search", nlpHandler.SearchKnowledge)
		r.Post("/knowledge", nlpHandler.SubmitKnowledge)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", catalogHandler.ListJobs)
			r.Get("/{id}", catalogHandler.GetJob)
			r.Post("/{id}/apply", catalogHandler.ApplyJob)
		})
		r.Route("/events", func(r chi.Router) {
			r.Get("/", catalogHandler.ListEvents)
			r.Get("/{id}", catalogHandler.GetEvent)
			r.Post("/{id}/register", catalogHandler.RegisterEvent)
		})
		r.Route("/mentorships", func(r chi.Router) {
			r.Get("/", catalogHandler.ListMentorships)
			r.Get("/{id}", catalogHandler.GetMentorship)
			r.Post("/{id}/apply", catalogHandler.ApplyMentorship)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Post("/", engagementHandler.SaveFavorite)
			r.Get("/", engagementHandler.ListFavorites)
			r.Delete("/{type}/{itemId}", engagementHandler.RemoveFavorite)
		})
		r.Post("/feedback", engagementHandler.SubmitFeedback)
	})

	// Connect RPC service
	rpcPath, rpcHandler := rpc.NewHandler(rpc.NewService(a.Logger, a.Assistant))
	r.With(auth).Handle(rpcPath+"*", rpcHandler)

	return r
}
