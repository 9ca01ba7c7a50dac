// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moimlab/meetrec/internal/middleware"
)

// Router builds the HTTP handler tree.
type Router struct {
	handler *Handler
}

// NewRouter wraps a handler set.
func NewRouter(h *Handler) *Router {
	return &Router{handler: h}
}

// Setup configures all routes.
func (rt *Router) Setup() http.Handler {
	h := rt.handler
	sec := h.cfg.Security

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if sec.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   sec.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "x-api-key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health probes stay open: no key, generous rate limit.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/health", h.Health)
		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		perMin := sec.RateLimitPerMin
		if perMin <= 0 {
			perMin = 120
		}
		r.Use(httprate.LimitByIP(perMin, time.Minute))
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)
		r.Use(middleware.APIKey(sec.APIKey))

		r.Get("/recommendations/status", h.RecommendationStatus)
		r.Get("/recommendations/{userID}", h.Recommendations)
		r.Get("/recommendations/{userID}/weekly", h.WeeklyRecommendations)
		r.Post("/batch/run", h.RunBatch)
		r.Post("/reports/validate", h.ValidateReport)
		r.Post("/quizzes/generate", h.GenerateQuiz)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
