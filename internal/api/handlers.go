// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/moderation"
	"github.com/moimlab/meetrec/internal/quiz"
	"github.com/moimlab/meetrec/internal/recommend"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Pinger is the database liveness surface the health handlers need.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RecommendationStore serves the published weekly rows.
type RecommendationStore interface {
	Pinger
	WeeklyRecommendations(ctx context.Context, userID int64, weekStart string) ([]models.RecommendationRow, error)
}

// Recommender is the live engine surface.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Status() recommend.TrainingStatus
}

// BatchRunner triggers and reports on weekly batch runs.
type BatchRunner interface {
	TriggerRun(ctx context.Context) (int, error)
	Running() bool
	LastRun() (time.Time, bool)
}

// ReportValidator moderates report submissions.
type ReportValidator interface {
	Validate(ctx context.Context, content string) (moderation.Result, error)
}

// QuizGenerator produces reading quizzes.
type QuizGenerator interface {
	Generate(ctx context.Context, req quiz.GenerateRequest) (quiz.Result, error)
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	store     RecommendationStore
	engine    Recommender
	batch     BatchRunner
	moderator ReportValidator
	quizzes   QuizGenerator
	cfg       *config.Config
	startedAt time.Time
	weekLoc   *time.Location
	now       func() time.Time
}

// NewHandler wires the API handler. Any dependency may be nil; the
// corresponding endpoints then answer 503. Default week_start_date
// values are computed in the batch timezone so the API and the batch
// agree on week boundaries.
func NewHandler(store RecommendationStore, engine Recommender, batch BatchRunner,
	moderator ReportValidator, quizzes QuizGenerator, cfg *config.Config) *Handler {
	weekLoc := time.UTC
	if cfg != nil && cfg.Batch.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Batch.Timezone); err == nil {
			weekLoc = loc
		}
	}
	return &Handler{
		store:     store,
		engine:    engine,
		batch:     batch,
		moderator: moderator,
		quizzes:   quizzes,
		cfg:       cfg,
		startedAt: time.Now(),
		weekLoc:   weekLoc,
		now:       time.Now,
	}
}

// Health reports overall service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	dbStatus := "ok"
	healthy := true
	if h.store == nil {
		dbStatus = "unconfigured"
		healthy = false
	} else if err := h.store.Ping(r.Context()); err != nil {
		dbStatus = "unreachable"
		healthy = false
	}

	engineStatus := "disabled"
	if h.engine != nil {
		st := h.engine.Status()
		switch {
		case st.Training:
			engineStatus = "training"
		case st.Trained:
			engineStatus = "trained"
		default:
			engineStatus = "untrained"
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, models.HealthStatus{
		Status:        status,
		Version:       Version,
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Database:      dbStatus,
		Engine:        engineStatus,
	}, started, false)
}

// HealthLive is the liveness probe: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now(), false)
}

// HealthReady is the readiness probe: DB reachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.store == nil || h.store.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeDatabase,
			"database not ready", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"}, started, false)
}
