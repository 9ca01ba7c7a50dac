// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/moimlab/meetrec/internal/metrics"
	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/recommend"
)

// Recommendations serves live engine recommendations for a user.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeInternal,
			"recommendation engine disabled", nil)
		return
	}

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, models.ErrCodeValidation,
				"limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{UserID: userID, Limit: limit})
	if err != nil {
		metrics.EngineRecommendations.WithLabelValues("error").Inc()
		switch {
		case errors.Is(err, recommend.ErrUserNotFound):
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound,
				"user not found", map[string]interface{}{"user_id": userID})
		case errors.Is(err, recommend.ErrNotTrained),
			errors.Is(err, recommend.ErrInsufficientData),
			errors.Is(err, recommend.ErrTrainingInProgress):
			respondError(w, http.StatusServiceUnavailable, models.ErrCodeTrainingInProgress,
				"engine not ready to serve recommendations", nil)
		default:
			respondError(w, http.StatusInternalServerError, models.ErrCodeInternal,
				"recommendation failed", nil)
		}
		return
	}

	result := "hit"
	if resp.Cached {
		result = "cached"
	}
	metrics.EngineRecommendations.WithLabelValues(result).Inc()
	respondJSON(w, http.StatusOK, resp, started, resp.Cached)
}

// WeeklyRecommendations serves the published rows for the current (or
// requested) week.
func (h *Handler) WeeklyRecommendations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	weekStart := r.URL.Query().Get("week_start")
	if weekStart == "" {
		weekStart = models.WeekStart(h.now().In(h.weekLoc))
	} else if _, err := time.Parse("2006-01-02", weekStart); err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation,
			"week_start must be an ISO date (YYYY-MM-DD)", nil)
		return
	}

	rows, err := h.store.WeeklyRecommendations(r.Context(), userID, weekStart)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase,
			"failed to load weekly recommendations", nil)
		return
	}
	if rows == nil {
		rows = []models.RecommendationRow{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":         userID,
		"week_start_date": weekStart,
		"rows":            rows,
	}, started, false)
}

// RecommendationStatus reports the engine training state.
func (h *Handler) RecommendationStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeInternal,
			"recommendation engine disabled", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.engine.Status(), started, false)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation,
			"userID must be a positive integer", map[string]interface{}{"user_id": raw})
		return 0, false
	}
	return userID, true
}
