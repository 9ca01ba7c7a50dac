// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package api

import (
	"net/http"
	"time"

	"github.com/moimlab/meetrec/internal/metrics"
	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/quiz"
	"github.com/moimlab/meetrec/internal/validation"
)

// GenerateQuiz builds a reading quiz for a book. Quiz generation
// degrades to a deterministic fallback instead of failing, so the only
// error answers here are for bad requests.
func (h *Handler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.quizzes == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeInternal,
			"quiz generation disabled", nil)
		return
	}

	var req quiz.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return
	}

	res, err := h.quizzes.Generate(r.Context(), req)
	if err != nil {
		// Only context cancellation reaches here.
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal,
			"quiz generation aborted", nil)
		return
	}

	source := "llm"
	if res.Fallback {
		source = "fallback"
	}
	metrics.QuizGenerations.WithLabelValues(source).Inc()
	respondJSON(w, http.StatusOK, res, started, false)
}
