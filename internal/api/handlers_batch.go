// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/moimlab/meetrec/internal/batch"
	"github.com/moimlab/meetrec/internal/metrics"
	"github.com/moimlab/meetrec/internal/models"
)

// RunBatch triggers a weekly batch run. Answers 409 while another run
// is in progress.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.batch == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeInternal,
			"weekly batch disabled", nil)
		return
	}

	rows, err := h.batch.TriggerRun(r.Context())
	metrics.RecordBatchRun("manual", time.Since(started), rows, err)
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrRunInProgress):
			respondError(w, http.StatusConflict, models.ErrCodeBatchInProgress,
				"a batch run is already in progress", nil)
		case errors.Is(err, batch.ErrNoUsers), errors.Is(err, batch.ErrNoMeetings):
			respondError(w, http.StatusConflict, models.ErrCodeValidation,
				err.Error(), nil)
		default:
			respondError(w, http.StatusInternalServerError, models.ErrCodeInternal,
				"batch run failed", nil)
		}
		return
	}

	payload := map[string]interface{}{
		"rows":            rows,
		"week_start_date": models.WeekStart(h.now().In(h.weekLoc)),
	}
	if last, ok := h.batch.LastRun(); ok {
		payload["completed_at"] = last
	}
	respondJSON(w, http.StatusOK, payload, started, false)
}
