// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/moimlab/meetrec/internal/llm"
	"github.com/moimlab/meetrec/internal/metrics"
	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/validation"
)

// ValidateReportRequest is the body of POST /api/v1/reports/validate.
type ValidateReportRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// ValidateReport moderates one book-report submission.
func (h *Handler) ValidateReport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.moderator == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeInternal,
			"report moderation disabled", nil)
		return
	}

	var req ValidateReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return
	}

	res, err := h.moderator.Validate(r.Context(), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrUnavailable):
			respondError(w, http.StatusServiceUnavailable, models.ErrCodeUpstreamDown,
				"moderation model unavailable", nil)
		case errors.Is(err, llm.ErrBadResponse):
			respondError(w, http.StatusBadGateway, models.ErrCodeUpstreamBad,
				"moderation model returned an unusable answer", nil)
		default:
			respondError(w, http.StatusInternalServerError, models.ErrCodeInternal,
				"report validation failed", nil)
		}
		return
	}

	metrics.RecordModeration(res.Verdict, res.Reason, res.Elapsed)
	respondJSON(w, http.StatusOK, res, started, false)
}
