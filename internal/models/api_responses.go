// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package models

import "time"

// APIResponse is the standard response wrapper used by every HTTP
// endpoint, for both success and error cases.
//
// Example success:
//
//	{
//	  "status": "success",
//	  "data": {"recommendations": [...]},
//	  "metadata": {"timestamp": "2026-08-24T09:00:00Z", "query_time_ms": 12}
//	}
//
// Example error:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_ERROR", "message": "invalid limit"},
//	  "metadata": {"timestamp": "2026-08-24T09:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// Error codes used in APIError.Code.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAuthentication     = "AUTHENTICATION_ERROR"
	ErrCodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeUpstreamDown       = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamBad        = "UPSTREAM_BAD_RESPONSE"
	ErrCodeTrainingInProgress = "TRAINING_IN_PROGRESS"
	ErrCodeBatchInProgress    = "BATCH_IN_PROGRESS"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// APIError is the structured error payload.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status        string    `json:"status"`
	Version       string    `json:"version,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds int64     `json:"uptime_seconds,omitempty"`
	Database      string    `json:"database,omitempty"`
	Engine        string    `json:"engine,omitempty"`
}
