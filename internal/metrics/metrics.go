// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package metrics holds the Prometheus instrumentation for the
// service: HTTP endpoints, DuckDB queries, the recommendation engine,
// the weekly batch, moderation and the LLM client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Engine metrics
	EngineTrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_training_duration_seconds",
			Help:    "Duration of recommendation engine training runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	EngineTrainingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_trainings_total",
			Help: "Total number of engine training runs",
		},
		[]string{"result"}, // "success", "failure", "skipped"
	)

	EngineRecommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_recommendations_total",
			Help: "Total number of live recommendation requests",
		},
		[]string{"result"}, // "hit", "cached", "error"
	)

	EngineCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_response_cache_entries",
			Help: "Current number of cached recommendation responses",
		},
	)

	// Weekly batch metrics
	BatchRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_run_duration_seconds",
			Help:    "Duration of weekly recommendation batch runs",
			Buckets: []float64{0.5, 1, 5, 15, 60, 300, 900},
		},
	)

	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_runs_total",
			Help: "Total number of weekly batch runs",
		},
		[]string{"trigger", "result"}, // trigger: "scheduled", "manual", "bootstrap"
	)

	BatchRowsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_rows_published_total",
			Help: "Total number of recommendation rows published by the batch",
		},
	)

	// Push metrics
	PushRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_requests_total",
			Help: "Total number of push deliveries to the backend",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	// Moderation metrics
	ModerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moderation_duration_seconds",
			Help:    "Duration of report validations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verdict"},
	)

	ModerationVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_verdicts_total",
			Help: "Total number of moderation verdicts by reason",
		},
		[]string{"verdict", "reason"},
	)

	// Quiz metrics
	QuizGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_generations_total",
			Help: "Total number of quiz generations",
		},
		[]string{"source"}, // "llm", "fallback"
	)

	// LLM metrics
	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of LLM generation requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM generation requests",
		},
		[]string{"result"}, // "success", "unavailable", "bad_response"
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, endpoint, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, endpoint, code).Inc()
}

// RecordDBQuery records one database operation.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordTraining records one engine training run.
func RecordTraining(duration time.Duration, result string) {
	EngineTrainingDuration.Observe(duration.Seconds())
	EngineTrainingsTotal.WithLabelValues(result).Inc()
}

// RecordBatchRun records one weekly batch run.
func RecordBatchRun(trigger string, duration time.Duration, rows int, err error) {
	BatchRunDuration.Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	} else {
		BatchRowsPublished.Add(float64(rows))
	}
	BatchRunsTotal.WithLabelValues(trigger, result).Inc()
}

// RecordModeration records one report validation.
func RecordModeration(verdict, reason string, duration time.Duration) {
	ModerationDuration.WithLabelValues(verdict).Observe(duration.Seconds())
	ModerationVerdicts.WithLabelValues(verdict, reason).Inc()
}
