// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package push delivers published weekly recommendation rows to the
// backend service that serves them to end users.
package push

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/models"
)

const (
	recommendationsPath = "/ai/recommendations"
	apiKeyHeader        = "x-api-key"
)

// ErrPushRejected is returned when the backend answers with a
// non-success status.
var ErrPushRejected = errors.New("push rejected by backend")

// Client posts recommendation rows to the backend. Requests go through
// a rate limiter and a circuit breaker so a struggling backend does
// not get hammered by retries.
type Client struct {
	cfg     config.PushConfig
	httpc   *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[struct{}]
}

// NewClient builds a push client from config.
func NewClient(cfg config.PushConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 5
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "push-backend",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("push circuit breaker state change")
		},
	})

	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		cb:      cb,
	}
}

type pushPayload struct {
	Rows []models.RecommendationRow `json:"rows"`
}

// PushRows sends the rows in one request, retrying transient failures
// with exponential backoff. A 4xx answer is final and not retried.
func (c *Client) PushRows(ctx context.Context, rows []models.RecommendationRow) error {
	if len(rows) == 0 {
		return nil
	}

	body, err := json.Marshal(pushPayload{Rows: rows})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + recommendationsPath
	retries := c.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		_, err := c.cb.Execute(func() (struct{}, error) {
			return struct{}{}, c.post(ctx, url, body)
		})
		if err == nil {
			logging.Info().
				Str("component", "push").
				Int("rows", len(rows)).
				Int("attempt", attempt+1).
				Msg("recommendation rows pushed")
			return nil
		}

		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("push circuit open: %w", err)
		}
		if errors.Is(err, ErrPushRejected) {
			// The backend understood and refused; retrying won't help.
			return err
		}
		logging.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("rows", len(rows)).
			Msg("push attempt failed")
	}
	return fmt.Errorf("push failed after %d attempts: %w", retries+1, lastErr)
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: status %d", ErrPushRejected, resp.StatusCode)
	default:
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
}
