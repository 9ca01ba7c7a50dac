// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package llm is the HTTP client for the external text-generation
// endpoint used by report moderation and quiz generation.
package llm

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

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/logging"
)

const generatePath = "/generate"

// Sentinel errors let handlers map upstream trouble to the right HTTP
// status: unreachable maps to 503, a broken answer to 502.
var (
	ErrUnavailable = errors.New("llm endpoint unavailable")
	ErrBadResponse = errors.New("llm endpoint returned a malformed response")
)

// Generator is the text-generation surface consumed by moderation and
// quiz code. Satisfied by *Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client talks to the inference endpoint.
type Client struct {
	cfg   config.LLMConfig
	httpc *http.Client
	cb    *gobreaker.CircuitBreaker[string]
}

// NewClient builds an LLM client from config.
func NewClient(cfg config.LLMConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxNewTokens <= 0 {
		cfg.MaxNewTokens = 512
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm-endpoint",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("llm circuit breaker state change")
		},
	})

	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		cb:    cb,
	}
}

type generateRequest struct {
	Prompt       string  `json:"prompt"`
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate sends the prompt and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.cb.Execute(func() (string, error) {
		return c.generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	return text, err
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:       prompt,
		MaxNewTokens: c.cfg.MaxNewTokens,
		Temperature:  c.cfg.Temperature,
		TopP:         c.cfg.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + generatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("%w: empty text", ErrBadResponse)
	}

	logging.Debug().
		Str("component", "llm").
		Dur("elapsed", time.Since(start)).
		Int("prompt_len", len(prompt)).
		Int("text_len", len(out.Text)).
		Msg("generation complete")

	return out.Text, nil
}
