// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package config

import (
	"fmt"
	"strings"
	"time"
)

var validWeekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validatePush()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database threads must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if !c.Recommend.Enabled {
		return nil
	}
	if c.Recommend.TopK < 1 {
		return fmt.Errorf("RECO_TOP_K must be >= 1, got %d", c.Recommend.TopK)
	}
	if c.Recommend.SearchK < c.Recommend.TopK {
		return fmt.Errorf("RECO_SEARCH_K (%d) must be >= RECO_TOP_K (%d)",
			c.Recommend.SearchK, c.Recommend.TopK)
	}
	if c.Recommend.GenreBonus < 0 {
		return fmt.Errorf("RECO_GENRE_BONUS must be >= 0, got %f", c.Recommend.GenreBonus)
	}
	if c.Recommend.DuplicatePenalty < 0 {
		return fmt.Errorf("RECO_DUPLICATE_PENALTY must be >= 0, got %f", c.Recommend.DuplicatePenalty)
	}
	if len(c.Recommend.Algorithms) == 0 {
		return fmt.Errorf("recommend.algorithms must name at least one algorithm")
	}
	for _, name := range c.Recommend.Algorithms {
		switch name {
		case "content", "covisit", "popularity":
		default:
			return fmt.Errorf("unknown recommendation algorithm %q", name)
		}
	}
	return nil
}

func (c *Config) validateBatch() error {
	if !c.Batch.Enabled {
		return nil
	}
	if _, ok := validWeekdays[strings.ToLower(c.Batch.Weekday)]; !ok {
		return fmt.Errorf("BATCH_WEEKDAY %q is not a weekday name", c.Batch.Weekday)
	}
	if c.Batch.Hour < 0 || c.Batch.Hour > 23 {
		return fmt.Errorf("BATCH_HOUR must be between 0 and 23, got %d", c.Batch.Hour)
	}
	if _, err := time.LoadLocation(c.Batch.Timezone); err != nil {
		return fmt.Errorf("BATCH_TIMEZONE %q is not a valid IANA zone: %w", c.Batch.Timezone, err)
	}
	if c.Batch.PushEnabled && c.Push.BaseURL == "" {
		return fmt.Errorf("PUSH_BASE_URL is required when BATCH_PUSH_ENABLED=true")
	}
	return nil
}

func (c *Config) validatePush() error {
	if c.Push.BaseURL == "" {
		return nil
	}
	if !strings.HasPrefix(c.Push.BaseURL, "http://") && !strings.HasPrefix(c.Push.BaseURL, "https://") {
		return fmt.Errorf("PUSH_BASE_URL must start with http:// or https://, got %q", c.Push.BaseURL)
	}
	if c.Push.MaxRetries < 0 {
		return fmt.Errorf("PUSH_MAX_RETRIES must be >= 0, got %d", c.Push.MaxRetries)
	}
	return nil
}

// BatchWeekday returns the configured batch weekday as a time.Weekday.
// Call only after Validate.
func (c *Config) BatchWeekday() time.Weekday {
	return c.Batch.BatchWeekday()
}

// BatchWeekday returns the batch weekday as a time.Weekday. Call only
// after Validate.
func (b BatchConfig) BatchWeekday() time.Weekday {
	return validWeekdays[strings.ToLower(b.Weekday)]
}
