// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Recommend.TopK != 4 {
		t.Errorf("default top_k = %d, want 4", cfg.Recommend.TopK)
	}
	if cfg.Recommend.SearchK != 20 {
		t.Errorf("default search_k = %d, want 20", cfg.Recommend.SearchK)
	}
	if cfg.Batch.Timezone != "Asia/Seoul" {
		t.Errorf("default batch timezone = %q, want Asia/Seoul", cfg.Batch.Timezone)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"top_k zero", func(c *Config) { c.Recommend.TopK = 0 }},
		{"search_k below top_k", func(c *Config) { c.Recommend.SearchK = 2 }},
		{"negative genre bonus", func(c *Config) { c.Recommend.GenreBonus = -0.1 }},
		{"unknown algorithm", func(c *Config) { c.Recommend.Algorithms = []string{"ease"} }},
		{"bad weekday", func(c *Config) { c.Batch.Weekday = "someday" }},
		{"bad hour", func(c *Config) { c.Batch.Hour = 24 }},
		{"bad timezone", func(c *Config) { c.Batch.Timezone = "Mars/Olympus" }},
		{"push enabled without url", func(c *Config) {
			c.Batch.PushEnabled = true
			c.Push.BaseURL = ""
		}},
		{"push url without scheme", func(c *Config) { c.Push.BaseURL = "backend:8080" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("DUCKDB_PATH", "/tmp/test.duckdb")
	t.Setenv("RECO_TOP_K", "6")
	t.Setenv("RECO_SEARCH_K", "30")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RECO_ALGORITHMS", "content,popularity")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("db path = %q, want /tmp/test.duckdb", cfg.Database.Path)
	}
	if cfg.Recommend.TopK != 6 {
		t.Errorf("top_k = %d, want 6", cfg.Recommend.TopK)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example" {
		t.Errorf("cors origins = %v, want two trimmed entries", cfg.Security.CORSOrigins)
	}
	if len(cfg.Recommend.Algorithms) != 2 {
		t.Errorf("algorithms = %v, want [content popularity]", cfg.Recommend.Algorithms)
	}
}

func TestLoadIgnoresUnmappedEnvVars(t *testing.T) {
	t.Setenv("PATH_INFO", "garbage")
	t.Setenv("SOME_RANDOM_VAR", "true")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error with unmapped env vars: %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 8123\nbatch:\n  hour: 7\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("port = %d, want 8123 from file", cfg.Server.Port)
	}
	if cfg.Batch.Hour != 7 {
		t.Errorf("batch hour = %d, want 7 from file", cfg.Batch.Hour)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8123\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "8200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8200 {
		t.Errorf("port = %d, want env value 8200 over file value", cfg.Server.Port)
	}
}

func TestBatchWeekday(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.BatchWeekday(); got != time.Monday {
		t.Errorf("BatchWeekday() = %v, want Monday", got)
	}

	cfg.Batch.Weekday = "Friday"
	if got := cfg.BatchWeekday(); got != time.Friday {
		t.Errorf("BatchWeekday() = %v, want Friday", got)
	}
}
