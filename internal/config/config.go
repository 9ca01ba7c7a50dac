// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package config loads layered configuration for Meetrec: struct
// defaults, then an optional YAML file, then environment variables,
// using koanf. Loaded configuration is validated before use.
package config

import "time"

// Config is the root configuration for the service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Logging    LoggingConfig    `koanf:"logging"`
	Security   SecurityConfig   `koanf:"security"`
	Fixtures   FixturesConfig   `koanf:"fixtures"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Batch      BatchConfig      `koanf:"batch"`
	Push       PushConfig       `koanf:"push"`
	LLM        LLMConfig        `koanf:"llm"`
	Moderation ModerationConfig `koanf:"moderation"`
	Quiz       QuizConfig       `koanf:"quiz"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds API protection settings. When APIKey is empty
// the x-api-key guard is disabled (development mode).
type SecurityConfig struct {
	APIKey            string   `koanf:"api_key"`
	RateLimitPerMin   int      `koanf:"rate_limit_per_min"`
	CORSOrigins       []string `koanf:"cors_origins"`
	TrustProxyHeaders bool     `koanf:"trust_proxy_headers"`
}

// FixturesConfig points at the JSONL dataset files.
type FixturesConfig struct {
	Dir           string `koanf:"dir"`
	UsersFile     string `koanf:"users_file"`
	MeetingsFile  string `koanf:"meetings_file"`
	LogsFile      string `koanf:"logs_file"`
	ImportOnStart bool   `koanf:"import_on_start"`
}

// RecommendConfig tunes the recommendation engine.
type RecommendConfig struct {
	Enabled          bool          `koanf:"enabled"`
	TopK             int           `koanf:"top_k"`
	SearchK          int           `koanf:"search_k"`
	GenreBonus       float64       `koanf:"genre_bonus"`
	DuplicatePenalty float64       `koanf:"duplicate_penalty"`
	Algorithms       []string      `koanf:"algorithms"`
	TrainInterval    time.Duration `koanf:"train_interval"`
	MinInteractions  int           `koanf:"min_interactions"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
	MaxCandidates    int           `koanf:"max_candidates"`
}

// BatchConfig schedules the weekly recommendation batch.
type BatchConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Weekday      string `koanf:"weekday"`
	Hour         int    `koanf:"hour"`
	Timezone     string `koanf:"timezone"`
	BootstrapRun bool   `koanf:"bootstrap_run"`
	PushEnabled  bool   `koanf:"push_enabled"`
}

// PushConfig targets the backend that receives published rows.
type PushConfig struct {
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	RatePerSec float64       `koanf:"rate_per_sec"`
}

// LLMConfig targets the external inference endpoint.
type LLMConfig struct {
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxNewTokens int           `koanf:"max_new_tokens"`
	Temperature  float64       `koanf:"temperature"`
	TopP         float64       `koanf:"top_p"`
}

// ModerationConfig holds the rule thresholds for report validation.
type ModerationConfig struct {
	MinContentLength     int     `koanf:"min_content_length"`
	MaxContentLength     int     `koanf:"max_content_length"`
	MaxRepeatWordRatio   float64 `koanf:"max_repeat_word_ratio"`
	MaxRepeatedSentences int     `koanf:"max_repeated_sentences"`
	MaxNoiseRatio        float64 `koanf:"max_noise_ratio"`
	MaxLinks             int     `koanf:"max_links"`
	MaxTags              int     `koanf:"max_tags"`
	LLMEnabled           bool    `koanf:"llm_enabled"`
}

// QuizConfig tunes quiz generation and context retrieval.
type QuizConfig struct {
	Enabled     bool    `koanf:"enabled"`
	ContextTopK int     `koanf:"context_top_k"`
	TitleBonus  float64 `koanf:"title_bonus"`
	AuthorBonus float64 `koanf:"author_bonus"`
}

// defaultConfig returns the baseline configuration. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:                   "/data/meetrec.duckdb",
			MaxMemory:              "1GB",
			Threads:                0,
			PreserveInsertionOrder: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Security: SecurityConfig{
			APIKey:          "",
			RateLimitPerMin: 300,
			CORSOrigins:     nil,
		},
		Fixtures: FixturesConfig{
			Dir:           "/data/fixtures",
			UsersFile:     "users.jsonl",
			MeetingsFile:  "meetings.jsonl",
			LogsFile:      "logs.jsonl",
			ImportOnStart: false,
		},
		Recommend: RecommendConfig{
			Enabled:          true,
			TopK:             4,
			SearchK:          20,
			GenreBonus:       0.05,
			DuplicatePenalty: 0.07,
			Algorithms:       []string{"content", "covisit", "popularity"},
			TrainInterval:    24 * time.Hour,
			MinInteractions:  50,
			CacheTTL:         5 * time.Minute,
			MaxCandidates:    1000,
		},
		Batch: BatchConfig{
			Enabled:      true,
			Weekday:      "monday",
			Hour:         9,
			Timezone:     "Asia/Seoul",
			BootstrapRun: true,
			PushEnabled:  false,
		},
		Push: PushConfig{
			BaseURL:    "",
			APIKey:     "",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
			RatePerSec: 5,
		},
		LLM: LLMConfig{
			BaseURL:      "",
			Timeout:      30 * time.Second,
			MaxNewTokens: 512,
			Temperature:  0.2,
			TopP:         0.9,
		},
		Moderation: ModerationConfig{
			MinContentLength:     50,
			MaxContentLength:     5000,
			MaxRepeatWordRatio:   0.35,
			MaxRepeatedSentences: 3,
			MaxNoiseRatio:        0.25,
			MaxLinks:             2,
			MaxTags:              2,
			LLMEnabled:           false,
		},
		Quiz: QuizConfig{
			Enabled:     true,
			ContextTopK: 3,
			TitleBonus:  0.05,
			AuthorBonus: 0.05,
		},
	}
}
