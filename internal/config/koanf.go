// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in
// priority order. The first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/meetrec/config.yaml",
	"/etc/meetrec/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from three layers: struct defaults,
// an optional YAML file, and environment variables (highest priority).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// HTTP_PORT -> server.port, DUCKDB_PATH -> database.path, etc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are the config paths parsed from comma-separated
// strings when supplied via environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"recommend.algorithms",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice when it came from YAML or defaults.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings is the explicit environment variable table. Variables
// not listed here are ignored, which keeps unrelated environment noise
// out of the configuration.
var envMappings = map[string]string{
	"http_host":        "server.host",
	"http_port":        "server.port",
	"shutdown_timeout": "server.shutdown_timeout",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"api_key":            "security.api_key",
	"rate_limit_per_min": "security.rate_limit_per_min",
	"cors_origins":       "security.cors_origins",

	"fixtures_dir":             "fixtures.dir",
	"fixtures_users_file":      "fixtures.users_file",
	"fixtures_meetings_file":   "fixtures.meetings_file",
	"fixtures_logs_file":       "fixtures.logs_file",
	"fixtures_import_on_start": "fixtures.import_on_start",

	"reco_enabled":           "recommend.enabled",
	"reco_top_k":             "recommend.top_k",
	"reco_search_k":          "recommend.search_k",
	"reco_genre_bonus":       "recommend.genre_bonus",
	"reco_duplicate_penalty": "recommend.duplicate_penalty",
	"reco_algorithms":        "recommend.algorithms",
	"reco_train_interval":    "recommend.train_interval",
	"reco_min_interactions":  "recommend.min_interactions",
	"reco_cache_ttl":         "recommend.cache_ttl",

	"batch_enabled":       "batch.enabled",
	"batch_weekday":       "batch.weekday",
	"batch_hour":          "batch.hour",
	"batch_timezone":      "batch.timezone",
	"batch_bootstrap_run": "batch.bootstrap_run",
	"batch_push_enabled":  "batch.push_enabled",

	"push_base_url":     "push.base_url",
	"push_api_key":      "push.api_key",
	"push_timeout":      "push.timeout",
	"push_max_retries":  "push.max_retries",
	"push_rate_per_sec": "push.rate_per_sec",

	"llm_base_url":       "llm.base_url",
	"llm_timeout":        "llm.timeout",
	"llm_max_new_tokens": "llm.max_new_tokens",
	"llm_temperature":    "llm.temperature",
	"llm_top_p":          "llm.top_p",

	"moderation_min_content_length":     "moderation.min_content_length",
	"moderation_max_content_length":     "moderation.max_content_length",
	"moderation_max_repeat_word_ratio":  "moderation.max_repeat_word_ratio",
	"moderation_max_repeated_sentences": "moderation.max_repeated_sentences",
	"moderation_max_noise_ratio":        "moderation.max_noise_ratio",
	"moderation_max_links":              "moderation.max_links",
	"moderation_max_tags":               "moderation.max_tags",
	"moderation_llm_enabled":            "moderation.llm_enabled",

	"quiz_enabled":       "quiz.enabled",
	"quiz_context_top_k": "quiz.context_top_k",
	"quiz_title_bonus":   "quiz.title_bonus",
	"quiz_author_bonus":  "quiz.author_bonus",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
