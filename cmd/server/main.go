// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package main is the entry point for the Meetrec server.
//
// Meetrec recommends reading meetings to users, publishes a weekly
// recommendation batch, moderates submitted book reports and generates
// reading quizzes. Components start in this order:
//
//  1. Configuration: koanf with defaults, optional YAML file, env vars
//  2. Database: DuckDB storing users, meetings, log events and rows
//  3. Fixtures: optional JSONL import on startup
//  4. Recommendation engine: weighted algorithms plus genre reranking
//  5. Weekly batch: vector-similarity rows, scheduled in Asia/Seoul
//  6. LLM-backed moderation and quiz generation (optional)
//  7. HTTP server: chi REST API on port 8000
//
// Everything long-running is supervised by a suture tree; SIGINT and
// SIGTERM trigger graceful shutdown bounded by SERVER_SHUTDOWN_TIMEOUT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/moimlab/meetrec/internal/api"
	"github.com/moimlab/meetrec/internal/batch"
	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/database"
	"github.com/moimlab/meetrec/internal/fixtures"
	"github.com/moimlab/meetrec/internal/llm"
	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/moderation"
	"github.com/moimlab/meetrec/internal/push"
	"github.com/moimlab/meetrec/internal/supervisor"
	"github.com/moimlab/meetrec/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors surface through the default logger; the
		// configured one does not exist yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("api_key_set", cfg.Security.APIKey != "").
		Bool("recommend_enabled", cfg.Recommend.Enabled).
		Bool("batch_enabled", cfg.Batch.Enabled).
		Msg("Starting Meetrec")

	db, err := database.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Fixtures.ImportOnStart {
		res, err := fixtures.Import(ctx, db, cfg.Fixtures)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to import fixtures")
		}
		logging.Info().
			Int("users", res.Users).
			Int("meetings", res.Meetings).
			Int("events", res.Events).
			Msg("Fixtures imported")
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// Recommendation engine and its periodic trainer.
	var recommender api.Recommender
	engine := initEngine(cfg, db)
	if engine != nil {
		recommender = engine
		tree.AddJobService(services.NewTrainerService(engine, services.TrainerConfig{
			TrainOnStartup: true,
			TrainInterval:  cfg.Recommend.TrainInterval,
		}))
	}

	// Weekly batch over the vector index, optionally pushed to the backend.
	var batchRunner api.BatchRunner
	if cfg.Batch.Enabled {
		var pusher batch.Pusher
		if cfg.Batch.PushEnabled && cfg.Push.BaseURL != "" {
			pusher = push.NewClient(cfg.Push)
		}
		sched, err := batch.NewScheduler(batch.NewGenerator(db, pusher, cfg.Recommend, cfg.Batch), cfg.Batch)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create batch scheduler")
		}
		batchRunner = sched
		tree.AddJobService(sched)
	}

	// LLM client is shared by moderation and quiz generation.
	var generator llm.Generator
	if cfg.LLM.BaseURL != "" {
		generator = llm.NewClient(cfg.LLM)
		logging.Info().Str("base_url", cfg.LLM.BaseURL).Msg("LLM client configured")
	}

	moderator := moderation.NewValidator(cfg.Moderation, generator)

	var quizzes api.QuizGenerator
	if cfg.Quiz.Enabled {
		quizzes = initQuizzes(ctx, cfg, db, generator)
	}

	handler := api.NewHandler(db, recommender, batchRunner, moderator, quizzes, cfg)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler).Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Meetrec ready")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Meetrec stopped")
}
