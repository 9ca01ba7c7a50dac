// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package main

import (
	"context"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/database"
	"github.com/moimlab/meetrec/internal/llm"
	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/quiz"
	"github.com/moimlab/meetrec/internal/recommend"
	"github.com/moimlab/meetrec/internal/recommend/algorithms"
	"github.com/moimlab/meetrec/internal/recommend/reranking"
)

// initEngine builds the live recommendation engine, or nil when disabled.
func initEngine(cfg *config.Config, db *database.DB) *recommend.Engine {
	if !cfg.Recommend.Enabled {
		logging.Info().Msg("Recommendation engine disabled (RECOMMEND_ENABLED=false)")
		return nil
	}

	algs := buildAlgorithms(cfg.Recommend.Algorithms)
	if len(algs) == 0 {
		logging.Warn().
			Strs("algorithms", cfg.Recommend.Algorithms).
			Msg("No known algorithms configured, recommendation engine disabled")
		return nil
	}

	reranker := reranking.NewGenreDiversity(reranking.GenreDiversityConfig{
		GenreBonus:       cfg.Recommend.GenreBonus,
		DuplicatePenalty: cfg.Recommend.DuplicatePenalty,
	})

	engine, err := recommend.NewEngine(recommend.Config{
		Weights: map[string]float64{
			"covisit":    1.0,
			"content":    0.8,
			"popularity": 0.5,
		},
		DefaultK:        cfg.Recommend.TopK,
		MaxK:            50,
		MinInteractions: cfg.Recommend.MinInteractions,
		MaxCandidates:   cfg.Recommend.MaxCandidates,
		CacheTTL:        cfg.Recommend.CacheTTL,
	}, db, algs, reranker)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	logging.Info().
		Strs("algorithms", cfg.Recommend.Algorithms).
		Dur("train_interval", cfg.Recommend.TrainInterval).
		Int("min_interactions", cfg.Recommend.MinInteractions).
		Msg("Recommendation engine initialized")

	return engine
}

// buildAlgorithms instantiates the configured algorithms, skipping
// unknown names.
func buildAlgorithms(names []string) []recommend.Algorithm {
	var algs []recommend.Algorithm
	for _, name := range names {
		switch name {
		case "content":
			algs = append(algs, algorithms.NewContentBased(algorithms.ContentBasedConfig{}))
		case "covisit":
			algs = append(algs, algorithms.NewCoVisitation(algorithms.CoVisitationConfig{}))
		case "popularity":
			algs = append(algs, algorithms.NewPopularity(algorithms.PopularityConfig{}))
		default:
			logging.Warn().Str("algorithm", name).Msg("Unknown algorithm name, skipping")
		}
	}
	return algs
}

// initQuizzes wires the quiz generator and seeds its retrieval index
// from the meeting catalog. Reading meetings are titled after the book
// they discuss, so titles and descriptions double as book context.
// Index trouble is not fatal: the generator still serves fallback quizzes.
func initQuizzes(ctx context.Context, cfg *config.Config, db *database.DB, generator llm.Generator) *quiz.Generator {
	g := quiz.NewGenerator(cfg.Quiz, generator)

	meetings, err := db.GetMeetings(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load meetings for quiz context index")
		return g
	}

	entries := make([]quiz.ContextEntry, 0, len(meetings))
	for _, m := range meetings {
		if m.Title == "" {
			continue
		}
		entries = append(entries, quiz.ContextEntry{
			Title: m.Title,
			Text:  m.Description,
		})
	}
	if len(entries) == 0 {
		logging.Info().Msg("No quiz context entries available, quizzes run fallback-only until indexed")
		return g
	}
	if err := g.BuildIndex(entries); err != nil {
		logging.Warn().Err(err).Msg("Failed to build quiz context index")
		return g
	}

	logging.Info().Int("entries", len(entries)).Msg("Quiz context index built")
	return g
}
