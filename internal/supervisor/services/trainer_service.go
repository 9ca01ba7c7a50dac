// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package services

import (
	"context"
	"errors"
	"time"

	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/recommend"
)

// Trainer is the slice of the recommendation engine the service drives.
type Trainer interface {
	Train(ctx context.Context) error
}

// TrainerConfig controls the retraining loop.
type TrainerConfig struct {
	// TrainOnStartup triggers a training pass when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often to retrain. Non-positive falls back to 24h.
	TrainInterval time.Duration

	// TrainTimeout bounds a single training pass. Non-positive falls back to 30m.
	TrainTimeout time.Duration
}

// TrainerService retrains the recommendation engine on a fixed interval so
// live recommendations keep up with new interaction logs.
type TrainerService struct {
	engine   Trainer
	interval time.Duration
	timeout  time.Duration
	onStart  bool
}

// NewTrainerService creates the periodic trainer.
func NewTrainerService(engine Trainer, cfg TrainerConfig) *TrainerService {
	interval := cfg.TrainInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	timeout := cfg.TrainTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &TrainerService{
		engine:   engine,
		interval: interval,
		timeout:  timeout,
		onStart:  cfg.TrainOnStartup,
	}
}

// Serve implements suture.Service. Training failures are logged and retried
// on the next tick rather than crashing the service: an engine without
// enough data yet is a normal state, not a fault.
func (s *TrainerService) Serve(ctx context.Context) error {
	logging.Info().
		Bool("train_on_startup", s.onStart).
		Dur("train_interval", s.interval).
		Msg("Engine trainer starting")

	if s.onStart {
		s.train(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Engine trainer shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.train(ctx)
		}
	}
}

func (s *TrainerService) train(ctx context.Context) {
	trainCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.engine.Train(trainCtx)
	switch {
	case err == nil:
		logging.Info().Dur("duration", time.Since(start)).Msg("Engine training complete")
	case errors.Is(err, recommend.ErrInsufficientData):
		logging.Debug().Err(err).Msg("Skipping training until more interactions arrive")
	case errors.Is(err, recommend.ErrTrainingInProgress):
		logging.Debug().Msg("Training already running, skipping tick")
	case errors.Is(err, context.Canceled):
	default:
		logging.Warn().Err(err).Msg("Engine training failed, will retry on schedule")
	}
}

// String identifies the service in supervisor logs.
func (s *TrainerService) String() string { return "engine-trainer" }
