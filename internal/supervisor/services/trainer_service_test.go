// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moimlab/meetrec/internal/recommend"
)

type stubTrainer struct {
	trains atomic.Int32
	err    error
}

func (t *stubTrainer) Train(_ context.Context) error {
	t.trains.Add(1)
	return t.err
}

func TestTrainerTrainsOnStartup(t *testing.T) {
	trainer := &stubTrainer{}
	svc := NewTrainerService(trainer, TrainerConfig{
		TrainOnStartup: true,
		TrainInterval:  time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(time.Second)
	for trainer.trains.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("startup training did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v", err)
	}
}

func TestTrainerRetrainsOnInterval(t *testing.T) {
	trainer := &stubTrainer{}
	svc := NewTrainerService(trainer, TrainerConfig{
		TrainInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for trainer.trains.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("trains = %d, want >= 2", trainer.trains.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTrainerSurvivesInsufficientData(t *testing.T) {
	trainer := &stubTrainer{err: recommend.ErrInsufficientData}
	svc := NewTrainerService(trainer, TrainerConfig{
		TrainOnStartup: true,
		TrainInterval:  10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for trainer.trains.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("trains = %d, want the loop to keep running", trainer.trains.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, loop must not crash on training errors", err)
	}
}

func TestTrainerDefaults(t *testing.T) {
	svc := NewTrainerService(&stubTrainer{}, TrainerConfig{})
	if svc.interval != 24*time.Hour {
		t.Errorf("interval = %v, want 24h", svc.interval)
	}
	if svc.timeout != 30*time.Minute {
		t.Errorf("timeout = %v, want 30m", svc.timeout)
	}
}
