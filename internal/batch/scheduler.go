// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/logging"
)

// ErrRunInProgress is returned when a run is requested while another
// one is still going.
var ErrRunInProgress = errors.New("batch run already in progress")

// Scheduler fires the weekly batch at the configured weekday and hour
// and exposes TriggerRun for the manual API endpoint. It implements
// suture.Service.
type Scheduler struct {
	gen      *Generator
	weekday  time.Weekday
	hour     int
	location *time.Location
	boot     bool
	running  atomic.Bool
	lastRun  atomic.Int64 // unix seconds, 0 = never
	now      func() time.Time
}

// NewScheduler builds the scheduler. The config must already be
// validated, so an unparseable timezone is a programming error.
func NewScheduler(gen *Generator, cfg config.BatchConfig) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &Scheduler{
		gen:      gen,
		weekday:  cfg.BatchWeekday(),
		hour:     cfg.Hour,
		location: loc,
		boot:     cfg.BootstrapRun,
		now:      time.Now,
	}, nil
}

// String names the service in supervisor logs.
func (s *Scheduler) String() string { return "batch-scheduler" }

// Serve runs the schedule loop until ctx is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	if s.boot {
		s.runOnce(ctx, "bootstrap")
	}

	for {
		next := s.NextRun(s.now())
		logging.Info().
			Str("component", "batch").
			Time("next_run", next).
			Msg("weekly batch scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.runOnce(ctx, "scheduled")
		}
	}
}

// NextRun returns the next scheduled fire time strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, 0, 0, 0, s.location)
	days := (int(s.weekday) - int(local.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(local) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// TriggerRun starts a run in the calling goroutine. Used by the manual
// batch endpoint. Returns ErrRunInProgress if one is active.
func (s *Scheduler) TriggerRun(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, ErrRunInProgress
	}
	defer s.running.Store(false)

	n, err := s.gen.Run(ctx)
	if err == nil {
		s.lastRun.Store(s.now().Unix())
	}
	return n, err
}

// Running reports whether a run is active.
func (s *Scheduler) Running() bool { return s.running.Load() }

// LastRun returns the completion time of the last successful run and
// whether one has happened.
func (s *Scheduler) LastRun() (time.Time, bool) {
	sec := s.lastRun.Load()
	if sec == 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

func (s *Scheduler) runOnce(ctx context.Context, trigger string) {
	n, err := s.TriggerRun(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.Error().Err(err).Str("trigger", trigger).Msg("weekly batch failed")
		return
	}
	logging.Info().
		Str("trigger", trigger).
		Int("rows", n).
		Msg("weekly batch run finished")
}
