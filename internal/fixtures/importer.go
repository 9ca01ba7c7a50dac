// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package fixtures

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/models"
)

// Store is the subset of the database layer the importer writes to.
type Store interface {
	ReplaceUsers(ctx context.Context, users []models.User) error
	ReplaceMeetings(ctx context.Context, meetings []models.Meeting) error
	AppendEvents(ctx context.Context, events []models.LogEvent) error
}

// ImportResult reports what an import run loaded.
type ImportResult struct {
	Users    int
	Meetings int
	Events   int
	Elapsed  time.Duration
}

// Import loads the three JSONL files named by cfg and writes them into
// the store. Users and meetings replace previous contents; events are
// appended, matching the append-only contract of the log stream.
func Import(ctx context.Context, store Store, cfg config.FixturesConfig) (*ImportResult, error) {
	start := time.Now()

	users, err := LoadUsers(filepath.Join(cfg.Dir, cfg.UsersFile))
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	meetings, err := LoadMeetings(filepath.Join(cfg.Dir, cfg.MeetingsFile))
	if err != nil {
		return nil, fmt.Errorf("load meetings: %w", err)
	}
	events, err := LoadEvents(filepath.Join(cfg.Dir, cfg.LogsFile))
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	if err := store.ReplaceUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("import users: %w", err)
	}
	if err := store.ReplaceMeetings(ctx, meetings); err != nil {
		return nil, fmt.Errorf("import meetings: %w", err)
	}
	if err := store.AppendEvents(ctx, events); err != nil {
		return nil, fmt.Errorf("import events: %w", err)
	}

	result := &ImportResult{
		Users:    len(users),
		Meetings: len(meetings),
		Events:   len(events),
		Elapsed:  time.Since(start),
	}

	logging.Ctx(ctx).Info().
		Str("component", "fixtures").
		Int("users", result.Users).
		Int("meetings", result.Meetings).
		Int("events", result.Events).
		Dur("elapsed", result.Elapsed).
		Msg("fixture import completed")

	return result, nil
}
