// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func int64Ptr(v int64) *int64 { return &v }

func TestNewCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "meetrec.duckdb")

	db, err := New(config.DatabaseConfig{Path: path, MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestReplaceUsersRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	users := []models.User{
		{ID: 1, ReadingVolume: "3", PurposeCodes: []string{"HOBBY"}, GenreCodes: []string{"NOVEL", "ESSAY"}},
		{ID: 2, ReadingVolume: "10", PurposeCodes: nil, GenreCodes: nil},
	}
	if err := db.ReplaceUsers(ctx, users); err != nil {
		t.Fatalf("ReplaceUsers() error = %v", err)
	}

	got, err := db.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetUsers() len = %d, want 2", len(got))
	}
	if got[0].ID != 1 || len(got[0].GenreCodes) != 2 || got[0].GenreCodes[1] != "ESSAY" {
		t.Errorf("GetUsers()[0] = %+v", got[0])
	}

	// Replace is a full swap, not an append.
	if err := db.ReplaceUsers(ctx, users[:1]); err != nil {
		t.Fatalf("ReplaceUsers() second call error = %v", err)
	}
	n, err := db.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountUsers() after replace = %d, want 1", n)
	}
}

func TestGetUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceUsers(ctx, []models.User{
		{ID: 7, ReadingVolume: "1", GenreCodes: []string{"SCIENCE"}},
	}); err != nil {
		t.Fatalf("ReplaceUsers() error = %v", err)
	}

	u, ok, err := db.GetUser(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("GetUser(7) = %v, %v, %v", u, ok, err)
	}
	if u.GenreCodes[0] != "SCIENCE" {
		t.Errorf("GetUser(7).GenreCodes = %v", u.GenreCodes)
	}

	_, ok, err = db.GetUser(ctx, 999)
	if err != nil {
		t.Fatalf("GetUser(999) error = %v", err)
	}
	if ok {
		t.Error("GetUser(999) found = true, want false")
	}
}

func TestMeetingsAndLedMeetings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	meetings := []models.Meeting{
		{ID: 10, GenreCode: "NOVEL", Title: "a", Status: models.StatusRecruiting, Capacity: 8, CurrentCount: 3, LeaderUserID: 1},
		{ID: 11, GenreCode: "ESSAY", Title: "b", Status: models.StatusFinished, Capacity: 6, CurrentCount: 6, LeaderUserID: 1},
		{ID: 12, GenreCode: "SCIENCE", Title: "c", Status: models.StatusRecruiting, Capacity: 4, CurrentCount: 0, LeaderUserID: 2},
	}
	if err := db.ReplaceMeetings(ctx, meetings); err != nil {
		t.Fatalf("ReplaceMeetings() error = %v", err)
	}

	got, err := db.GetMeetings(ctx)
	if err != nil {
		t.Fatalf("GetMeetings() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetMeetings() len = %d, want 3", len(got))
	}
	if got[1].Status != models.StatusFinished {
		t.Errorf("GetMeetings()[1].Status = %q", got[1].Status)
	}

	led, err := db.GetLedMeetings(ctx, 1)
	if err != nil {
		t.Fatalf("GetLedMeetings() error = %v", err)
	}
	if len(led) != 2 {
		t.Errorf("GetLedMeetings(1) = %v, want two ids", led)
	}
}

func TestInteractionAggregation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	events := []models.LogEvent{
		{UserID: 1, MeetingID: 10, Type: models.EventImpression, Timestamp: base},
		{UserID: 1, MeetingID: 10, Type: models.EventClick, DwellSec: int64Ptr(60), Timestamp: base.Add(time.Minute)},
		{UserID: 1, MeetingID: 10, Type: models.EventJoin, DwellSec: int64Ptr(120), Timestamp: base.Add(2 * time.Minute)},
		{UserID: 2, MeetingID: 11, Type: models.EventImpression, Timestamp: base},
		// Aged out by the since filter below.
		{UserID: 3, MeetingID: 12, Type: models.EventJoin, Timestamp: base.Add(-48 * time.Hour)},
	}
	if err := db.AppendEvents(ctx, events); err != nil {
		t.Fatalf("AppendEvents() error = %v", err)
	}

	got, err := db.GetInteractions(ctx, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetInteractions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetInteractions() len = %d, want 2: %+v", len(got), got)
	}

	var joined *int
	for i := range got {
		if got[i].UserID == 1 && got[i].MeetingID == 10 {
			joined = &i
		}
	}
	if joined == nil {
		t.Fatalf("missing aggregate for user 1 meeting 10: %+v", got)
	}
	it := got[*joined]
	if it.Impressions != 1 || it.Clicks != 1 || it.Joins != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", it.Impressions, it.Clicks, it.Joins)
	}
	if it.DwellSec != 180 {
		t.Errorf("DwellSec = %d, want 180", it.DwellSec)
	}
	if it.Confidence <= 1.0 {
		t.Errorf("Confidence = %f, want > 1.0 for a join with dwell", it.Confidence)
	}
}

func TestGetUserHistoryExcludesImpressions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ts := time.Now().UTC()
	events := []models.LogEvent{
		{UserID: 1, MeetingID: 10, Type: models.EventImpression, Timestamp: ts},
		{UserID: 1, MeetingID: 11, Type: models.EventClick, Timestamp: ts},
		{UserID: 1, MeetingID: 12, Type: models.EventJoin, Timestamp: ts},
		{UserID: 1, MeetingID: 12, Type: models.EventJoin, Timestamp: ts},
	}
	if err := db.AppendEvents(ctx, events); err != nil {
		t.Fatalf("AppendEvents() error = %v", err)
	}

	history, err := db.GetUserHistory(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Errorf("GetUserHistory() = %v, want meeting 11 and 12 only", history)
	}
	for _, id := range history {
		if id == 10 {
			t.Error("GetUserHistory() includes impression-only meeting 10")
		}
	}
}

func TestUpsertRecommendationsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	week := "2026-08-24"
	first := []models.RecommendationRow{
		{UserID: 1, MeetingID: 10, WeekStartDate: week, Rank: 1},
		{UserID: 1, MeetingID: 11, WeekStartDate: week, Rank: 2},
		{UserID: 2, MeetingID: 12, WeekStartDate: week, Rank: 1},
	}
	if err := db.UpsertRecommendations(ctx, first); err != nil {
		t.Fatalf("UpsertRecommendations() error = %v", err)
	}

	// Re-run for user 1 with different picks: the old rows must go.
	second := []models.RecommendationRow{
		{UserID: 1, MeetingID: 13, WeekStartDate: week, Rank: 1},
	}
	if err := db.UpsertRecommendations(ctx, second); err != nil {
		t.Fatalf("UpsertRecommendations() rerun error = %v", err)
	}

	got, err := db.WeeklyRecommendations(ctx, 1, week)
	if err != nil {
		t.Fatalf("WeeklyRecommendations() error = %v", err)
	}
	if len(got) != 1 || got[0].MeetingID != 13 {
		t.Errorf("WeeklyRecommendations(1) = %+v, want single row for meeting 13", got)
	}

	// User 2's rows for the same week are untouched.
	other, err := db.WeeklyRecommendations(ctx, 2, week)
	if err != nil {
		t.Fatalf("WeeklyRecommendations(2) error = %v", err)
	}
	if len(other) != 1 || other[0].MeetingID != 12 {
		t.Errorf("WeeklyRecommendations(2) = %+v", other)
	}
}
