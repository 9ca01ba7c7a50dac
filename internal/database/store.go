// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package database

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/moimlab/meetrec/internal/models"
)

// Code lists are stored as JSON text. DuckDB list columns do not bind
// cleanly through database/sql, and the lists are small and read-only.

func encodeCodes(codes []string) (string, error) {
	if codes == nil {
		codes = []string{}
	}
	b, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCodes(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// ReplaceUsers atomically replaces the full user table.
func (db *DB) ReplaceUsers(ctx context.Context, users []models.User) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO users (user_id, reading_volume, purpose_codes, genre_codes) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, u := range users {
		purposes, err := encodeCodes(u.PurposeCodes)
		if err != nil {
			return fmt.Errorf("user %d purposes: %w", u.ID, err)
		}
		genres, err := encodeCodes(u.GenreCodes)
		if err != nil {
			return fmt.Errorf("user %d genres: %w", u.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, u.ID, u.ReadingVolume, purposes, genres); err != nil {
			return fmt.Errorf("insert user %d: %w", u.ID, err)
		}
	}
	return tx.Commit()
}

// ReplaceMeetings atomically replaces the full meeting table.
func (db *DB) ReplaceMeetings(ctx context.Context, meetings []models.Meeting) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meetings`); err != nil {
		return fmt.Errorf("clear meetings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO meetings
		(id, genre_code, title, description, status, capacity, current_count, leader_intro, leader_user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range meetings {
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.GenreCode, m.Title, m.Description, string(m.Status),
			m.Capacity, m.CurrentCount, m.LeaderIntro, m.LeaderUserID); err != nil {
			return fmt.Errorf("insert meeting %d: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// AppendEvents appends interaction events. The log is append-only.
func (db *DB) AppendEvents(ctx context.Context, events []models.LogEvent) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO log_events (user_id, meeting_id, event_type, dwell_sec, ts) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range events {
		var dwell any
		if e.DwellSec != nil {
			dwell = *e.DwellSec
		}
		if _, err := stmt.ExecContext(ctx, e.UserID, e.MeetingID, string(e.Type), dwell, e.Timestamp); err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// UpsertRecommendations replaces the published rows for every
// (user, week) pair present in rows. Re-running a batch for the same
// week is therefore idempotent.
func (db *DB) UpsertRecommendations(ctx context.Context, rows []models.RecommendationRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	type userWeek struct {
		userID int64
		week   string
	}
	seen := make(map[userWeek]struct{})
	for _, r := range rows {
		key := userWeek{r.UserID, r.WeekStartDate}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recommendations WHERE user_id = ? AND week_start_date = ?`,
			key.userID, key.week); err != nil {
			return fmt.Errorf("clear user %d week %s: %w", key.userID, key.week, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO recommendations
		(user_id, meeting_id, week_start_date, rank, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.UserID, r.MeetingID, r.WeekStartDate, r.Rank, now); err != nil {
			return fmt.Errorf("insert recommendation user=%d rank=%d: %w", r.UserID, r.Rank, err)
		}
	}
	return tx.Commit()
}

// WeeklyRecommendations returns the published rows for a user and week,
// ordered by rank.
func (db *DB) WeeklyRecommendations(ctx context.Context, userID int64, weekStart string) ([]models.RecommendationRow, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT user_id, meeting_id, week_start_date, rank
		FROM recommendations WHERE user_id = ? AND week_start_date = ? ORDER BY rank`,
		userID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.RecommendationRow
	for rows.Next() {
		var r models.RecommendationRow
		if err := rows.Scan(&r.UserID, &r.MeetingID, &r.WeekStartDate, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountUsers returns the number of stored users.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

// CountEvents returns the number of stored log events.
func (db *DB) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM log_events`).Scan(&n)
	return n, err
}
