// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/recommend"
)

// Compile-time check that DB feeds the engine.
var _ recommend.DataProvider = (*DB)(nil)

// GetInteractions aggregates the event log into per (user, meeting)
// interaction summaries with a confidence score.
func (db *DB) GetInteractions(ctx context.Context, since time.Time) ([]recommend.Interaction, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT
			user_id,
			meeting_id,
			count(*) FILTER (WHERE event_type = 'impression') AS impressions,
			count(*) FILTER (WHERE event_type = 'click') AS clicks,
			count(*) FILTER (WHERE event_type = 'join') AS joins,
			coalesce(sum(dwell_sec), 0) AS dwell_sec,
			max(ts) AS last_seen
		FROM log_events
		WHERE ts >= ?
		GROUP BY user_id, meeting_id`, since)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []recommend.Interaction
	for rows.Next() {
		var it recommend.Interaction
		if err := rows.Scan(&it.UserID, &it.MeetingID, &it.Impressions, &it.Clicks,
			&it.Joins, &it.DwellSec, &it.LastSeen); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		it.Confidence = recommend.ComputeConfidence(it.Impressions, it.Clicks, it.Joins, it.DwellSec)
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetMeetings returns all meetings.
func (db *DB) GetMeetings(ctx context.Context) ([]models.Meeting, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT
			id, genre_code, title, description, status,
			capacity, current_count, leader_intro, leader_user_id
		FROM meetings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query meetings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMeeting(rows *sql.Rows) (models.Meeting, error) {
	var m models.Meeting
	var status string
	if err := rows.Scan(&m.ID, &m.GenreCode, &m.Title, &m.Description, &status,
		&m.Capacity, &m.CurrentCount, &m.LeaderIntro, &m.LeaderUserID); err != nil {
		return m, fmt.Errorf("scan meeting: %w", err)
	}
	m.Status = models.MeetingStatus(status)
	return m, nil
}

// GetUsers returns all users.
func (db *DB) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, reading_volume, purpose_codes, genre_codes FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(scan func(dest ...any) error) (models.User, error) {
	var u models.User
	var purposes, genres string
	if err := scan(&u.ID, &u.ReadingVolume, &purposes, &genres); err != nil {
		return u, fmt.Errorf("scan user: %w", err)
	}
	var err error
	if u.PurposeCodes, err = decodeCodes(purposes); err != nil {
		return u, fmt.Errorf("user %d purposes: %w", u.ID, err)
	}
	if u.GenreCodes, err = decodeCodes(genres); err != nil {
		return u, fmt.Errorf("user %d genres: %w", u.ID, err)
	}
	return u, nil
}

// GetUser looks up a single user. The second return value reports
// whether the user exists.
func (db *DB) GetUser(ctx context.Context, userID int64) (models.User, bool, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT user_id, reading_volume, purpose_codes, genre_codes FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

// GetUserHistory returns the meetings a user has engaged with. Bare
// impressions do not count as history.
func (db *DB) GetUserHistory(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT meeting_id FROM log_events
		WHERE user_id = ? AND event_type IN ('click', 'join')`, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanIDs(rows)
}

// GetLedMeetings returns the meetings a user leads.
func (db *DB) GetLedMeetings(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM meetings WHERE leader_user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query led meetings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
