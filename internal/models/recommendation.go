// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package models

import "time"

// RecommendationRow is one published weekly recommendation.
// Rows are keyed on (user_id, week_start_date, rank); re-running a
// batch for the same week replaces the previous rows.
type RecommendationRow struct {
	UserID        int64  `json:"user_id"`
	MeetingID     int64  `json:"meeting_id"`
	WeekStartDate string `json:"week_start_date"`
	Rank          int    `json:"rank"`
}

// WeekStart returns the ISO date (YYYY-MM-DD) of the Monday of t's week
// in t's location.
func WeekStart(t time.Time) string {
	// time.Weekday numbers Sunday as 0; shift so Monday is the origin.
	offset := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -offset)
	return monday.Format("2006-01-02")
}
