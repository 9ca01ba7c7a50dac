// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package models

// MeetingStatus is the lifecycle state of a reading meeting.
type MeetingStatus string

const (
	// StatusRecruiting marks a meeting that is open for new members.
	// Only recruiting meetings are ever recommended.
	StatusRecruiting MeetingStatus = "RECRUITING"

	// StatusFinished marks a meeting that has completed.
	StatusFinished MeetingStatus = "FINISHED"

	// StatusCanceled marks a meeting that was canceled before running.
	StatusCanceled MeetingStatus = "CANCELED"
)

// Valid reports whether s is one of the known meeting statuses.
func (s MeetingStatus) Valid() bool {
	switch s {
	case StatusRecruiting, StatusFinished, StatusCanceled:
		return true
	}
	return false
}

// Meeting is a reading meeting as stored and recommended.
// Invariant: CurrentCount never exceeds Capacity.
type Meeting struct {
	ID           int64         `json:"id"`
	GenreCode    string        `json:"reading_genre_code"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Status       MeetingStatus `json:"status"`
	Capacity     int           `json:"capacity"`
	CurrentCount int           `json:"current_count"`
	LeaderIntro  string        `json:"leader_intro"`
	LeaderUserID int64         `json:"leader_user_id,omitempty"`
}

// Recruiting reports whether the meeting is open for recommendation.
func (m *Meeting) Recruiting() bool {
	return m.Status == StatusRecruiting
}

// SpotsLeft returns the remaining capacity. Never negative for a
// meeting that satisfies the capacity invariant.
func (m *Meeting) SpotsLeft() int {
	left := m.Capacity - m.CurrentCount
	if left < 0 {
		return 0
	}
	return left
}
