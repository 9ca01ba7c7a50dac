// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package models

import "time"

// EventType is the kind of user-meeting interaction in the log stream.
type EventType string

const (
	// EventImpression records that a meeting was shown to a user.
	EventImpression EventType = "impression"

	// EventClick records that a user opened a meeting's detail view.
	EventClick EventType = "click"

	// EventJoin records that a user joined a meeting.
	EventJoin EventType = "join"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventImpression, EventClick, EventJoin:
		return true
	}
	return false
}

// LogEvent is one record of the append-only interaction stream.
// Events are never updated or deleted once written.
type LogEvent struct {
	UserID    int64     `json:"user_id"`
	MeetingID int64     `json:"meeting_id"`
	Type      EventType `json:"event_type"`

	// DwellSec is how long the user stayed, in seconds. Present mainly
	// on click and join events; nil when the source record omits it.
	DwellSec *int64 `json:"dwell_sec,omitempty"`

	Timestamp time.Time `json:"ts"`
}
