// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package fixtures

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/moimlab/meetrec/internal/models"
)

// UserVariant identifies which categorical encoding a users file uses.
type UserVariant int

const (
	// VariantUnknown means no categorical field has been seen yet.
	VariantUnknown UserVariant = iota
	// VariantNumeric encodes categoricals as numeric IDs.
	VariantNumeric
	// VariantString encodes categoricals as string codes.
	VariantString
)

func (v UserVariant) String() string {
	switch v {
	case VariantNumeric:
		return "numeric"
	case VariantString:
		return "string"
	default:
		return "unknown"
	}
}

// maxLineBytes bounds a single JSONL line; meeting descriptions are
// free text but never book-length.
const maxLineBytes = 1 << 20

// timestampLayouts are accepted for the ts field. The dataset writes
// ISO 8601; zone-less timestamps are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// userRecord is the wire form of one users.jsonl line, covering both
// schema variants.
type userRecord struct {
	UserID            *int64   `json:"user_id"`
	ReadingVolumeID   *int64   `json:"reading_volume_id"`
	ReadingVolumeCode *string  `json:"reading_volume_code"`
	PurposeIDs        []int64  `json:"purpose_ids"`
	PurposeCodes      []string `json:"purpose_codes"`
	GenreIDs          []int64  `json:"genre_ids"`
	GenreCodes        []string `json:"genre_codes"`
}

func (r *userRecord) variant() (UserVariant, error) {
	numeric := r.ReadingVolumeID != nil || r.PurposeIDs != nil || r.GenreIDs != nil
	coded := r.ReadingVolumeCode != nil || r.PurposeCodes != nil || r.GenreCodes != nil

	switch {
	case numeric && coded:
		return VariantUnknown, fmt.Errorf("record mixes numeric and string categorical fields")
	case numeric:
		return VariantNumeric, nil
	case coded:
		return VariantString, nil
	default:
		return VariantUnknown, fmt.Errorf("record has no categorical fields")
	}
}

func (r *userRecord) normalize() (models.User, error) {
	if r.UserID == nil {
		return models.User{}, fmt.Errorf("user_id is required")
	}

	u := models.User{ID: *r.UserID}

	switch {
	case r.ReadingVolumeCode != nil:
		u.ReadingVolume = *r.ReadingVolumeCode
	case r.ReadingVolumeID != nil:
		u.ReadingVolume = strconv.FormatInt(*r.ReadingVolumeID, 10)
	}

	if r.PurposeCodes != nil {
		u.PurposeCodes = append([]string(nil), r.PurposeCodes...)
	} else {
		for _, id := range r.PurposeIDs {
			u.PurposeCodes = append(u.PurposeCodes, strconv.FormatInt(id, 10))
		}
	}

	if r.GenreCodes != nil {
		u.GenreCodes = append([]string(nil), r.GenreCodes...)
	} else {
		for _, id := range r.GenreIDs {
			u.GenreCodes = append(u.GenreCodes, strconv.FormatInt(id, 10))
		}
	}

	return u, nil
}

// meetingRecord is the wire form of one meetings.jsonl line.
type meetingRecord struct {
	ID               *int64  `json:"id"`
	ReadingGenreID   *int64  `json:"reading_genre_id"`
	ReadingGenreCode *string `json:"reading_genre_code"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Status           string  `json:"status"`
	Capacity         int     `json:"capacity"`
	CurrentCount     int     `json:"current_count"`
	LeaderIntro      string  `json:"leader_intro"`
	LeaderUserID     int64   `json:"leader_user_id"`
}

func (r *meetingRecord) normalize() (models.Meeting, error) {
	if r.ID == nil {
		return models.Meeting{}, fmt.Errorf("id is required")
	}

	status := models.MeetingStatus(r.Status)
	if !status.Valid() {
		return models.Meeting{}, fmt.Errorf("status %q is not one of RECRUITING, FINISHED, CANCELED", r.Status)
	}
	if r.Capacity < 0 {
		return models.Meeting{}, fmt.Errorf("capacity must be >= 0, got %d", r.Capacity)
	}
	if r.CurrentCount < 0 {
		return models.Meeting{}, fmt.Errorf("current_count must be >= 0, got %d", r.CurrentCount)
	}
	if r.CurrentCount > r.Capacity {
		return models.Meeting{}, fmt.Errorf("current_count %d exceeds capacity %d", r.CurrentCount, r.Capacity)
	}

	m := models.Meeting{
		ID:           *r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Status:       status,
		Capacity:     r.Capacity,
		CurrentCount: r.CurrentCount,
		LeaderIntro:  r.LeaderIntro,
		LeaderUserID: r.LeaderUserID,
	}

	switch {
	case r.ReadingGenreCode != nil:
		m.GenreCode = *r.ReadingGenreCode
	case r.ReadingGenreID != nil:
		m.GenreCode = strconv.FormatInt(*r.ReadingGenreID, 10)
	}

	return m, nil
}

// eventRecord is the wire form of one logs.jsonl line.
type eventRecord struct {
	UserID    *int64 `json:"user_id"`
	MeetingID *int64 `json:"meeting_id"`
	EventType string `json:"event_type"`
	DwellSec  *int64 `json:"dwell_sec"`
	TS        string `json:"ts"`
}

func (r *eventRecord) normalize() (models.LogEvent, error) {
	if r.UserID == nil || r.MeetingID == nil {
		return models.LogEvent{}, fmt.Errorf("user_id and meeting_id are required")
	}

	typ := models.EventType(r.EventType)
	if !typ.Valid() {
		return models.LogEvent{}, fmt.Errorf("event_type %q is not one of impression, click, join", r.EventType)
	}
	if r.DwellSec != nil && *r.DwellSec < 0 {
		return models.LogEvent{}, fmt.Errorf("dwell_sec must be non-negative, got %d", *r.DwellSec)
	}

	ts, err := parseTimestamp(r.TS)
	if err != nil {
		return models.LogEvent{}, err
	}

	return models.LogEvent{
		UserID:    *r.UserID,
		MeetingID: *r.MeetingID,
		Type:      typ,
		DwellSec:  r.DwellSec,
		Timestamp: ts,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("ts is required")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ts %q is not an ISO timestamp", s)
}

// LoadUsers reads and validates a users.jsonl file, normalizing both
// schema variants to string codes. A file mixing variants fails with
// the line where the second variant first appears.
func LoadUsers(path string) ([]models.User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	return ReadUsers(f)
}

// ReadUsers is LoadUsers over an arbitrary reader.
func ReadUsers(r io.Reader) ([]models.User, error) {
	var (
		users       []models.User
		fileVariant = VariantUnknown
	)

	err := eachLine(r, func(line int, data []byte) error {
		var rec userRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		variant, err := rec.variant()
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if fileVariant == VariantUnknown {
			fileVariant = variant
		} else if variant != fileVariant {
			return fmt.Errorf("line %d: %s-coded record in a %s-coded file", line, variant, fileVariant)
		}

		u, err := rec.normalize()
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		users = append(users, u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// LoadMeetings reads and validates a meetings.jsonl file.
func LoadMeetings(path string) ([]models.Meeting, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open meetings file: %w", err)
	}
	defer f.Close()

	return ReadMeetings(f)
}

// ReadMeetings is LoadMeetings over an arbitrary reader.
func ReadMeetings(r io.Reader) ([]models.Meeting, error) {
	var meetings []models.Meeting

	err := eachLine(r, func(line int, data []byte) error {
		var rec meetingRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		m, err := rec.normalize()
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		meetings = append(meetings, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

// LoadEvents reads and validates a logs.jsonl file.
func LoadEvents(path string) ([]models.LogEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logs file: %w", err)
	}
	defer f.Close()

	return ReadEvents(f)
}

// ReadEvents is LoadEvents over an arbitrary reader.
func ReadEvents(r io.Reader) ([]models.LogEvent, error) {
	var events []models.LogEvent

	err := eachLine(r, func(line int, data []byte) error {
		var rec eventRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		ev, err := rec.normalize()
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// eachLine walks a JSONL stream, skipping blank lines, calling fn with
// 1-based line numbers.
func eachLine(r io.Reader, fn func(line int, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		data := strings.TrimSpace(scanner.Text())
		if data == "" {
			continue
		}
		if err := fn(line, []byte(data)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read line %d: %w", line+1, err)
	}
	return nil
}
