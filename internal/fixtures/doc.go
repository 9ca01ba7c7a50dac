// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package fixtures loads and validates the JSONL dataset files
// (users.jsonl, meetings.jsonl, logs.jsonl) and imports them into the
// store.
//
// Users come in two schema variants: numeric-coded (reading_volume_id,
// purpose_ids, genre_ids) and string-coded (reading_volume_code,
// purpose_codes, genre_codes). The loader accepts either variant but
// requires a single file to use one variant consistently; records are
// normalized to string codes (numeric IDs become their decimal string).
//
// Validation enforces the dataset contract:
//   - meetings: current_count <= capacity, status one of
//     RECRUITING/FINISHED/CANCELED
//   - logs: event_type one of impression/click/join, dwell_sec absent
//     or non-negative
//
// Violations are reported with the offending line number.
package fixtures
