// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package models defines the domain entities shared across Meetrec:
// users, reading meetings, the append-only interaction event stream,
// generated recommendation rows, and the standard API response envelope.
//
// These are the normalized in-memory forms. Wire-level concerns such as
// the two JSONL user schema variants are handled by the fixtures package
// and normalized before reaching these types.
package models
