// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package models

// User is a platform member with categorical reading preferences.
// Categorical fields are normalized to string codes regardless of
// whether the source file used numeric IDs or string codes.
type User struct {
	ID            int64    `json:"user_id"`
	ReadingVolume string   `json:"reading_volume_code"`
	PurposeCodes  []string `json:"purpose_codes"`
	GenreCodes    []string `json:"genre_codes"`
}

// PrefersGenre reports whether code is one of the user's preferred genres.
func (u *User) PrefersGenre(code string) bool {
	for _, g := range u.GenreCodes {
		if g == code {
			return true
		}
	}
	return false
}
