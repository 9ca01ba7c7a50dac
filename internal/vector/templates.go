// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package vector

import (
	"fmt"
	"strings"

	"github.com/moimlab/meetrec/internal/models"
)

// nonePlaceholder stands in for empty fields so that two users with
// nothing declared still embed to the same region instead of a zero
// vector.
const nonePlaceholder = "none"

// MeetingText renders a meeting into the sentence that gets embedded
// and indexed.
func MeetingText(m models.Meeting) string {
	return fmt.Sprintf("genre %s. title %s. description %s. leader %s.",
		orNone(m.GenreCode), orNone(m.Title), orNone(m.Description), orNone(m.LeaderIntro))
}

// UserQueryText renders a user's declared taste into the query
// sentence used to search the meeting index.
func UserQueryText(u models.User) string {
	return fmt.Sprintf("reading volume %s. purposes %s. genres %s.",
		orNone(u.ReadingVolume), joinOrNone(u.PurposeCodes), joinOrNone(u.GenreCodes))
}

func orNone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nonePlaceholder
	}
	return s
}

func joinOrNone(codes []string) string {
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return nonePlaceholder
	}
	return strings.Join(parts, " ")
}
