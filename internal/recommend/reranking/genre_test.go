// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package reranking

import (
	"context"
	"testing"

	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/recommend"
)

func scoredList(entries ...recommend.ScoredMeeting) []recommend.ScoredMeeting {
	return entries
}

func meeting(id int64, genre string) models.Meeting {
	return models.Meeting{ID: id, GenreCode: genre, Status: models.StatusRecruiting}
}

func TestGenreDiversityBonusLiftsPreferredGenre(t *testing.T) {
	r := NewGenreDiversity(GenreDiversityConfig{GenreBonus: 0.05, DuplicatePenalty: 0.07})
	user := &models.User{ID: 1, GenreCodes: []string{"ESSAY"}}

	scored := scoredList(
		recommend.ScoredMeeting{Meeting: meeting(10, "NOVEL"), Score: 0.52},
		recommend.ScoredMeeting{Meeting: meeting(11, "ESSAY"), Score: 0.50},
	)

	out := r.Rerank(context.Background(), user, scored, 2)
	if out[0].Meeting.ID != 11 {
		t.Errorf("top meeting = %d, want 11 (preferred genre lifted by bonus)", out[0].Meeting.ID)
	}
}

func TestGenreDiversityPenalizesRepeats(t *testing.T) {
	r := NewGenreDiversity(GenreDiversityConfig{GenreBonus: 0.05, DuplicatePenalty: 0.07})
	user := &models.User{ID: 1}

	// Three novels slightly outscore an essay; the penalty should pull
	// the essay ahead of the third novel.
	scored := scoredList(
		recommend.ScoredMeeting{Meeting: meeting(10, "NOVEL"), Score: 0.90},
		recommend.ScoredMeeting{Meeting: meeting(11, "NOVEL"), Score: 0.89},
		recommend.ScoredMeeting{Meeting: meeting(12, "NOVEL"), Score: 0.88},
		recommend.ScoredMeeting{Meeting: meeting(13, "ESSAY"), Score: 0.80},
	)

	out := r.Rerank(context.Background(), user, scored, 4)

	if out[0].Meeting.ID != 10 {
		t.Errorf("first pick = %d, want highest scored 10", out[0].Meeting.ID)
	}
	// After two novels the third novel is at 0.88 - 2*0.07 = 0.74,
	// below the essay's 0.80.
	if out[2].Meeting.ID != 13 {
		t.Errorf("third pick = %d, want essay 13 ahead of third novel", out[2].Meeting.ID)
	}
}

func TestGenreDiversityPreservesOrderWithoutAdjustments(t *testing.T) {
	r := NewGenreDiversity(GenreDiversityConfig{})
	user := &models.User{ID: 1}

	scored := scoredList(
		recommend.ScoredMeeting{Meeting: meeting(10, "A"), Score: 0.9},
		recommend.ScoredMeeting{Meeting: meeting(11, "B"), Score: 0.8},
		recommend.ScoredMeeting{Meeting: meeting(12, "C"), Score: 0.7},
	)

	out := r.Rerank(context.Background(), user, scored, 3)
	for i, want := range []int64{10, 11, 12} {
		if out[i].Meeting.ID != want {
			t.Errorf("out[%d] = %d, want %d", i, out[i].Meeting.ID, want)
		}
	}
}

func TestGenreDiversityKeepsTailBeyondLimit(t *testing.T) {
	r := NewGenreDiversity(GenreDiversityConfig{GenreBonus: 0.05, DuplicatePenalty: 0.07})
	user := &models.User{ID: 1}

	scored := scoredList(
		recommend.ScoredMeeting{Meeting: meeting(10, "A"), Score: 0.9},
		recommend.ScoredMeeting{Meeting: meeting(11, "A"), Score: 0.8},
		recommend.ScoredMeeting{Meeting: meeting(12, "A"), Score: 0.7},
	)

	out := r.Rerank(context.Background(), user, scored, 2)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want all 3 entries returned", len(out))
	}
}

func TestGenreDiversityHandlesEdgeCases(t *testing.T) {
	r := NewGenreDiversity(GenreDiversityConfig{GenreBonus: 0.05, DuplicatePenalty: 0.07})

	t.Run("empty input", func(t *testing.T) {
		out := r.Rerank(context.Background(), &models.User{}, nil, 4)
		if len(out) != 0 {
			t.Errorf("len(out) = %d, want 0", len(out))
		}
	})

	t.Run("single element", func(t *testing.T) {
		scored := scoredList(recommend.ScoredMeeting{Meeting: meeting(10, "A"), Score: 0.5})
		out := r.Rerank(context.Background(), &models.User{}, scored, 4)
		if len(out) != 1 || out[0].Meeting.ID != 10 {
			t.Errorf("unexpected output: %v", out)
		}
	})

	t.Run("nil user", func(t *testing.T) {
		scored := scoredList(
			recommend.ScoredMeeting{Meeting: meeting(10, "A"), Score: 0.9},
			recommend.ScoredMeeting{Meeting: meeting(11, "B"), Score: 0.8},
		)
		out := r.Rerank(context.Background(), nil, scored, 2)
		if len(out) != 2 {
			t.Errorf("len(out) = %d, want 2", len(out))
		}
	})
}
