// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package reranking reorders engine output before serving. The genre
// diversity reranker rewards meetings in the user's preferred genres
// while penalizing genre repetition inside one result list.
package reranking

import (
	"context"

	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/recommend"
)

// maxRerankSize caps the input list, protecting the O(n * limit)
// greedy loop from oversized candidate pools.
const maxRerankSize = 10000

// GenreDiversityConfig tunes the reranker.
type GenreDiversityConfig struct {
	// GenreBonus is added to a candidate's score when its genre is one
	// of the user's preferred genres.
	GenreBonus float64

	// DuplicatePenalty is subtracted once per already selected meeting
	// that shares the candidate's genre.
	DuplicatePenalty float64
}

// GenreDiversity greedily rebuilds the result list. At each step the
// candidate with the highest adjusted score wins:
//
//	adjusted = score + genreBonus(user, genre) - duplicatePenalty * selectedCount(genre)
type GenreDiversity struct {
	genreBonus       float64
	duplicatePenalty float64
}

var _ recommend.Reranker = (*GenreDiversity)(nil)

// NewGenreDiversity creates the reranker. Negative values clamp to 0.
func NewGenreDiversity(cfg GenreDiversityConfig) *GenreDiversity {
	bonus := cfg.GenreBonus
	if bonus < 0 {
		bonus = 0
	}
	penalty := cfg.DuplicatePenalty
	if penalty < 0 {
		penalty = 0
	}
	return &GenreDiversity{genreBonus: bonus, duplicatePenalty: penalty}
}

// Name implements recommend.Reranker.
func (g *GenreDiversity) Name() string { return "genre_diversity" }

// Rerank implements recommend.Reranker. The input order breaks ties,
// so equal adjusted scores preserve the engine's ranking.
func (g *GenreDiversity) Rerank(ctx context.Context, user *models.User, scored []recommend.ScoredMeeting, limit int) []recommend.ScoredMeeting {
	if len(scored) <= 1 || limit <= 0 {
		return scored
	}
	if len(scored) > maxRerankSize {
		scored = scored[:maxRerankSize]
	}
	if limit > len(scored) {
		limit = len(scored)
	}

	preferred := make(map[string]struct{})
	if user != nil {
		for _, code := range user.GenreCodes {
			preferred[code] = struct{}{}
		}
	}

	remaining := make([]recommend.ScoredMeeting, len(scored))
	copy(remaining, scored)

	selected := make([]recommend.ScoredMeeting, 0, limit)
	genreCounts := make(map[string]int)

	for len(selected) < limit && len(remaining) > 0 {
		if ctx.Err() != nil {
			// On cancellation return what was selected so far plus the
			// untouched tail; callers truncate anyway.
			return append(selected, remaining...)
		}

		bestIdx := 0
		bestScore := g.adjusted(remaining[0], preferred, genreCounts)
		for i := 1; i < len(remaining); i++ {
			if score := g.adjusted(remaining[i], preferred, genreCounts); score > bestScore {
				bestIdx, bestScore = i, score
			}
		}

		pick := remaining[bestIdx]
		selected = append(selected, pick)
		genreCounts[pick.Meeting.GenreCode]++
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return append(selected, remaining...)
}

func (g *GenreDiversity) adjusted(s recommend.ScoredMeeting, preferred map[string]struct{}, genreCounts map[string]int) float64 {
	score := s.Score
	if _, ok := preferred[s.Meeting.GenreCode]; ok {
		score += g.genreBonus
	}
	score -= g.duplicatePenalty * float64(genreCounts[s.Meeting.GenreCode])
	return score
}
