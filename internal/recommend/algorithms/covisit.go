// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package algorithms

import (
	"context"

	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/recommend"
)

// CoVisitationConfig tunes the co-visitation algorithm.
type CoVisitationConfig struct {
	// MaxNeighbors caps how many co-visited meetings are kept per
	// meeting. Keeps memory bounded on skewed datasets.
	MaxNeighbors int
}

// CoVisitation scores candidates by how often they were engaged with
// by the same users as the meetings in the requesting user's history.
// Only clicks and joins count; impressions are too weak a signal.
type CoVisitation struct {
	BaseAlgorithm

	maxNeighbors int

	// co maps meeting ID to co-engagement weights with other meetings.
	co map[int64]map[int64]float64

	// history maps user ID to engaged meeting IDs with confidences.
	history map[int64]map[int64]float64
}

var _ recommend.Algorithm = (*CoVisitation)(nil)

// NewCoVisitation creates a co-visitation algorithm.
func NewCoVisitation(cfg CoVisitationConfig) *CoVisitation {
	maxNeighbors := cfg.MaxNeighbors
	if maxNeighbors <= 0 {
		maxNeighbors = 200
	}
	return &CoVisitation{
		maxNeighbors: maxNeighbors,
		co:           make(map[int64]map[int64]float64),
		history:      make(map[int64]map[int64]float64),
	}
}

// Name implements recommend.Algorithm.
func (cv *CoVisitation) Name() string { return "covisit" }

// Train rebuilds the co-engagement matrix.
func (cv *CoVisitation) Train(ctx context.Context, interactions []recommend.Interaction, _ []models.Meeting, _ []models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	history := make(map[int64]map[int64]float64)
	for _, in := range interactions {
		if in.Strength() == recommend.StrengthImpression {
			continue
		}
		engaged, ok := history[in.UserID]
		if !ok {
			engaged = make(map[int64]float64)
			history[in.UserID] = engaged
		}
		engaged[in.MeetingID] = in.Confidence
	}

	co := make(map[int64]map[int64]float64)
	for _, engaged := range history {
		for a, confA := range engaged {
			for b, confB := range engaged {
				if a == b {
					continue
				}
				neighbors, ok := co[a]
				if !ok {
					neighbors = make(map[int64]float64)
					co[a] = neighbors
				}
				if len(neighbors) >= cv.maxNeighbors {
					if _, exists := neighbors[b]; !exists {
						continue
					}
				}
				neighbors[b] += confA * confB
			}
		}
	}

	cv.lock()
	cv.co = co
	cv.history = history
	cv.setTrained()
	cv.unlock()

	return nil
}

// Score implements recommend.Algorithm. Users without engagement
// history get an empty score map.
func (cv *CoVisitation) Score(ctx context.Context, userID int64, candidates []models.Meeting) (map[int64]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cv.rLock()
	defer cv.rUnlock()

	engaged, ok := cv.history[userID]
	scores := make(map[int64]float64)
	if !ok || len(engaged) == 0 {
		return scores, nil
	}

	for _, m := range candidates {
		var total float64
		for seed, conf := range engaged {
			if w, ok := cv.co[seed][m.ID]; ok {
				total += conf * w
			}
		}
		if total > 0 {
			scores[m.ID] = total
		}
	}
	return scores, nil
}
