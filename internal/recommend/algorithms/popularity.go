// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package algorithms

import (
	"context"
	"math"
	"time"

	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/recommend"
)

// PopularityConfig tunes the popularity algorithm.
type PopularityConfig struct {
	// HalfLife is how fast engagement ages out. After one half-life an
	// interaction counts half. Default 14 days.
	HalfLife time.Duration

	// ImpressionWeight, ClickWeight and JoinWeight value each event
	// kind. Defaults 0.02 / 0.5 / 1.0.
	ImpressionWeight float64
	ClickWeight      float64
	JoinWeight       float64
}

// Popularity scores candidates by recency-weighted engagement volume
// across all users. It serves as the cold-start fallback: any user gets
// the same ordering.
type Popularity struct {
	BaseAlgorithm

	halfLife         time.Duration
	impressionWeight float64
	clickWeight      float64
	joinWeight       float64

	scores map[int64]float64
}

var _ recommend.Algorithm = (*Popularity)(nil)

// NewPopularity creates a popularity algorithm.
func NewPopularity(cfg PopularityConfig) *Popularity {
	p := &Popularity{
		halfLife:         cfg.HalfLife,
		impressionWeight: cfg.ImpressionWeight,
		clickWeight:      cfg.ClickWeight,
		joinWeight:       cfg.JoinWeight,
		scores:           make(map[int64]float64),
	}
	if p.halfLife <= 0 {
		p.halfLife = 14 * 24 * time.Hour
	}
	if p.impressionWeight <= 0 {
		p.impressionWeight = 0.02
	}
	if p.clickWeight <= 0 {
		p.clickWeight = 0.5
	}
	if p.joinWeight <= 0 {
		p.joinWeight = 1.0
	}
	return p
}

// Name implements recommend.Algorithm.
func (p *Popularity) Name() string { return "popularity" }

// Train recomputes global meeting popularity.
func (p *Popularity) Train(ctx context.Context, interactions []recommend.Interaction, _ []models.Meeting, _ []models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	scores := make(map[int64]float64)

	for _, in := range interactions {
		weight := p.joinWeight*float64(in.Joins) +
			p.clickWeight*float64(in.Clicks) +
			p.impressionWeight*float64(in.Impressions)
		if weight == 0 {
			continue
		}

		decay := 1.0
		if !in.LastSeen.IsZero() {
			age := now.Sub(in.LastSeen)
			if age > 0 {
				decay = math.Exp2(-age.Hours() / p.halfLife.Hours())
			}
		}
		scores[in.MeetingID] += weight * decay
	}

	p.lock()
	p.scores = scores
	p.setTrained()
	p.unlock()

	return nil
}

// Score implements recommend.Algorithm.
func (p *Popularity) Score(ctx context.Context, _ int64, candidates []models.Meeting) (map[int64]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.rLock()
	defer p.rUnlock()

	scores := make(map[int64]float64)
	for _, m := range candidates {
		if s, ok := p.scores[m.ID]; ok && s > 0 {
			scores[m.ID] = s
		}
	}
	return scores, nil
}
