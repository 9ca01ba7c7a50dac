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

// ContentBasedConfig tunes the content-based algorithm.
type ContentBasedConfig struct {
	// DeclaredWeight weights the genres a user declared at signup.
	DeclaredWeight float64

	// InteractionWeight weights genres inferred from the meetings the
	// user engaged with, scaled by interaction confidence.
	InteractionWeight float64
}

// ContentBased scores candidates by how well a meeting's genre matches
// the user's genre profile. The profile blends declared preferences
// with genres of previously engaged meetings.
type ContentBased struct {
	BaseAlgorithm

	declaredWeight    float64
	interactionWeight float64

	// profiles maps user ID to a normalized genre-code weight map.
	profiles map[int64]map[string]float64
}

var _ recommend.Algorithm = (*ContentBased)(nil)

// NewContentBased creates a content-based algorithm. Weights are
// normalized to sum to 1; zero config gets an even split.
func NewContentBased(cfg ContentBasedConfig) *ContentBased {
	declared := cfg.DeclaredWeight
	interaction := cfg.InteractionWeight
	if declared < 0 {
		declared = 0
	}
	if interaction < 0 {
		interaction = 0
	}
	if declared == 0 && interaction == 0 {
		declared, interaction = 1, 1
	}
	total := declared + interaction

	return &ContentBased{
		declaredWeight:    declared / total,
		interactionWeight: interaction / total,
		profiles:          make(map[int64]map[string]float64),
	}
}

// Name implements recommend.Algorithm.
func (cb *ContentBased) Name() string { return "content" }

// Train rebuilds per-user genre profiles.
func (cb *ContentBased) Train(ctx context.Context, interactions []recommend.Interaction, meetings []models.Meeting, users []models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	genreByMeeting := make(map[int64]string, len(meetings))
	for _, m := range meetings {
		genreByMeeting[m.ID] = m.GenreCode
	}

	profiles := make(map[int64]map[string]float64, len(users))

	for _, u := range users {
		profile := make(map[string]float64)
		for _, code := range u.GenreCodes {
			if code != "" {
				profile[code] += cb.declaredWeight
			}
		}
		profiles[u.ID] = profile
	}

	for _, in := range interactions {
		if in.Strength() == recommend.StrengthImpression {
			continue
		}
		genre, ok := genreByMeeting[in.MeetingID]
		if !ok || genre == "" {
			continue
		}
		profile, ok := profiles[in.UserID]
		if !ok {
			profile = make(map[string]float64)
			profiles[in.UserID] = profile
		}
		profile[genre] += cb.interactionWeight * in.Confidence
	}

	for _, profile := range profiles {
		normalizeProfile(profile)
	}

	cb.lock()
	cb.profiles = profiles
	cb.setTrained()
	cb.unlock()

	return nil
}

// Score implements recommend.Algorithm. Users without a profile get an
// empty score map.
func (cb *ContentBased) Score(ctx context.Context, userID int64, candidates []models.Meeting) (map[int64]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cb.rLock()
	profile := cb.profiles[userID]
	cb.rUnlock()

	scores := make(map[int64]float64)
	if len(profile) == 0 {
		return scores, nil
	}

	for _, m := range candidates {
		if w, ok := profile[m.GenreCode]; ok && w > 0 {
			scores[m.ID] = w
		}
	}
	return scores, nil
}

// normalizeProfile rescales weights so the strongest genre is 1.0.
func normalizeProfile(profile map[string]float64) {
	var max float64
	for _, w := range profile {
		if w > max {
			max = w
		}
	}
	if max == 0 {
		return
	}
	for code, w := range profile {
		profile[code] = w / max
	}
}
