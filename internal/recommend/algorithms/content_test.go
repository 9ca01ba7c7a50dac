// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package algorithms

import (
	"context"
	"testing"

	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/recommend"
)

func TestNewContentBased(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ContentBasedConfig
		verify func(t *testing.T, cb *ContentBased)
	}{
		{
			name: "zero config gets even split",
			cfg:  ContentBasedConfig{},
			verify: func(t *testing.T, cb *ContentBased) {
				if cb.declaredWeight != 0.5 || cb.interactionWeight != 0.5 {
					t.Errorf("weights = %f/%f, want 0.5/0.5", cb.declaredWeight, cb.interactionWeight)
				}
			},
		},
		{
			name: "weights normalize to sum 1",
			cfg:  ContentBasedConfig{DeclaredWeight: 3, InteractionWeight: 1},
			verify: func(t *testing.T, cb *ContentBased) {
				sum := cb.declaredWeight + cb.interactionWeight
				if sum < 0.99 || sum > 1.01 {
					t.Errorf("weight sum = %f, want ~1.0", sum)
				}
				if cb.declaredWeight < 0.74 || cb.declaredWeight > 0.76 {
					t.Errorf("declaredWeight = %f, want 0.75", cb.declaredWeight)
				}
			},
		},
		{
			name: "negative weight clamps before normalizing",
			cfg:  ContentBasedConfig{DeclaredWeight: -1, InteractionWeight: 2},
			verify: func(t *testing.T, cb *ContentBased) {
				if cb.declaredWeight != 0 {
					t.Errorf("declaredWeight = %f, want 0", cb.declaredWeight)
				}
				if cb.interactionWeight != 1 {
					t.Errorf("interactionWeight = %f, want 1", cb.interactionWeight)
				}
			},
		},
		{
			name: "all-negative config gets even split",
			cfg:  ContentBasedConfig{DeclaredWeight: -2, InteractionWeight: -3},
			verify: func(t *testing.T, cb *ContentBased) {
				if cb.declaredWeight != 0.5 || cb.interactionWeight != 0.5 {
					t.Errorf("weights = %f/%f, want 0.5/0.5", cb.declaredWeight, cb.interactionWeight)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewContentBased(tt.cfg)
			if cb == nil {
				t.Fatal("NewContentBased() returned nil")
			}
			if cb.Name() != "content" {
				t.Errorf("Name() = %q, want content", cb.Name())
			}
			tt.verify(t, cb)
		})
	}
}

func TestContentBasedScoresDeclaredGenres(t *testing.T) {
	cb := NewContentBased(ContentBasedConfig{})
	ctx := context.Background()

	users := []models.User{{ID: 1, GenreCodes: []string{"NOVEL"}}}
	meetings := []models.Meeting{
		{ID: 10, GenreCode: "NOVEL", Status: models.StatusRecruiting},
		{ID: 11, GenreCode: "SCIENCE", Status: models.StatusRecruiting},
	}

	if err := cb.Train(ctx, nil, meetings, users); err != nil {
		t.Fatalf("Train() error: %v", err)
	}
	if !cb.Trained() {
		t.Fatal("Trained() = false after Train")
	}

	scores, err := cb.Score(ctx, 1, meetings)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if scores[10] <= 0 {
		t.Errorf("declared genre meeting score = %f, want > 0", scores[10])
	}
	if _, ok := scores[11]; ok {
		t.Error("unrelated genre meeting received a score")
	}
}

func TestContentBasedLearnsFromInteractions(t *testing.T) {
	cb := NewContentBased(ContentBasedConfig{})
	ctx := context.Background()

	users := []models.User{{ID: 1}}
	meetings := []models.Meeting{
		{ID: 10, GenreCode: "ESSAY"},
		{ID: 11, GenreCode: "ESSAY"},
		{ID: 12, GenreCode: "HISTORY"},
	}
	interactions := []recommend.Interaction{
		{UserID: 1, MeetingID: 10, Joins: 1, Confidence: 1.0},
	}

	if err := cb.Train(ctx, interactions, meetings, users); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	scores, err := cb.Score(ctx, 1, meetings)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if scores[11] <= 0 {
		t.Errorf("same-genre meeting score = %f, want > 0 via interaction profile", scores[11])
	}
	if _, ok := scores[12]; ok {
		t.Error("different-genre meeting received a score")
	}
}

func TestContentBasedIgnoresImpressions(t *testing.T) {
	cb := NewContentBased(ContentBasedConfig{})
	ctx := context.Background()

	meetings := []models.Meeting{{ID: 10, GenreCode: "POETRY"}}
	interactions := []recommend.Interaction{
		{UserID: 1, MeetingID: 10, Impressions: 50, Confidence: 0.1},
	}

	if err := cb.Train(ctx, interactions, meetings, []models.User{{ID: 1}}); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	scores, err := cb.Score(ctx, 1, meetings)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("impression-only history produced scores: %v", scores)
	}
}

func TestContentBasedUnknownUser(t *testing.T) {
	cb := NewContentBased(ContentBasedConfig{})
	ctx := context.Background()

	meetings := []models.Meeting{{ID: 10, GenreCode: "NOVEL"}}
	if err := cb.Train(ctx, nil, meetings, nil); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	scores, err := cb.Score(ctx, 42, meetings)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("unknown user got scores: %v", scores)
	}
}
