// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package recommend

import (
	"context"
	"time"

	"github.com/moimlab/meetrec/internal/models"
)

// InteractionStrength orders the engagement level of an aggregated
// user-meeting interaction.
type InteractionStrength int

const (
	// StrengthImpression means the user only saw the meeting.
	StrengthImpression InteractionStrength = iota
	// StrengthClick means the user opened the meeting at least once.
	StrengthClick
	// StrengthJoin means the user joined the meeting.
	StrengthJoin
)

func (s InteractionStrength) String() string {
	switch s {
	case StrengthJoin:
		return "join"
	case StrengthClick:
		return "click"
	default:
		return "impression"
	}
}

// Interaction is one user-meeting pair aggregated over the whole event
// log: how often the user saw, opened and joined the meeting, and how
// long they dwelled in total.
type Interaction struct {
	UserID      int64
	MeetingID   int64
	Impressions int
	Clicks      int
	Joins       int
	DwellSec    int64
	LastSeen    time.Time

	// Confidence is the training weight derived from the counts and
	// dwell time; see ComputeConfidence.
	Confidence float64
}

// Strength classifies the interaction by its strongest event.
func (i *Interaction) Strength() InteractionStrength {
	switch {
	case i.Joins > 0:
		return StrengthJoin
	case i.Clicks > 0:
		return StrengthClick
	default:
		return StrengthImpression
	}
}

// Confidence weighting. Joins anchor at 1.0, clicks at 0.55 and bare
// impressions at 0.1. Dwell time adds up to 50% on top (10 minutes of
// total dwell saturates the boost), and each engagement beyond the
// first adds 10%. The result is capped so a single enthusiastic user
// cannot dominate training.
const (
	confidenceJoin       = 1.0
	confidenceClick      = 0.55
	confidenceImpression = 0.1

	dwellSaturationSec = 600
	repeatBoost        = 0.1
	maxConfidence      = 2.0
)

// ComputeConfidence derives a training weight from aggregated event
// counts and total dwell seconds.
func ComputeConfidence(impressions, clicks, joins int, dwellSec int64) float64 {
	var base float64
	switch {
	case joins > 0:
		base = confidenceJoin
	case clicks > 0:
		base = confidenceClick
	case impressions > 0:
		base = confidenceImpression
	default:
		return 0
	}

	dwell := float64(dwellSec) / dwellSaturationSec
	if dwell > 1 {
		dwell = 1
	}
	confidence := base * (1 + 0.5*dwell)

	if engagements := clicks + joins; engagements > 1 {
		confidence *= 1 + repeatBoost*float64(engagements-1)
	}

	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence
}

// ScoredMeeting is one ranked recommendation candidate.
type ScoredMeeting struct {
	Meeting models.Meeting `json:"meeting"`
	Score   float64        `json:"score"`
	Rank    int            `json:"rank"`
}

// Request asks the engine for recommendations for one user.
type Request struct {
	UserID int64
	Limit  int
}

// Response carries ranked recommendations plus serving metadata.
type Response struct {
	UserID          int64           `json:"user_id"`
	Recommendations []ScoredMeeting `json:"recommendations"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Cached          bool            `json:"cached"`
	Algorithms      []string        `json:"algorithms"`
}

// TrainingStatus reports the engine's training state.
type TrainingStatus struct {
	Trained          bool      `json:"trained"`
	Training         bool      `json:"training"`
	LastTrainedAt    time.Time `json:"last_trained_at,omitempty"`
	LastDuration     string    `json:"last_duration,omitempty"`
	InteractionCount int       `json:"interaction_count"`
	MeetingCount     int       `json:"meeting_count"`
	UserCount        int       `json:"user_count"`
	LastError        string    `json:"last_error,omitempty"`
}

// Metrics counts engine activity since startup.
type Metrics struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	TrainRuns   int64 `json:"train_runs"`
	TrainErrors int64 `json:"train_errors"`
}

// Algorithm scores candidate meetings for a user. Implementations must
// be safe for concurrent Score calls after Train completes.
type Algorithm interface {
	// Name identifies the algorithm in config and logs.
	Name() string

	// Train rebuilds internal state from the full dataset.
	Train(ctx context.Context, interactions []Interaction, meetings []models.Meeting, users []models.User) error

	// Score returns a relevance score per candidate meeting ID. Missing
	// entries mean the algorithm has no opinion on that meeting.
	Score(ctx context.Context, userID int64, candidates []models.Meeting) (map[int64]float64, error)

	// Trained reports whether Train has completed at least once.
	Trained() bool
}

// Reranker reorders a scored candidate list, typically to trade raw
// relevance against diversity.
type Reranker interface {
	Name() string
	Rerank(ctx context.Context, user *models.User, scored []ScoredMeeting, limit int) []ScoredMeeting
}

// DataProvider supplies the engine with training and serving data.
// The database layer implements this.
type DataProvider interface {
	// GetInteractions returns aggregated user-meeting interactions for
	// events at or after since.
	GetInteractions(ctx context.Context, since time.Time) ([]Interaction, error)

	// GetMeetings returns all meetings.
	GetMeetings(ctx context.Context) ([]models.Meeting, error)

	// GetUsers returns all users with their preference codes.
	GetUsers(ctx context.Context) ([]models.User, error)

	// GetUser returns one user, or models.User zero value and false.
	GetUser(ctx context.Context, userID int64) (models.User, bool, error)

	// GetUserHistory returns IDs of meetings the user clicked or joined.
	GetUserHistory(ctx context.Context, userID int64) ([]int64, error)

	// GetLedMeetings returns IDs of meetings the user leads.
	GetLedMeetings(ctx context.Context, userID int64) ([]int64, error)
}
