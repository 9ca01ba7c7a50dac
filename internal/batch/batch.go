// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package batch builds and publishes the weekly per-user
// recommendation rows. Unlike the live engine, the batch path works
// purely from declared profiles and meeting text, so it produces rows
// even before any interaction history exists.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/recommend"
	"github.com/moimlab/meetrec/internal/recommend/reranking"
	"github.com/moimlab/meetrec/internal/vector"
)

// Store is the persistence surface the batch needs. Satisfied by
// *database.DB.
type Store interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetMeetings(ctx context.Context) ([]models.Meeting, error)
	UpsertRecommendations(ctx context.Context, rows []models.RecommendationRow) error
}

// Pusher delivers published rows to the backend. Satisfied by
// *push.Client.
type Pusher interface {
	PushRows(ctx context.Context, rows []models.RecommendationRow) error
}

var (
	// ErrNoUsers is returned when the store has no users to recommend for.
	ErrNoUsers = errors.New("no users to generate recommendations for")
	// ErrNoMeetings is returned when the store has no meetings to recommend.
	ErrNoMeetings = errors.New("no meetings to recommend")
)

// Generator produces weekly recommendation rows.
type Generator struct {
	store    Store
	pusher   Pusher
	embedder *vector.Embedder
	topK     int
	searchK  int
	reranker *reranking.GenreDiversity
	push     bool
	loc      *time.Location
	now      func() time.Time
}

// NewGenerator wires a batch generator. pusher may be nil when push is
// disabled. Week boundaries are computed in batchCfg.Timezone so that
// the week_start_date label never depends on the server's local zone.
func NewGenerator(store Store, pusher Pusher, recCfg config.RecommendConfig, batchCfg config.BatchConfig) *Generator {
	topK := recCfg.TopK
	if topK <= 0 {
		topK = 4
	}
	searchK := recCfg.SearchK
	if searchK < topK {
		searchK = topK * 5
	}
	loc, err := time.LoadLocation(batchCfg.Timezone)
	if err != nil {
		// NewScheduler fails hard on a bad timezone; a bare generator
		// falls back to UTC rather than the server-local zone.
		logging.Warn().Err(err).Str("timezone", batchCfg.Timezone).
			Msg("unknown batch timezone, week boundaries use UTC")
		loc = time.UTC
	}
	return &Generator{
		store:    store,
		pusher:   pusher,
		embedder: vector.NewEmbedder(vector.DefaultDimension),
		topK:     topK,
		searchK:  searchK,
		reranker: reranking.NewGenreDiversity(reranking.GenreDiversityConfig{
			GenreBonus:       recCfg.GenreBonus,
			DuplicatePenalty: recCfg.DuplicatePenalty,
		}),
		push: batchCfg.PushEnabled && pusher != nil,
		loc:  loc,
		now:  time.Now,
	}
}

// Run generates this week's rows, persists them and, when enabled,
// pushes them to the backend.
func (g *Generator) Run(ctx context.Context) (int, error) {
	start := g.now()
	weekStart := models.WeekStart(start.In(g.loc))

	users, err := g.store.GetUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}
	if len(users) == 0 {
		return 0, ErrNoUsers
	}

	meetings, err := g.store.GetMeetings(ctx)
	if err != nil {
		return 0, fmt.Errorf("load meetings: %w", err)
	}
	if len(meetings) == 0 {
		return 0, ErrNoMeetings
	}

	rows, err := g.GenerateRows(ctx, users, meetings, weekStart)
	if err != nil {
		return 0, err
	}

	if err := g.store.UpsertRecommendations(ctx, rows); err != nil {
		return 0, fmt.Errorf("persist rows: %w", err)
	}

	if g.push {
		if err := g.pusher.PushRows(ctx, rows); err != nil {
			// Rows are already persisted; the next run will republish.
			logging.Error().Err(err).Int("rows", len(rows)).Msg("weekly push failed")
		}
	}

	logging.Info().
		Str("component", "batch").
		Str("week_start", weekStart).
		Int("users", len(users)).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("weekly batch complete")

	return len(rows), nil
}

// GenerateRows builds the per-user top-k rows for the given week.
func (g *Generator) GenerateRows(ctx context.Context, users []models.User, meetings []models.Meeting, weekStart string) ([]models.RecommendationRow, error) {
	byID := make(map[int64]models.Meeting, len(meetings))
	ids := make([]int64, 0, len(meetings))
	vecs := make([][]float32, 0, len(meetings))
	for _, m := range meetings {
		byID[m.ID] = m
		ids = append(ids, m.ID)
		vecs = append(vecs, g.embedder.Embed(vector.MeetingText(m)))
	}

	idx := vector.NewIndex(g.embedder.Dimension())
	if err := idx.Build(ids, vecs); err != nil {
		return nil, fmt.Errorf("build meeting index: %w", err)
	}

	var rows []models.RecommendationRow
	for i := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u := users[i]
		picks, err := g.pickForUser(ctx, &u, idx, byID)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", u.ID, err)
		}
		for rank, meetingID := range picks {
			rows = append(rows, models.RecommendationRow{
				UserID:        u.ID,
				MeetingID:     meetingID,
				WeekStartDate: weekStart,
				Rank:          rank + 1,
			})
		}
	}
	return rows, nil
}

func (g *Generator) pickForUser(ctx context.Context, u *models.User, idx *vector.Index, byID map[int64]models.Meeting) ([]int64, error) {
	query := g.embedder.Embed(vector.UserQueryText(*u))
	matches, err := idx.Search(query, g.searchK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	// Candidates must be recruiting and not led by the user.
	scored := make([]recommend.ScoredMeeting, 0, len(matches))
	for _, m := range matches {
		meeting, ok := byID[m.ID]
		if !ok || !meeting.Recruiting() || meeting.LeaderUserID == u.ID {
			continue
		}
		scored = append(scored, recommend.ScoredMeeting{Meeting: meeting, Score: float64(m.Score)})
	}
	if len(scored) == 0 {
		return nil, nil
	}

	reranked := g.reranker.Rerank(ctx, u, scored, g.topK)
	n := g.topK
	if n > len(reranked) {
		n = len(reranked)
	}
	picks := make([]int64, 0, n)
	for _, s := range reranked[:n] {
		picks = append(picks, s.Meeting.ID)
	}
	return picks, nil
}
