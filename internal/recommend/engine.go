// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/models"
)

// Engine errors.
var (
	// ErrNotTrained is returned when recommendations are requested
	// before the first successful training run.
	ErrNotTrained = errors.New("recommendation engine not trained")

	// ErrTrainingInProgress is returned when a training run is already
	// active.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrInsufficientData is returned when the dataset is too small to
	// train on.
	ErrInsufficientData = errors.New("not enough interactions to train")

	// ErrUserNotFound is returned for requests naming an unknown user.
	ErrUserNotFound = errors.New("user not found")
)

// Config tunes the engine.
type Config struct {
	// Weights blends algorithm scores by algorithm name. Algorithms
	// without an entry default to weight 1.0.
	Weights map[string]float64

	// DefaultK and MaxK bound the per-request limit.
	DefaultK int
	MaxK     int

	// MinInteractions is the smallest dataset Train accepts.
	MinInteractions int

	// MaxCandidates caps the scored candidate pool per request.
	MaxCandidates int

	// CacheTTL bounds how long responses are served from cache.
	// Zero disables the cache.
	CacheTTL time.Duration

	// TrainWindow limits training to events within the window.
	// Zero means the whole log.
	TrainWindow time.Duration
}

func (c *Config) applyDefaults() {
	if c.DefaultK <= 0 {
		c.DefaultK = 4
	}
	if c.MaxK <= 0 {
		c.MaxK = 50
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 1000
	}
}

type cachedResponse struct {
	response *Response
	expires  time.Time
}

// Engine combines weighted algorithm scores over recruiting meetings,
// reranks for genre diversity and serves the result with a TTL cache.
type Engine struct {
	cfg        Config
	provider   DataProvider
	algorithms []Algorithm
	reranker   Reranker

	trainMu sync.Mutex // serializes training runs

	statusMu sync.RWMutex
	status   TrainingStatus

	cacheMu sync.RWMutex
	cache   map[string]cachedResponse

	requests    atomic.Int64
	cacheHits   atomic.Int64
	trainRuns   atomic.Int64
	trainErrors atomic.Int64
}

// NewEngine builds an engine. At least one algorithm is required; the
// reranker is optional.
func NewEngine(cfg Config, provider DataProvider, algorithms []Algorithm, reranker Reranker) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}
	if len(algorithms) == 0 {
		return nil, fmt.Errorf("at least one algorithm is required")
	}
	cfg.applyDefaults()

	return &Engine{
		cfg:        cfg,
		provider:   provider,
		algorithms: algorithms,
		reranker:   reranker,
		cache:      make(map[string]cachedResponse),
	}, nil
}

// Train rebuilds all algorithms from the current dataset. Only one
// training run may be active at a time.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	e.setTraining(true)
	defer e.setTraining(false)

	start := time.Now()
	e.trainRuns.Add(1)

	since := time.Time{}
	if e.cfg.TrainWindow > 0 {
		since = time.Now().Add(-e.cfg.TrainWindow)
	}

	interactions, err := e.provider.GetInteractions(ctx, since)
	if err != nil {
		return e.failTraining(fmt.Errorf("load interactions: %w", err))
	}
	meetings, err := e.provider.GetMeetings(ctx)
	if err != nil {
		return e.failTraining(fmt.Errorf("load meetings: %w", err))
	}
	users, err := e.provider.GetUsers(ctx)
	if err != nil {
		return e.failTraining(fmt.Errorf("load users: %w", err))
	}

	if len(interactions) < e.cfg.MinInteractions {
		return e.failTraining(fmt.Errorf("%w: have %d, need %d",
			ErrInsufficientData, len(interactions), e.cfg.MinInteractions))
	}

	// One failing algorithm does not abort the run; the others still
	// refresh. The error is reported after all algorithms ran.
	var trainErr error
	for _, algo := range e.algorithms {
		if err := algo.Train(ctx, interactions, meetings, users); err != nil {
			logging.Ctx(ctx).Error().
				Err(err).
				Str("algorithm", algo.Name()).
				Msg("algorithm training failed")
			trainErr = fmt.Errorf("train %s: %w", algo.Name(), err)
		}
	}
	if trainErr != nil {
		return e.failTraining(trainErr)
	}

	e.statusMu.Lock()
	e.status.Trained = true
	e.status.LastTrainedAt = time.Now()
	e.status.LastDuration = time.Since(start).Round(time.Millisecond).String()
	e.status.InteractionCount = len(interactions)
	e.status.MeetingCount = len(meetings)
	e.status.UserCount = len(users)
	e.status.LastError = ""
	e.statusMu.Unlock()

	e.InvalidateCache()

	logging.Ctx(ctx).Info().
		Str("component", "recommend").
		Int("interactions", len(interactions)).
		Int("meetings", len(meetings)).
		Int("users", len(users)).
		Dur("elapsed", time.Since(start)).
		Msg("engine training completed")

	return nil
}

func (e *Engine) failTraining(err error) error {
	e.trainErrors.Add(1)
	e.statusMu.Lock()
	e.status.LastError = err.Error()
	e.statusMu.Unlock()
	return err
}

func (e *Engine) setTraining(v bool) {
	e.statusMu.Lock()
	e.status.Training = v
	e.statusMu.Unlock()
}

// Recommend returns up to req.Limit recruiting meetings for the user,
// excluding meetings the user leads or already joined or clicked.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	e.requests.Add(1)

	if !e.Status().Trained {
		return nil, ErrNotTrained
	}

	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultK
	}
	if limit > e.cfg.MaxK {
		limit = e.cfg.MaxK
	}

	key := fmt.Sprintf("rec:%d:%d", req.UserID, limit)
	if resp := e.cachedResponse(key); resp != nil {
		e.cacheHits.Add(1)
		return resp, nil
	}

	user, found, err := e.provider.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !found {
		return nil, ErrUserNotFound
	}

	candidates, err := e.collectCandidates(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	scored, err := e.scoreCandidates(ctx, req.UserID, candidates)
	if err != nil {
		return nil, err
	}

	// Backfill: when fewer candidates scored than requested, pad with
	// unscored recruiting meetings in random order so users still see
	// a full list.
	if len(scored) < limit {
		scored = backfill(scored, candidates, limit)
	}

	if e.reranker != nil {
		scored = e.reranker.Rerank(ctx, &user, scored, limit)
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}

	resp := &Response{
		UserID:          req.UserID,
		Recommendations: scored,
		GeneratedAt:     time.Now(),
		Algorithms:      e.algorithmNames(),
	}
	e.storeCache(key, resp)

	return resp, nil
}

// collectCandidates returns recruiting meetings the user can be
// recommended: not led by the user and not already engaged with.
func (e *Engine) collectCandidates(ctx context.Context, userID int64) ([]models.Meeting, error) {
	meetings, err := e.provider.GetMeetings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load meetings: %w", err)
	}

	exclude := make(map[int64]struct{})
	history, err := e.provider.GetUserHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user history: %w", err)
	}
	for _, id := range history {
		exclude[id] = struct{}{}
	}
	led, err := e.provider.GetLedMeetings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load led meetings: %w", err)
	}
	for _, id := range led {
		exclude[id] = struct{}{}
	}

	candidates := make([]models.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if !m.Recruiting() {
			continue
		}
		if m.LeaderUserID == userID {
			continue
		}
		if _, skip := exclude[m.ID]; skip {
			continue
		}
		candidates = append(candidates, m)
		if len(candidates) >= e.cfg.MaxCandidates {
			break
		}
	}
	return candidates, nil
}

// scoreCandidates runs every algorithm in parallel, normalizes each
// score map and blends them with the configured weights.
func (e *Engine) scoreCandidates(ctx context.Context, userID int64, candidates []models.Meeting) ([]ScoredMeeting, error) {
	type result struct {
		name   string
		scores map[int64]float64
		err    error
	}

	results := make(chan result, len(e.algorithms))
	var wg sync.WaitGroup
	for _, algo := range e.algorithms {
		wg.Add(1)
		go func(a Algorithm) {
			defer wg.Done()
			scores, err := a.Score(ctx, userID, candidates)
			results <- result{name: a.Name(), scores: scores, err: err}
		}(algo)
	}
	wg.Wait()
	close(results)

	combined := make(map[int64]float64)
	var failures int
	for r := range results {
		if r.err != nil {
			// A single failing algorithm degrades the blend rather
			// than failing the request.
			failures++
			logging.Ctx(ctx).Warn().
				Err(r.err).
				Str("algorithm", r.name).
				Msg("algorithm scoring failed")
			continue
		}
		weight := 1.0
		if w, ok := e.cfg.Weights[r.name]; ok {
			weight = w
		}
		for id, score := range normalize(r.scores) {
			combined[id] += weight * score
		}
	}
	if failures == len(e.algorithms) {
		return nil, fmt.Errorf("all algorithms failed to score user %d", userID)
	}

	scored := make([]ScoredMeeting, 0, len(combined))
	for _, m := range candidates {
		if score, ok := combined[m.ID]; ok && score > 0 {
			scored = append(scored, ScoredMeeting{Meeting: m, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored, nil
}

// normalize rescales scores to [0,1] with min-max normalization so
// algorithms with different score ranges blend fairly.
func normalize(scores map[int64]float64) map[int64]float64 {
	if len(scores) == 0 {
		return scores
	}

	first := true
	var min, max float64
	for _, s := range scores {
		if first {
			min, max = s, s
			first = false
			continue
		}
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	out := make(map[int64]float64, len(scores))
	if max == min {
		for id := range scores {
			out[id] = 1.0
		}
		return out
	}
	for id, s := range scores {
		out[id] = (s - min) / (max - min)
	}
	return out
}

func backfill(scored []ScoredMeeting, candidates []models.Meeting, limit int) []ScoredMeeting {
	have := make(map[int64]struct{}, len(scored))
	for _, s := range scored {
		have[s.Meeting.ID] = struct{}{}
	}

	rest := make([]models.Meeting, 0, len(candidates))
	for _, m := range candidates {
		if _, ok := have[m.ID]; !ok {
			rest = append(rest, m)
		}
	}
	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	for _, m := range rest {
		if len(scored) >= limit {
			break
		}
		scored = append(scored, ScoredMeeting{Meeting: m, Score: 0})
	}
	return scored
}

func (e *Engine) algorithmNames() []string {
	names := make([]string, 0, len(e.algorithms))
	for _, a := range e.algorithms {
		names = append(names, a.Name())
	}
	return names
}

func (e *Engine) cachedResponse(key string) *Response {
	if e.cfg.CacheTTL <= 0 {
		return nil
	}
	e.cacheMu.RLock()
	entry, ok := e.cache[key]
	e.cacheMu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil
	}

	cached := *entry.response
	cached.Cached = true
	return &cached
}

func (e *Engine) storeCache(key string, resp *Response) {
	if e.cfg.CacheTTL <= 0 {
		return
	}
	e.cacheMu.Lock()
	e.cache[key] = cachedResponse{response: resp, expires: time.Now().Add(e.cfg.CacheTTL)}
	e.cacheMu.Unlock()
}

// InvalidateCache drops all cached responses. Called after training.
func (e *Engine) InvalidateCache() {
	e.cacheMu.Lock()
	e.cache = make(map[string]cachedResponse)
	e.cacheMu.Unlock()
}

// Status returns a copy of the current training status.
func (e *Engine) Status() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// EngineMetrics returns engine counters since startup.
func (e *Engine) EngineMetrics() Metrics {
	return Metrics{
		Requests:    e.requests.Load(),
		CacheHits:   e.cacheHits.Load(),
		TrainRuns:   e.trainRuns.Load(),
		TrainErrors: e.trainErrors.Load(),
	}
}
