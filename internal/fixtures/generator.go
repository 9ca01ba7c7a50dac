// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package fixtures

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/moimlab/meetrec/internal/models"
)

// GeneratorConfig sizes a synthetic dataset.
type GeneratorConfig struct {
	Users    int
	Meetings int
	Events   int
	Seed     int64
}

// DefaultGeneratorConfig matches the shape of the production fixture
// set: enough users and meetings for the engine to train, with a
// realistic recruiting ratio and a skewed popularity distribution.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Users:    50,
		Meetings: 120,
		Events:   2000,
		Seed:     1,
	}
}

var (
	genreCodes   = []string{"NOVEL", "ESSAY", "SCIENCE", "HISTORY", "SELF_DEV", "POETRY", "ECONOMY", "PHILOSOPHY"}
	purposeCodes = []string{"HABIT", "DISCUSSION", "NETWORKING", "DEEP_READING", "WRITING"}
	volumeCodes  = []string{"LIGHT", "REGULAR", "HEAVY"}
)

// Generate builds a deterministic synthetic dataset. The same seed
// always yields the same records.
//
// Dataset shape guarantees (relied on by engine and batch tests):
//   - slightly more than half of meetings are RECRUITING
//   - interaction volume is Zipf-skewed, so a handful of meetings
//     collect most of the events
//   - impressions never carry dwell_sec; most clicks and joins do
func Generate(cfg GeneratorConfig) ([]models.User, []models.Meeting, []models.LogEvent) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	users := make([]models.User, 0, cfg.Users)
	for i := 0; i < cfg.Users; i++ {
		u := models.User{
			ID:            int64(i + 1),
			ReadingVolume: volumeCodes[rng.Intn(len(volumeCodes))],
		}
		for _, p := range pickCodes(rng, purposeCodes, 1+rng.Intn(2)) {
			u.PurposeCodes = append(u.PurposeCodes, p)
		}
		for _, g := range pickCodes(rng, genreCodes, 1+rng.Intn(3)) {
			u.GenreCodes = append(u.GenreCodes, g)
		}
		users = append(users, u)
	}

	meetings := make([]models.Meeting, 0, cfg.Meetings)
	for i := 0; i < cfg.Meetings; i++ {
		genre := genreCodes[rng.Intn(len(genreCodes))]
		capacity := 4 + rng.Intn(12)
		status := models.StatusRecruiting
		switch {
		case i%9 == 7:
			status = models.StatusCanceled
		case i%9 == 5 || i%9 == 8 || i%9 == 2:
			status = models.StatusFinished
		}
		current := rng.Intn(capacity + 1)
		meetings = append(meetings, models.Meeting{
			ID:           int64(i + 1),
			GenreCode:    genre,
			Title:        fmt.Sprintf("%s reading circle %d", genre, i+1),
			Description:  fmt.Sprintf("Weekly %s discussion group, meeting %d.", genre, i+1),
			Status:       status,
			Capacity:     capacity,
			CurrentCount: current,
			LeaderIntro:  fmt.Sprintf("Host %d, three seasons of running circles.", i%17+1),
			LeaderUserID: int64(rng.Intn(cfg.Users) + 1),
		})
	}

	// Zipf over meeting indices concentrates traffic on a few meetings.
	zipf := rand.NewZipf(rng, 1.2, 1, uint64(cfg.Meetings-1))
	base := time.Now().UTC().Add(-30 * 24 * time.Hour)

	events := make([]models.LogEvent, 0, cfg.Events)
	for i := 0; i < cfg.Events; i++ {
		meeting := meetings[zipf.Uint64()]
		user := users[rng.Intn(len(users))]

		typ := models.EventImpression
		switch r := rng.Float64(); {
		case r < 0.10:
			typ = models.EventJoin
		case r < 0.30:
			typ = models.EventClick
		}

		ev := models.LogEvent{
			UserID:    user.ID,
			MeetingID: meeting.ID,
			Type:      typ,
			Timestamp: base.Add(time.Duration(rng.Int63n(int64(30 * 24 * time.Hour)))),
		}
		if typ != models.EventImpression && rng.Float64() < 0.75 {
			dwell := int64(5 + rng.Intn(300))
			ev.DwellSec = &dwell
		}
		events = append(events, ev)
	}

	return users, meetings, events
}

func pickCodes(rng *rand.Rand, pool []string, n int) []string {
	idx := rng.Perm(len(pool))
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, pool[i])
	}
	return out
}

// WriteJSONL writes the dataset as users.jsonl, meetings.jsonl and
// logs.jsonl under dir, in the string-coded schema variant.
func WriteJSONL(dir string, users []models.User, meetings []models.Meeting, events []models.LogEvent) error {
	if err := writeLines(filepath.Join(dir, "users.jsonl"), len(users), func(i int) (interface{}, error) {
		u := users[i]
		return map[string]interface{}{
			"user_id":             u.ID,
			"reading_volume_code": u.ReadingVolume,
			"purpose_codes":       u.PurposeCodes,
			"genre_codes":         u.GenreCodes,
		}, nil
	}); err != nil {
		return err
	}

	if err := writeLines(filepath.Join(dir, "meetings.jsonl"), len(meetings), func(i int) (interface{}, error) {
		m := meetings[i]
		return map[string]interface{}{
			"id":                 m.ID,
			"reading_genre_code": m.GenreCode,
			"title":              m.Title,
			"description":        m.Description,
			"status":             string(m.Status),
			"capacity":           m.Capacity,
			"current_count":      m.CurrentCount,
			"leader_intro":       m.LeaderIntro,
			"leader_user_id":     m.LeaderUserID,
		}, nil
	}); err != nil {
		return err
	}

	return writeLines(filepath.Join(dir, "logs.jsonl"), len(events), func(i int) (interface{}, error) {
		ev := events[i]
		rec := map[string]interface{}{
			"user_id":    ev.UserID,
			"meeting_id": ev.MeetingID,
			"event_type": string(ev.Type),
			"ts":         ev.Timestamp.Format(time.RFC3339),
		}
		if ev.DwellSec != nil {
			rec["dwell_sec"] = *ev.DwellSec
		}
		return rec, nil
	})
}

func writeLines(path string, n int, record func(i int) (interface{}, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := 0; i < n; i++ {
		rec, err := record(i)
		if err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode %s line %d: %w", path, i+1, err)
		}
	}
	return nil
}
