// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package quiz generates multiple-choice reading quizzes for a book,
// using retrieved context passages as grounding for the LLM. Quiz
// generation never fails outward: any LLM or parse problem falls back
// to a deterministic quiz built from the request.
package quiz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/llm"
	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/vector"
)

// GenerateRequest asks for a quiz about one book.
type GenerateRequest struct {
	Title   string `json:"title" validate:"required,min=1"`
	Author  string `json:"author" validate:"required,min=1"`
	Summary string `json:"summary,omitempty"`
}

// Quiz is one generated question.
type Quiz struct {
	RoomID              int64  `json:"room_id"`
	Question            string `json:"question"`
	CorrectChoiceNumber int    `json:"correct_choice_number"`
}

// Choice is one answer option. ChoiceNumber is 1-based.
type Choice struct {
	RoomID       int64  `json:"room_id"`
	ChoiceNumber int    `json:"choice_number"`
	ChoiceText   string `json:"choice_text"`
}

// Result bundles the quiz with its four choices.
type Result struct {
	Quiz     Quiz     `json:"quiz"`
	Choices  []Choice `json:"quiz_choices"`
	Fallback bool     `json:"fallback"`
}

// ContextEntry is one indexed passage available for retrieval.
type ContextEntry struct {
	Title  string
	Author string
	Text   string
}

// Generator builds quizzes. The context index is optional; without it
// (or without an LLM) every request gets the fallback quiz.
type Generator struct {
	cfg      config.QuizConfig
	gen      llm.Generator
	embedder *vector.Embedder

	mu      sync.RWMutex
	index   *vector.Index
	entries []ContextEntry
}

// NewGenerator wires a quiz generator. gen may be nil.
func NewGenerator(cfg config.QuizConfig, gen llm.Generator) *Generator {
	if cfg.ContextTopK <= 0 {
		cfg.ContextTopK = 3
	}
	return &Generator{
		cfg:      cfg,
		gen:      gen,
		embedder: vector.NewEmbedder(vector.DefaultDimension),
	}
}

// BuildIndex replaces the retrieval corpus.
func (g *Generator) BuildIndex(entries []ContextEntry) error {
	ids := make([]int64, len(entries))
	vecs := make([][]float32, len(entries))
	for i, e := range entries {
		ids[i] = int64(i)
		vecs[i] = g.embedder.Embed(fmt.Sprintf("title %s. author %s. %s", e.Title, e.Author, e.Text))
	}
	idx := vector.NewIndex(g.embedder.Dimension())
	if err := idx.Build(ids, vecs); err != nil {
		return fmt.Errorf("build quiz context index: %w", err)
	}

	g.mu.Lock()
	g.index = idx
	g.entries = append([]ContextEntry(nil), entries...)
	g.mu.Unlock()
	return nil
}

// Generate produces a quiz for the request. The error return is
// reserved for context cancellation; LLM trouble yields the fallback.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (Result, error) {
	start := time.Now()

	contexts := g.retrieve(req)
	prompt := g.buildPrompt(req, contexts)

	if g.gen != nil {
		raw, err := g.gen.Generate(ctx, prompt)
		if err == nil {
			if res, perr := parseResult(raw); perr == nil {
				logging.Info().
					Str("component", "quiz").
					Str("title", req.Title).
					Int("contexts", len(contexts)).
					Dur("elapsed", time.Since(start)).
					Msg("quiz generated")
				return res, nil
			} else {
				logging.Warn().Err(perr).Str("title", req.Title).Msg("quiz response unparseable, falling back")
			}
		} else {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			logging.Warn().Err(err).Str("title", req.Title).Msg("quiz generation failed, falling back")
		}
	}

	res := fallbackQuiz(req)
	logging.Info().
		Str("component", "quiz").
		Str("title", req.Title).
		Bool("fallback", true).
		Dur("elapsed", time.Since(start)).
		Msg("quiz generated")
	return res, nil
}

type scoredContext struct {
	entry ContextEntry
	score float64
}

// retrieve searches the context index and boosts exact title and
// author matches.
func (g *Generator) retrieve(req GenerateRequest) []ContextEntry {
	g.mu.RLock()
	idx := g.index
	entries := g.entries
	g.mu.RUnlock()
	if idx == nil || idx.Len() == 0 {
		return nil
	}

	query := fmt.Sprintf("title %s. author %s. key themes characters and facts of this book.",
		req.Title, req.Author)
	matches, err := idx.Search(g.embedder.Embed(query), g.cfg.ContextTopK*2)
	if err != nil {
		logging.Warn().Err(err).Msg("quiz context search failed, skipping retrieval")
		return nil
	}

	wantTitle := normalizeMatch(req.Title)
	wantAuthor := normalizeMatch(req.Author)
	scored := make([]scoredContext, 0, len(matches))
	for _, m := range matches {
		e := entries[m.ID]
		score := float64(m.Score)
		if wantTitle != "" && normalizeMatch(e.Title) == wantTitle {
			score += g.cfg.TitleBonus
		}
		if wantAuthor != "" && normalizeMatch(e.Author) == wantAuthor {
			score += g.cfg.AuthorBonus
		}
		scored = append(scored, scoredContext{entry: e, score: score})
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })

	k := g.cfg.ContextTopK
	if k > len(scored) {
		k = len(scored)
	}
	out := make([]ContextEntry, 0, k)
	for _, s := range scored[:k] {
		out = append(out, s.entry)
	}
	return out
}

func normalizeMatch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (g *Generator) buildPrompt(req GenerateRequest, contexts []ContextEntry) string {
	var b strings.Builder
	b.WriteString("Create one multiple-choice reading quiz question about the book below.\n")
	b.WriteString("- exactly 4 choices, numbered 1 to 4, no duplicates\n")
	b.WriteString("- correct_choice_number is the number of the right answer\n")
	b.WriteString("- reply with a single JSON object only, no commentary, no code fences\n")
	b.WriteString(`Schema: {"quiz": {"room_id": 1, "question": "...", "correct_choice_number": 1},` +
		` "quiz_choices": [{"room_id": 1, "choice_number": 1, "choice_text": "..."}]}` + "\n")
	fmt.Fprintf(&b, "Book title: %s\nAuthor: %s\n", req.Title, req.Author)

	if len(contexts) > 0 {
		b.WriteString("Base the question only on these passages:\n")
		for i, c := range contexts {
			fmt.Fprintf(&b, "[%d] %s / %s\n%s\n\n", i+1, c.Title, c.Author, c.Text)
		}
	} else if req.Summary != "" {
		fmt.Fprintf(&b, "Summary:\n%s\n", req.Summary)
	}
	return b.String()
}

var fallbackDistractors = []string{
	"Ernest Hemingway",
	"Virginia Woolf",
	"James Joyce",
}

// fallbackQuiz is the deterministic quiz used when the LLM path is
// unavailable or produced garbage.
func fallbackQuiz(req GenerateRequest) Result {
	choices := []Choice{
		{RoomID: 1, ChoiceNumber: 1, ChoiceText: req.Author},
		{RoomID: 1, ChoiceNumber: 2, ChoiceText: fallbackDistractors[0]},
		{RoomID: 1, ChoiceNumber: 3, ChoiceText: fallbackDistractors[1]},
		{RoomID: 1, ChoiceNumber: 4, ChoiceText: fallbackDistractors[2]},
	}
	return Result{
		Quiz: Quiz{
			RoomID:              1,
			Question:            fmt.Sprintf("Who wrote %q?", req.Title),
			CorrectChoiceNumber: 1,
		},
		Choices:  choices,
		Fallback: true,
	}
}
