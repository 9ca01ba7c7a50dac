// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/llm"
	"github.com/moimlab/meetrec/internal/logging"
)

// Verdict values.
const (
	VerdictApproved = "APPROVED"
	VerdictRejected = "REJECTED"
)

// Result is the moderation outcome for one report.
type Result struct {
	Verdict   string        `json:"verdict"`
	Reason    string        `json:"reason,omitempty"`
	RuleBased bool          `json:"rule_based"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMS int64         `json:"elapsed_ms"`
}

// Validator chains the lexical rules and the optional LLM judgment.
type Validator struct {
	cfg config.ModerationConfig
	gen llm.Generator
}

// NewValidator builds a validator. gen may be nil; the LLM stage is
// then skipped regardless of config.
func NewValidator(cfg config.ModerationConfig, gen llm.Generator) *Validator {
	return &Validator{cfg: cfg, gen: gen}
}

const judgePrompt = `You are reviewing a book report submitted to a reading community.
Answer with a single word: APPROVED if the text is a genuine book report,
REJECTED if it is spam, abuse, or unrelated to reading.

Report:
%s

Answer:`

// Validate runs the rule chain, then the LLM when enabled. Upstream
// LLM failures propagate as errors so the API edge can map them.
func (v *Validator) Validate(ctx context.Context, content string) (Result, error) {
	start := time.Now()

	for _, r := range rules {
		if reason := r(v.cfg, content); reason != "" {
			res := finish(Result{Verdict: VerdictRejected, Reason: reason, RuleBased: true}, start)
			logResult(res, len(content))
			return res, nil
		}
	}

	if !v.cfg.LLMEnabled || v.gen == nil {
		res := finish(Result{Verdict: VerdictApproved, RuleBased: true}, start)
		logResult(res, len(content))
		return res, nil
	}

	text, err := v.gen.Generate(ctx, fmt.Sprintf(judgePrompt, content))
	if err != nil {
		return Result{}, fmt.Errorf("llm judgment: %w", err)
	}

	res := Result{Verdict: VerdictApproved}
	if parseVerdict(text) == VerdictRejected {
		res = Result{Verdict: VerdictRejected, Reason: ReasonLLMRejected}
	}
	res = finish(res, start)
	logResult(res, len(content))
	return res, nil
}

// parseVerdict reads the model's answer leniently. Anything that does
// not clearly reject is approved, so a rambling model cannot block
// legitimate reports.
func parseVerdict(text string) string {
	upper := strings.ToUpper(text)
	if strings.Contains(upper, VerdictRejected) && !strings.Contains(upper, VerdictApproved) {
		return VerdictRejected
	}
	return VerdictApproved
}

func finish(res Result, start time.Time) Result {
	res.Elapsed = time.Since(start)
	res.ElapsedMS = res.Elapsed.Milliseconds()
	return res
}

func logResult(res Result, contentLen int) {
	logging.Info().
		Str("component", "moderation").
		Str("verdict", res.Verdict).
		Str("reason", res.Reason).
		Bool("rule_based", res.RuleBased).
		Int("content_len", contentLen).
		Dur("elapsed", res.Elapsed).
		Msg("report validated")
}
