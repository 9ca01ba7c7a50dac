// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/moimlab/meetrec/internal/config"
)

func modCfg() config.ModerationConfig {
	return config.ModerationConfig{
		MinContentLength:     50,
		MaxContentLength:     5000,
		MaxRepeatWordRatio:   0.35,
		MaxRepeatedSentences: 3,
		MaxNoiseRatio:        0.25,
		MaxLinks:             2,
		MaxTags:              2,
	}
}

// goodReport is long enough and varied enough to pass every rule.
const goodReport = `This novel follows a family through three generations of change.
The author builds each character slowly, letting small decisions reveal who they are.
I was struck by how the middle chapters reframe the opening scene entirely.
The ending felt earned rather than convenient, which is rare in this genre.
I would recommend it to anyone who enjoys patient, character-driven storytelling.`

type fakeGenerator struct {
	text string
	err  error
}

func (g *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	return g.text, g.err
}

func TestRulesReject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{
			name:    "too short",
			content: "great book",
			reason:  ReasonTooShort,
		},
		{
			name:    "too long",
			content: strings.Repeat("a varied sentence about reading books here. ", 200),
			reason:  ReasonTooLong,
		},
		{
			name:    "one word dominates",
			content: strings.Repeat("book ", 40) + "was fine and I liked reading it a lot",
			reason:  ReasonRepeatedWords,
		},
		{
			name: "copied sentence three times",
			content: strings.Repeat("I really enjoyed reading this wonderful novel today. ", 3) +
				"It was about many different things happening.",
			reason: ReasonRepeatedSentences,
		},
		{
			name:    "mostly symbols",
			content: "good book → ★★★★★ ♥♥♥♥♥ ☆☆☆☆☆ ♦♦♦♦ ♣♣♣♣ ♠♠♠♠ ✓✓✓✓ ✗✗✗✗ →→→→ ←←←←",
			reason:  ReasonNoise,
		},
		{
			name: "too many links",
			content: goodReport +
				" http://a.example http://b.example http://c.example",
			reason: ReasonTooManyLinks,
		},
		{
			name:    "too many tags",
			content: goodReport + " #books #reading #bestseller",
			reason:  ReasonTooManyTags,
		},
		{
			name:    "stretched character run",
			content: "This book was sooooooooooooooo good I cannot even describe how much I liked it honestly.",
			reason:  ReasonRepeatedSequence,
		},
		{
			name: "phrase pasted back to back",
			content: "재미있었다재미있었다재미있었다 정말 감동적인 책이었고 모두에게 추천하고 싶은 소설입니다 " +
				"작가의 문체가 특히 좋았고 끝까지 몰입해서 읽었습니다",
			reason: ReasonRepeatedSequence,
		},
	}

	v := NewValidator(modCfg(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), tt.content)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if res.Verdict != VerdictRejected {
				t.Fatalf("Validate() verdict = %s, want REJECTED", res.Verdict)
			}
			if res.Reason != tt.reason {
				t.Errorf("Validate() reason = %s, want %s", res.Reason, tt.reason)
			}
			if !res.RuleBased {
				t.Error("Validate() RuleBased = false, want true")
			}
		})
	}
}

func TestCleanReportApprovedWithoutLLM(t *testing.T) {
	v := NewValidator(modCfg(), nil)
	res, err := v.Validate(context.Background(), goodReport)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Verdict != VerdictApproved {
		t.Errorf("Validate() verdict = %s, want APPROVED", res.Verdict)
	}
}

func TestLLMEscalation(t *testing.T) {
	cfg := modCfg()
	cfg.LLMEnabled = true

	tests := []struct {
		name    string
		answer  string
		verdict string
		reason  string
	}{
		{"clean approval", "APPROVED", VerdictApproved, ""},
		{"clean rejection", "REJECTED", VerdictRejected, ReasonLLMRejected},
		{"wrapped rejection", "The verdict is: REJECTED, because this is spam.", VerdictRejected, ReasonLLMRejected},
		{"rambling answer defaults to approval", "I think this report seems plausible enough.", VerdictApproved, ""},
		{"contradictory answer defaults to approval", "APPROVED or maybe REJECTED, hard to say", VerdictApproved, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(cfg, &fakeGenerator{text: tt.answer})
			res, err := v.Validate(context.Background(), goodReport)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if res.Verdict != tt.verdict || res.Reason != tt.reason {
				t.Errorf("Validate() = %s/%s, want %s/%s", res.Verdict, res.Reason, tt.verdict, tt.reason)
			}
			if res.RuleBased {
				t.Error("Validate() RuleBased = true for an LLM verdict")
			}
		})
	}
}

func TestLLMFailurePropagates(t *testing.T) {
	cfg := modCfg()
	cfg.LLMEnabled = true
	upstream := errors.New("connection refused")

	v := NewValidator(cfg, &fakeGenerator{err: upstream})
	_, err := v.Validate(context.Background(), goodReport)
	if !errors.Is(err, upstream) {
		t.Errorf("Validate() error = %v, want wrapped upstream error", err)
	}
}

func TestRulesShortCircuitBeforeLLM(t *testing.T) {
	cfg := modCfg()
	cfg.LLMEnabled = true

	// Generator that fails loudly if called.
	v := NewValidator(cfg, &fakeGenerator{err: errors.New("must not be called")})
	res, err := v.Validate(context.Background(), "too short")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Verdict != VerdictRejected || res.Reason != ReasonTooShort {
		t.Errorf("Validate() = %s/%s", res.Verdict, res.Reason)
	}
}
