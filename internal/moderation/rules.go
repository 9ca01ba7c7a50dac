// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package moderation validates book-report submissions. Cheap lexical
// rules run first; only reports that pass every rule are escalated to
// the LLM for a content judgment.
package moderation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/moimlab/meetrec/internal/config"
)

// Reason codes attached to rejections.
const (
	ReasonTooShort          = "CONTENT_TOO_SHORT"
	ReasonTooLong           = "CONTENT_TOO_LONG"
	ReasonRepeatedWords     = "EXCESSIVE_WORD_REPETITION"
	ReasonRepeatedSentences = "REPEATED_SENTENCES"
	ReasonNoise             = "EXCESSIVE_NOISE"
	ReasonTooManyLinks      = "TOO_MANY_LINKS"
	ReasonTooManyTags       = "TOO_MANY_TAGS"
	ReasonRepeatedSequence  = "REPEATED_CHARACTER_SEQUENCE"
	ReasonLLMRejected       = "CONTENT_JUDGED_INVALID"
)

var (
	linkPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	// Sentences split on terminal punctuation or newlines.
	sentenceSplit = regexp.MustCompile(`[.!?။。]+|\n+`)
)

// rule checks one property of the content. Empty reason means pass.
type rule func(cfg config.ModerationConfig, content string) (reason string)

// rules run in order; the first failure wins.
var rules = []rule{
	checkLength,
	checkRepeatedWords,
	checkRepeatedSentences,
	checkNoise,
	checkLinksAndTags,
	checkRepeatedSequences,
	checkRepeatedPhrases,
}

func checkLength(cfg config.ModerationConfig, content string) string {
	n := len([]rune(strings.TrimSpace(content)))
	if n < cfg.MinContentLength {
		return ReasonTooShort
	}
	if n > cfg.MaxContentLength {
		return ReasonTooLong
	}
	return ""
}

// checkRepeatedWords rejects when one word dominates the text.
func checkRepeatedWords(cfg config.ModerationConfig, content string) string {
	words := strings.Fields(strings.ToLower(content))
	if len(words) < 10 {
		return ""
	}
	counts := make(map[string]int, len(words))
	max := 0
	for _, w := range words {
		counts[w]++
		if counts[w] > max {
			max = counts[w]
		}
	}
	if float64(max)/float64(len(words)) > cfg.MaxRepeatWordRatio {
		return ReasonRepeatedWords
	}
	return ""
}

func checkRepeatedSentences(cfg config.ModerationConfig, content string) string {
	counts := make(map[string]int)
	for _, raw := range sentenceSplit.Split(content, -1) {
		s := strings.ToLower(strings.TrimSpace(raw))
		if len([]rune(s)) < 5 {
			continue
		}
		counts[s]++
		if counts[s] >= cfg.MaxRepeatedSentences {
			return ReasonRepeatedSentences
		}
	}
	return ""
}

// checkNoise rejects text that is mostly symbols rather than language.
func checkNoise(cfg config.ModerationConfig, content string) string {
	var total, noise int
	for _, r := range content {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsPunct(r) {
			noise++
		}
	}
	if total == 0 {
		return ""
	}
	if float64(noise)/float64(total) > cfg.MaxNoiseRatio {
		return ReasonNoise
	}
	return ""
}

func checkLinksAndTags(cfg config.ModerationConfig, content string) string {
	if len(linkPattern.FindAllString(content, -1)) > cfg.MaxLinks {
		return ReasonTooManyLinks
	}
	if len(tagPattern.FindAllString(content, -1)) > cfg.MaxTags {
		return ReasonTooManyTags
	}
	return ""
}

// checkRepeatedSequences catches keyboard-mash padding like
// "ㅋㅋㅋㅋㅋㅋㅋㅋ" or "aaaaaaaaaa" stretched to meet the length
// minimum.
func checkRepeatedSequences(_ config.ModerationConfig, content string) string {
	const maxRun = 10
	var prev rune
	run := 0
	for _, r := range content {
		if r == prev && !unicode.IsSpace(r) {
			run++
			if run >= maxRun {
				return ReasonRepeatedSequence
			}
		} else {
			prev = r
			run = 1
		}
	}
	return ""
}

// checkRepeatedPhrases catches copy-paste spam where a short phrase is
// pasted back to back, like "재미있었다재미있었다재미있었다". A phrase
// is 3-20 runes without whitespace, repeated at least three times in a
// row.
func checkRepeatedPhrases(_ config.ModerationConfig, content string) string {
	const (
		minPhrase = 3
		maxPhrase = 20
		minRepeat = 3
	)
	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		for plen := 1; plen <= maxPhrase && i+plen*minRepeat <= len(runes); plen++ {
			if unicode.IsSpace(runes[i+plen-1]) {
				break
			}
			if plen < minPhrase {
				continue
			}
			phrase := runes[i : i+plen]
			repeats := 1
			for j := i + plen; j+plen <= len(runes) && runesEqual(phrase, runes[j:j+plen]); j += plen {
				repeats++
				if repeats >= minRepeat {
					return ReasonRepeatedSequence
				}
			}
		}
	}
	return ""
}

func runesEqual(a, b []rune) bool {
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}
