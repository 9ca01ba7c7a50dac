// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package quiz

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// ErrUnparseable is returned when no valid quiz can be read from the
// model output.
var ErrUnparseable = errors.New("quiz response unparseable")

type wireResult struct {
	Quiz    Quiz     `json:"quiz"`
	Choices []Choice `json:"quiz_choices"`
}

// parseResult reads the model output leniently: tries the raw text,
// then strips code fences, then grabs the outermost {...} block. The
// decoded quiz is validated before being accepted.
func parseResult(text string) (Result, error) {
	for _, candidate := range jsonCandidates(text) {
		var w wireResult
		if err := json.Unmarshal([]byte(candidate), &w); err != nil {
			continue
		}
		res := Result{Quiz: w.Quiz, Choices: w.Choices}
		if err := validateResult(res); err != nil {
			return Result{}, err
		}
		return res, nil
	}
	return Result{}, ErrUnparseable
}

func jsonCandidates(text string) []string {
	candidates := []string{text}

	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.Trim(cleaned, "`")
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "json"))
		candidates = append(candidates, cleaned)
	}

	// Outermost brace block, for answers wrapped in prose.
	if start := strings.Index(cleaned, "{"); start >= 0 {
		if end := strings.LastIndex(cleaned, "}"); end > start {
			candidates = append(candidates, cleaned[start:end+1])
		}
	}
	return candidates
}

func validateResult(res Result) error {
	if strings.TrimSpace(res.Quiz.Question) == "" {
		return fmt.Errorf("%w: empty question", ErrUnparseable)
	}
	if len(res.Choices) != 4 {
		return fmt.Errorf("%w: got %d choices, want 4", ErrUnparseable, len(res.Choices))
	}
	seen := make(map[int]bool, 4)
	for _, c := range res.Choices {
		if c.ChoiceNumber < 1 || c.ChoiceNumber > 4 || seen[c.ChoiceNumber] {
			return fmt.Errorf("%w: choice numbers must cover 1-4 exactly once", ErrUnparseable)
		}
		if strings.TrimSpace(c.ChoiceText) == "" {
			return fmt.Errorf("%w: empty choice text", ErrUnparseable)
		}
		seen[c.ChoiceNumber] = true
	}
	if !seen[res.Quiz.CorrectChoiceNumber] {
		return fmt.Errorf("%w: correct_choice_number %d outside choices", ErrUnparseable, res.Quiz.CorrectChoiceNumber)
	}
	return nil
}
