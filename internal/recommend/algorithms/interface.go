// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package algorithms implements the scoring algorithms behind the
// recommendation engine: content-based preference matching,
// co-interaction counting and time-decayed popularity.
//
// Every algorithm embeds BaseAlgorithm, which provides the lock
// discipline: Train takes the write lock, Score takes the read lock.
package algorithms

import (
	"math"
	"sync"
)

// BaseAlgorithm provides shared training-state handling. Embedding
// types call lock/unlock around state rebuilds and rLock/rUnlock
// around scoring.
type BaseAlgorithm struct {
	mu      sync.RWMutex
	trained bool
}

func (b *BaseAlgorithm) lock()    { b.mu.Lock() }
func (b *BaseAlgorithm) unlock()  { b.mu.Unlock() }
func (b *BaseAlgorithm) rLock()   { b.mu.RLock() }
func (b *BaseAlgorithm) rUnlock() { b.mu.RUnlock() }

func (b *BaseAlgorithm) setTrained() {
	b.trained = true
}

// Trained reports whether Train has completed at least once.
func (b *BaseAlgorithm) Trained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// jaccardSimilarity computes |a ∩ b| / |a ∪ b| over code sets.
func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for code := range a {
		if _, ok := b[code]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// cosineSimilarity computes the cosine of two sparse vectors keyed by
// meeting ID.
func cosineSimilarity(a, b map[int64]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}
