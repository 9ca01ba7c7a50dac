// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package vector

import (
	"errors"
	"sort"
	"sync"
)

// ErrEmptyIndex is returned when searching an index with no entries.
var ErrEmptyIndex = errors.New("vector index is empty")

// ErrDimensionMismatch is returned when a vector's width does not
// match the index.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Match is one search hit.
type Match struct {
	ID    int64
	Score float32
}

// Index is an exact inner-product index over L2-normalized vectors.
// The corpus is small (hundreds of meetings), so brute force beats an
// approximate structure here.
type Index struct {
	mu      sync.RWMutex
	dim     int
	ids     []int64
	vectors [][]float32
}

// NewIndex returns an empty index for vectors of the given width.
func NewIndex(dim int) *Index {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Index{dim: dim}
}

// Build replaces the index contents. ids and vectors must be the same
// length and every vector must match the index dimension.
func (idx *Index) Build(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.New("ids and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) != idx.dim {
			return ErrDimensionMismatch
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.ids = append([]int64(nil), ids...)
	idx.vectors = append([][]float32(nil), vectors...)
	return nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Search returns up to k entries with the highest inner product
// against query, best first. Ties keep insertion order.
func (idx *Index) Search(query []float32, k int) ([]Match, error) {
	if len(query) != idx.dim {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.ids) == 0 {
		return nil, ErrEmptyIndex
	}

	matches := make([]Match, len(idx.ids))
	for i, vec := range idx.vectors {
		matches[i] = Match{ID: idx.ids[i], Score: Dot(query, vec)}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}
