// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package vector provides the text embedder and the in-memory
// similarity index behind the weekly recommendation batch. Meetings
// and user tastes are rendered to template sentences, hashed into a
// fixed-dimension vector and compared by inner product over
// L2-normalized vectors, which makes the inner product equal to
// cosine similarity.
package vector

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimension is the embedding width. Feature hashing keeps it
// independent of vocabulary size.
const DefaultDimension = 256

// Embedder turns text into a fixed-width vector via the hashing trick.
// Tokens are sign-hashed so collisions partially cancel instead of
// always accumulating.
type Embedder struct {
	dim int
}

// NewEmbedder returns an embedder with the given dimension.
// Non-positive dimensions fall back to DefaultDimension.
func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Embedder{dim: dim}
}

// Dimension returns the embedding width.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Embed hashes the text's word unigrams and bigrams into an
// L2-normalized vector. Empty or whitespace-only text yields a zero
// vector.
func (e *Embedder) Embed(text string) []float32 {
	vec := make([]float32, e.dim)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	for i, tok := range tokens {
		e.add(vec, tok)
		if i+1 < len(tokens) {
			e.add(vec, tok+" "+tokens[i+1])
		}
	}
	Normalize(vec)
	return vec
}

func (e *Embedder) add(vec []float32, token string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dim))
	// Top bit decides the sign.
	if sum&(1<<63) != 0 {
		vec[idx] -= 1
	} else {
		vec[idx] += 1
	}
}

// tokenize lowercases and splits on anything that is not a letter or
// digit. Works for Korean text too since Hangul is letter-class.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalize scales vec to unit length in place. Zero vectors are left
// unchanged.
func Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// Dot returns the inner product of two vectors of equal length.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
