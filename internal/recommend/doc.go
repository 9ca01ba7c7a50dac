// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package recommend implements the live recommendation engine.
//
// The engine blends the scores of independent algorithms (content,
// covisit, popularity) with configured weights over the pool of
// recruiting meetings, excluding meetings the user leads or has
// already engaged with, then applies the genre diversity reranker and
// serves results through a TTL cache. Training is serialized and
// rebuilds every algorithm from the aggregated interaction log.
package recommend
