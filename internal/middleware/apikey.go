// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package middleware

import (
	"crypto/subtle"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/moimlab/meetrec/internal/logging"
	"github.com/moimlab/meetrec/internal/models"
)

const apiKeyHeader = "x-api-key"

// APIKey guards routes with a shared key. With an empty configured key
// the guard is a no-op, matching local development setups. Only the
// length of a wrong key is ever logged.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				logging.Ctx(r.Context()).Warn().
					Str("path", r.URL.Path).
					Int("key_len", len(presented)).
					Msg("rejected request with invalid api key")
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    models.ErrCodeAuthentication,
			Message: "invalid or missing api key",
		},
	})
}
