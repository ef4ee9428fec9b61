// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// RateLimiter applies a per-IP token bucket to a route group. Used on the
// public contact endpoint to keep one visitor from flooding the inbox.
type RateLimiter struct {
	limiters *limiterCache[string]
}

// NewRateLimiter creates a RateLimiter allowing rps requests per second
// with the given burst per remote IP.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{limiters: newLimiterCache[string](rps, burst)}
}

// Middleware rejects over-limit requests with a 429 JSON envelope.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.limiters.get(RemoteIP(r)).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"msg":     "Too many requests, slow down",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RemoteIP strips the port from RemoteAddr. chi's RealIP middleware has
// already folded forwarded headers in when trusted.
func RemoteIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i != -1 {
		return addr[:i]
	}
	return addr
}
