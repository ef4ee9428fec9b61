// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/kenma/folio/internal/model"
	"github.com/kenma/folio/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyIdentity carries the resolved identity for the request.
const ContextKeyIdentity ContextKey = "identity"

// SessionKeyUserID is the session key for storing the authenticated user ID.
const SessionKeyUserID = "user_id"

// Identity is the resolved result of the session check for one request.
// Handlers receive this explicitly through the request context instead of
// reaching back into the session store themselves.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin reports whether the identity belongs to an admin account.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == model.RoleAdmin
}

// LoadIdentity resolves the session into an Identity and stores it in the
// request context. A request with no valid session, or whose session points
// at a deleted user, continues without an identity; enforcement happens in
// RequireAdmin.
func LoadIdentity(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				// Stale session referencing a removed user: drop it.
				_ = sm.Destroy(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			identity := &Identity{
				UserID:   user.ID,
				Username: user.Username,
				Role:     user.Role,
			}
			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the resolved identity from the request context.
// Returns nil for unauthenticated requests.
func GetIdentity(r *http.Request) *Identity {
	identity, ok := r.Context().Value(ContextKeyIdentity).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// RequireAdmin fails closed before any handler body runs: requests without
// an authenticated admin identity are rejected with a uniform 401 envelope
// and cause no side effects. The response deliberately does not distinguish
// "no session" from "session without the right role".
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r).IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"msg":     "Unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
