// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/kenma/folio/internal/auth"
	"github.com/kenma/folio/internal/middleware"
	"github.com/kenma/folio/internal/store"
)

// AuthHandler handles login, logout and identity routes.
type AuthHandler struct {
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// loginRequest is the body of POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userPayload is the identity shape returned to clients.
type userPayload struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if h.loginProtection != nil {
		if !h.loginProtection.CheckIPRateLimit(middleware.RemoteIP(r)) {
			writeError(w, http.StatusTooManyRequests, "Too many requests, slow down")
			return
		}
		if locked, _ := h.loginProtection.IsAccountLocked(req.Username); locked {
			slog.Warn("login attempt on locked account", "username", req.Username, "ip", middleware.RemoteIP(r))
			writeError(w, http.StatusTooManyRequests, "Account temporarily locked, try again later")
			return
		}
	}

	user, err := h.queries.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for unknown user", "username", req.Username)
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record the failure even for unknown users to prevent enumeration.
		h.recordFailure(req.Username)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !valid {
		slog.Debug("invalid password attempt", "username", req.Username)
		h.recordFailure(req.Username)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(req.Username)
	}

	// Re-hash if stored parameters are stale.
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    time.Now().UTC(),
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: time.Now().UTC(),
		ID:          user.ID,
	}); err != nil {
		// Not worth failing the login over.
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate the session token to prevent session fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	writeSuccess(w, http.StatusOK, map[string]any{
		"user": userPayload{Username: user.Username, Role: user.Role},
	})
}

// Logout handles POST /api/auth/logout. It destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if userID > 0 {
		slog.Info("user logged out", "user_id", userID)
	}
	writeSuccess(w, http.StatusOK, map[string]any{"msg": "Logged out"})
}

// Me handles GET /api/auth/me. It reports the resolved identity for the
// current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user": userPayload{Username: identity.Username, Role: identity.Role},
	})
}

// Register handles POST /api/auth/register. Registration is permanently
// disabled: admin accounts are provisioned from configuration at startup.
func (h *AuthHandler) Register(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusForbidden, "Registration is disabled")
}

// recordFailure tracks a failed login against the account name.
func (h *AuthHandler) recordFailure(username string) {
	if h.loginProtection == nil {
		return
	}
	if locked, duration := h.loginProtection.RecordFailedAttempt(username); locked {
		slog.Warn("account locked", "username", username, "duration", duration)
	}
}
