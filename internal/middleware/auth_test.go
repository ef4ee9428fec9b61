// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	_ "modernc.org/sqlite"

	"github.com/kenma/folio/internal/model"
	"github.com/kenma/folio/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'admin',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			last_login_at DATETIME
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, username, role string) store.User {
	t.Helper()
	now := time.Now().UTC()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// withSession wraps a handler with scs session middleware and optionally
// seeds the session with a user ID before the wrapped chain runs.
func withSession(sm *scs.SessionManager, userID int64, next http.Handler) http.Handler {
	return sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != 0 {
			sm.Put(r.Context(), SessionKeyUserID, userID)
		}
		next.ServeHTTP(w, r)
	}))
}

func TestLoadIdentity_NoSession(t *testing.T) {
	db := testDB(t)
	sm := scs.New()

	var identity *Identity
	h := withSession(sm, 0, LoadIdentity(sm, db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = GetIdentity(r)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if identity != nil {
		t.Errorf("identity = %+v, want nil for unauthenticated request", identity)
	}
}

func TestLoadIdentity_ResolvesUser(t *testing.T) {
	db := testDB(t)
	sm := scs.New()
	user := createTestUser(t, db, "kenma", model.RoleAdmin)

	var identity *Identity
	h := withSession(sm, user.ID, LoadIdentity(sm, db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = GetIdentity(r)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if identity == nil {
		t.Fatal("expected identity for authenticated request")
	}
	if identity.Username != "kenma" || !identity.IsAdmin() {
		t.Errorf("identity = %+v, want admin kenma", identity)
	}
}

func TestLoadIdentity_StaleSession(t *testing.T) {
	db := testDB(t)
	sm := scs.New()

	var identity *Identity
	// Session points at a user ID that does not exist.
	h := withSession(sm, 999, LoadIdentity(sm, db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = GetIdentity(r)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if identity != nil {
		t.Errorf("identity = %+v, want nil for stale session", identity)
	}
}

func TestRequireAdmin_RejectsUnauthenticated(t *testing.T) {
	called := false
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/projects", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Error("handler ran for unauthenticated request")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["msg"] != "Unauthorized" {
		t.Errorf("msg = %v, want Unauthorized", body["msg"])
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	called := false
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	identity := &Identity{UserID: 1, Username: "kenma", Role: model.RoleAdmin}
	req := httptest.NewRequest(http.MethodPost, "/api/projects", nil)
	req = req.WithContext(context.WithValue(req.Context(), ContextKeyIdentity, identity))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("handler did not run for admin request")
	}
}
