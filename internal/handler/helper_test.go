// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kenma/folio/internal/broadcast"
	"github.com/kenma/folio/internal/middleware"
	"github.com/kenma/folio/internal/store"
)

const (
	testAdminUser = "admin"
	testAdminPass = "correct horse battery"
)

// stubRelay records contact notifications instead of sending them.
type stubRelay struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubRelay) SendContactNotification(name, email, subject, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	return s.err
}

func (s *stubRelay) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// testEnv wires the full HTTP surface against an in-memory database.
type testEnv struct {
	t          *testing.T
	db         *sql.DB
	queries    *store.Queries
	bc         *broadcast.Broadcaster
	relay      *stubRelay
	uploadsDir string
	server     *httptest.Server
	client     *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.NewDB(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bc := broadcast.New(logger)
	relay := &stubRelay{}
	uploadsDir := t.TempDir()

	sm := scs.New()
	authH := NewAuthHandler(db, sm, nil)
	projectsH := NewProjectsHandler(db, bc)
	settingsH := NewSettingsHandler(db, bc)
	contactH := NewContactHandler(db, relay)
	eventsH := NewEventsHandler(bc)
	uploadH := NewUploadHandler(uploadsDir)
	healthH := NewHealthHandler(db, bc, uploadsDir, "test")

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.LoadIdentity(sm, db))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/logout", authH.Logout)
		r.Get("/auth/me", authH.Me)
		r.Post("/auth/register", authH.Register)

		r.Get("/projects", projectsH.List)
		r.Get("/projects/{id}", projectsH.Get)
		r.Get("/settings", settingsH.Get)
		r.Post("/contact", contactH.Submit)
		r.Get("/events", eventsH.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/projects", projectsH.Create)
			r.Put("/projects/{id}", projectsH.Update)
			r.Delete("/projects/{id}", projectsH.Delete)
			r.Put("/settings", settingsH.Update)
			r.Post("/upload", uploadH.Upload)
		})
	})

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Live)
	r.Get("/health/ready", healthH.Ready)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		t:          t,
		db:         db,
		queries:    store.New(db),
		bc:         bc,
		relay:      relay,
		uploadsDir: uploadsDir,
		server:     server,
		client:     &http.Client{Jar: jar},
	}
}

// request performs a JSON request and decodes the envelope.
func (e *testEnv) request(method, path string, body any) (int, map[string]any) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

// seedAdmin provisions the admin account directly in the store.
func (e *testEnv) seedAdmin() {
	e.t.Helper()
	require.NoError(e.t, store.EnsureAdmin(context.Background(), e.db, testAdminUser, testAdminPass))
}

// login seeds the admin account and authenticates the client's cookie jar.
func (e *testEnv) login() {
	e.t.Helper()
	e.seedAdmin()

	status, envelope := e.request(http.MethodPost, "/api/auth/login", map[string]string{
		"username": testAdminUser,
		"password": testAdminPass,
	})
	require.Equal(e.t, http.StatusOK, status, "login failed: %v", envelope)
	require.Equal(e.t, true, envelope["success"])
}

// createProject inserts a project through the API and returns its ID.
func (e *testEnv) createProject(title string) int64 {
	e.t.Helper()

	status, envelope := e.request(http.MethodPost, "/api/projects", map[string]any{
		"title":       title,
		"description": "a description",
		"tags":        []string{"go"},
	})
	require.Equal(e.t, http.StatusCreated, status, "create failed: %v", envelope)

	project := envelope["project"].(map[string]any)
	return int64(project["id"].(float64))
}
