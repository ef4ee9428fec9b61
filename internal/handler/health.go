// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/kenma/folio/internal/broadcast"
)

// healthCheckTimeout bounds the database ping.
const healthCheckTimeout = 5 * time.Second

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	db          *sql.DB
	broadcaster *broadcast.Broadcaster
	uploadsDir  string
	startedAt   time.Time
	version     string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB, bc *broadcast.Broadcaster, uploadsDir, version string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		broadcaster: bc,
		uploadsDir:  uploadsDir,
		startedAt:   time.Now(),
		version:     version,
	}
}

// Live handles GET /health/live. It answers as long as the process runs.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Ready handles GET /health/ready. It fails when the database or the
// uploads directory is unavailable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	if info, err := os.Stat(h.uploadsDir); err != nil || !info.IsDir() {
		writeError(w, http.StatusServiceUnavailable, "uploads directory unavailable")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Health handles GET /health with an operator-facing status document.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	dbStatus := "ok"
	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	uploadsStatus := "ok"
	if info, err := os.Stat(h.uploadsDir); err != nil || !info.IsDir() {
		uploadsStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"version":     h.version,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
		"database":    dbStatus,
		"uploads":     uploadsStatus,
		"subscribers": h.broadcaster.SubscriberCount(),
	}
	if status == http.StatusOK {
		writeSuccess(w, status, body)
		return
	}
	body["success"] = false
	writeJSON(w, status, body)
}
