// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kenma/folio/internal/broadcast"
)

// keepAliveInterval spaces the SSE comment pings that keep proxies from
// reaping idle connections.
const keepAliveInterval = 30 * time.Second

// retryMillis is the reconnect delay hint sent to EventSource clients.
const retryMillis = 10000

// EventsHandler serves the live-update stream.
type EventsHandler struct {
	broadcaster *broadcast.Broadcaster
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(bc *broadcast.Broadcaster) *EventsHandler {
	return &EventsHandler{broadcaster: bc}
}

// Stream handles GET /api/events. Each connected client gets every event
// broadcast after it connected; there is no replay of earlier events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	// The server-wide write timeout would sever long-lived streams.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("cannot clear write deadline for event stream", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	sub := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(sub)

	slog.Debug("event stream opened", "remote", r.RemoteAddr,
		"subscribers", h.broadcaster.SubscriberCount())

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("event stream closed", "remote", r.RemoteAddr)
			return
		case payload, ok := <-sub.C():
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
