// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kenma/folio/internal/store"
)

// Field length caps for contact submissions.
const (
	maxContactNameLen    = 200
	maxContactSubjectLen = 300
	maxContactMessageLen = 10000
)

// ContactRelay is the notification side of a contact submission. Satisfied
// by *mail.Mailer; tests substitute their own.
type ContactRelay interface {
	SendContactNotification(name, email, subject, message string) error
}

// ContactHandler handles POST /api/contact.
type ContactHandler struct {
	db        *sql.DB
	queries   *store.Queries
	relay     ContactRelay
	sanitizer *bluemonday.Policy
}

// NewContactHandler creates a new ContactHandler. relay may be nil when no
// mail relay is configured.
func NewContactHandler(db *sql.DB, relay ContactRelay) *ContactHandler {
	return &ContactHandler{
		db:        db,
		queries:   store.New(db),
		relay:     relay,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// contactRequest is the body of POST /api/contact.
type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// validate trims, sanitizes and checks the submission in place.
func (h *ContactHandler) validate(req *contactRequest) string {
	req.Name = strings.TrimSpace(h.sanitizer.Sanitize(req.Name))
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(h.sanitizer.Sanitize(req.Subject))
	req.Message = strings.TrimSpace(h.sanitizer.Sanitize(req.Message))

	switch {
	case req.Name == "":
		return "Name is required"
	case req.Email == "":
		return "Email is required"
	case req.Message == "":
		return "Message is required"
	}

	// Name and subject end up in mail headers; line breaks would let a
	// visitor append headers of their own.
	if strings.ContainsAny(req.Name, "\r\n") {
		return "Name contains invalid characters"
	}
	if strings.ContainsAny(req.Subject, "\r\n") {
		return "Subject contains invalid characters"
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "Invalid email address"
	}

	switch {
	case len(req.Name) > maxContactNameLen:
		return "Name is too long"
	case len(req.Subject) > maxContactSubjectLen:
		return "Subject is too long"
	case len(req.Message) > maxContactMessageLen:
		return "Message is too long"
	}
	return ""
}

// Submit handles POST /api/contact. The submission is persisted first; mail
// relay is fire-and-forget and never affects the response.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := h.validate(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	contact, err := h.queries.CreateContact(r.Context(), store.CreateContactParams{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to store contact submission", "error", err)
		writeStoreError(w, h.db)
		return
	}

	if h.relay != nil {
		go func(c store.Contact) {
			if err := h.relay.SendContactNotification(c.Name, c.Email, c.Subject, c.Message); err != nil {
				slog.Warn("contact notification not delivered", "error", err, "contact_id", c.ID)
			}
		}(contact)
	}

	slog.Info("contact submission stored", "contact_id", contact.ID)
	writeSuccess(w, http.StatusCreated, map[string]any{"msg": "Message received"})
}
