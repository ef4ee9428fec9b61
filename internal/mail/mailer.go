// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mail relays contact-form submissions over SMTP. Delivery is a
// secondary effect: the submission is already persisted before the relay
// is attempted, and send failures are logged, never surfaced to the
// visitor.
package mail

import (
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"sync/atomic"
	"time"
)

// probeTimeout bounds the startup connectivity check.
const probeTimeout = 10 * time.Second

// Config holds SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string // where contact submissions are relayed
}

// sendFunc matches smtp.SendMail, injectable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer is the SMTP relay collaborator.
type Mailer struct {
	cfg    Config
	ready  atomic.Bool
	logger *slog.Logger
	send   sendFunc
}

// New creates a Mailer. Call Probe once at startup to establish readiness;
// readiness is not re-verified per send.
func New(cfg Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		cfg:    cfg,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// addr returns the host:port dial address.
func (m *Mailer) addr() string {
	return fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
}

// Probe checks SMTP connectivity once and records the result. A mailer
// that never probed, or whose probe failed, silently skips sends.
func (m *Mailer) Probe() bool {
	if m.cfg.Host == "" {
		m.logger.Info("mail relay not configured, contact notifications disabled")
		return false
	}

	conn, err := net.DialTimeout("tcp", m.addr(), probeTimeout)
	if err != nil {
		m.logger.Warn("mail relay unreachable, contact notifications disabled",
			"addr", m.addr(), "error", err)
		return false
	}
	_ = conn.Close()

	m.ready.Store(true)
	m.logger.Info("mail relay ready", "addr", m.addr())
	return true
}

// Ready reports whether the startup probe succeeded.
func (m *Mailer) Ready() bool {
	return m.ready.Load()
}

// SendContactNotification relays one contact submission. Returns an error
// for logging; callers must not surface it to the visitor.
func (m *Mailer) SendContactNotification(name, email, subject, message string) error {
	if !m.Ready() {
		return fmt.Errorf("mail relay not ready")
	}

	msg := buildContactMessage(m.cfg.From, m.cfg.To, name, email, subject, message)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(m.addr(), auth, m.cfg.From, []string{m.cfg.To}, msg); err != nil {
		return fmt.Errorf("sending contact notification: %w", err)
	}

	m.logger.Info("contact notification sent", "to", m.cfg.To)
	return nil
}

// sanitizeHeader flattens CR and LF to spaces so visitor-supplied text
// cannot smuggle extra headers into the message.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// buildContactMessage constructs the RFC 822 message body.
func buildContactMessage(from, to, name, email, subject, message string) []byte {
	var b strings.Builder

	name = sanitizeHeader(name)
	email = sanitizeHeader(email)

	displaySubject := sanitizeHeader(subject)
	if displaySubject == "" {
		displaySubject = "New contact form submission"
	}

	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	b.WriteString(fmt.Sprintf("Reply-To: %s <%s>\r\n", name, email))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", displaySubject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(fmt.Sprintf("Name: %s\r\n", name))
	b.WriteString(fmt.Sprintf("Email: %s\r\n", email))
	b.WriteString("\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")

	return []byte(b.String())
}
