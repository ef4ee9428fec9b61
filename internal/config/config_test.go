// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FOLIO_ADMIN_PASSWORD", "correct-horse-battery")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DBPath != "./data/folio.db" {
		t.Errorf("DBPath = %q, want ./data/folio.db", cfg.DBPath)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if cfg.AdminUsername != "admin" {
		t.Errorf("AdminUsername = %q, want admin", cfg.AdminUsername)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_MissingAdminPassword(t *testing.T) {
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when FOLIO_ADMIN_PASSWORD is unset")
	}
}

func TestLoad_ShortAdminPassword(t *testing.T) {
	t.Setenv("FOLIO_ADMIN_PASSWORD", "short")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for short admin password")
	}
	if !strings.Contains(err.Error(), "FOLIO_ADMIN_PASSWORD") {
		t.Errorf("error %q should name the offending variable", err)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := Config{ServerHost: "0.0.0.0", ServerPort: 9000}
	if got := cfg.ServerAddr(); got != "0.0.0.0:9000" {
		t.Errorf("ServerAddr() = %q, want 0.0.0.0:9000", got)
	}
}

func TestMailEnabled(t *testing.T) {
	cfg := Config{}
	if cfg.MailEnabled() {
		t.Error("MailEnabled() = true with no SMTP config")
	}

	cfg = Config{SMTPHost: "smtp.example.com", SMTPFrom: "folio@example.com", ContactEmail: "me@example.com"}
	if !cfg.MailEnabled() {
		t.Error("MailEnabled() = false with full SMTP config")
	}
}
