// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"FOLIO_DB_PATH" envDefault:"./data/folio.db"`
	ServerHost string `env:"FOLIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"FOLIO_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"FOLIO_ENV" envDefault:"development"`
	LogLevel   string `env:"FOLIO_LOG_LEVEL" envDefault:"info"`
	UploadsDir string `env:"FOLIO_UPLOADS_DIR" envDefault:"./uploads"`

	// Admin bootstrap credentials. The admin account is provisioned from
	// these at startup; there is no registration endpoint.
	AdminUsername string `env:"FOLIO_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"FOLIO_ADMIN_PASSWORD,required"`

	// SMTP relay for contact-form notifications (optional).
	SMTPHost     string `env:"FOLIO_SMTP_HOST"`
	SMTPPort     int    `env:"FOLIO_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"FOLIO_SMTP_USERNAME"`
	SMTPPassword string `env:"FOLIO_SMTP_PASSWORD"`
	SMTPFrom     string `env:"FOLIO_SMTP_FROM"`
	ContactEmail string `env:"FOLIO_CONTACT_EMAIL"` // where contact submissions are relayed
}

// MinAdminPasswordLength is the minimum accepted bootstrap password length.
const MinAdminPasswordLength = 8

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MailEnabled returns true if an SMTP relay is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && c.ContactEmail != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.AdminPassword) < MinAdminPasswordLength {
		return nil, fmt.Errorf("FOLIO_ADMIN_PASSWORD must be at least %d characters long, got %d",
			MinAdminPasswordLength, len(cfg.AdminPassword))
	}

	return cfg, nil
}
