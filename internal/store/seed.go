// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kenma/folio/internal/auth"
	"github.com/kenma/folio/internal/model"
)

// EnsureAdmin provisions the admin account from configuration. It is
// idempotent: if the username already exists, nothing is written. This is
// the only way an account comes into existence; the registration endpoint
// is permanently disabled.
func EnsureAdmin(ctx context.Context, db *sql.DB, username, password string) error {
	queries := New(db)

	_, err := queries.GetUserByUsername(ctx, username)
	if err == nil {
		slog.Info("admin user already exists, skipping bootstrap", "username", username)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "username", user.Username)
	return nil
}
