// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// settingsID pins the singleton row.
const settingsID = 1

const getSettings = `
SELECT id, site_title, primary_color, font_family, profile_image, skills, updated_at
FROM settings WHERE id = ?
`

// GetSettings fetches the singleton settings row.
// Returns sql.ErrNoRows if it has not been materialized yet.
func (q *Queries) GetSettings(ctx context.Context) (Settings, error) {
	row := q.db.QueryRowContext(ctx, getSettings, settingsID)
	var s Settings
	err := row.Scan(&s.ID, &s.SiteTitle, &s.PrimaryColor, &s.FontFamily, &s.ProfileImage, &s.Skills, &s.UpdatedAt)
	return s, err
}

const insertDefaultSettings = `
INSERT INTO settings (id, site_title, primary_color, font_family, profile_image, skills, updated_at)
VALUES (?, ?, ?, ?, '', '[]', ?)
ON CONFLICT (id) DO NOTHING
`

// EnsureSettingsParams holds the defaults used when the settings row is
// first materialized.
type EnsureSettingsParams struct {
	SiteTitle    string
	PrimaryColor string
	FontFamily   string
}

// EnsureSettings materializes the settings row with defaults if it does not
// exist, then returns it. Concurrent first reads are safe: the fixed primary
// key plus ON CONFLICT DO NOTHING makes the insert a no-op for all but one
// caller.
func (q *Queries) EnsureSettings(ctx context.Context, arg EnsureSettingsParams) (Settings, error) {
	_, err := q.db.ExecContext(ctx, insertDefaultSettings,
		settingsID, arg.SiteTitle, arg.PrimaryColor, arg.FontFamily, time.Now().UTC())
	if err != nil {
		return Settings{}, err
	}
	return q.GetSettings(ctx)
}

const updateSettings = `
UPDATE settings
SET site_title = ?, primary_color = ?, font_family = ?, profile_image = ?, skills = ?, updated_at = ?
WHERE id = ?
RETURNING id, site_title, primary_color, font_family, profile_image, skills, updated_at
`

// UpdateSettingsParams holds the full replacement state for the settings row.
// Merge-patch semantics live in the handler, which reads the current row and
// overlays only the provided fields before calling this.
type UpdateSettingsParams struct {
	SiteTitle    string
	PrimaryColor string
	FontFamily   string
	ProfileImage string
	Skills       string
	UpdatedAt    time.Time
}

// UpdateSettings writes the settings row and returns the stored state.
func (q *Queries) UpdateSettings(ctx context.Context, arg UpdateSettingsParams) (Settings, error) {
	row := q.db.QueryRowContext(ctx, updateSettings,
		arg.SiteTitle, arg.PrimaryColor, arg.FontFamily, arg.ProfileImage, arg.Skills, arg.UpdatedAt, settingsID)
	var s Settings
	err := row.Scan(&s.ID, &s.SiteTitle, &s.PrimaryColor, &s.FontFamily, &s.ProfileImage, &s.Skills, &s.UpdatedAt)
	return s, err
}

const countSettings = `SELECT COUNT(*) FROM settings`

// CountSettings returns how many settings rows exist. Used by tests to
// assert the singleton invariant.
func (q *Queries) CountSettings(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countSettings).Scan(&n)
	return n, err
}
