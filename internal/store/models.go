// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is an admin account row.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// Project is a portfolio entry row. Tags is a JSON-encoded string array.
type Project struct {
	ID          int64
	Title       string
	Description string
	Tags        string
	ImageUrl    string
	Url         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settings is the singleton site settings row. Skills is a JSON-encoded
// array of {name, value} objects.
type Settings struct {
	ID           int64
	SiteTitle    string
	PrimaryColor string
	FontFamily   string
	ProfileImage string
	Skills       string
	UpdatedAt    time.Time
}

// Contact is an append-only contact-form submission row.
type Contact struct {
	ID        int64
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt time.Time
}
