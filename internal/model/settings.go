// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Default values for the lazily created settings document.
const (
	DefaultSiteTitle    = "Kenma Portfolio"
	DefaultPrimaryColor = "#ffd900"
	DefaultFontFamily   = "Varela Round, sans-serif"
)

// Skill is a single entry in the settings skills list. Value is the
// proficiency percentage rendered as a progress bar on the public page.
type Skill struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}
