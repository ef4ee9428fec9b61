// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kenma/folio/internal/broadcast"
	"github.com/kenma/folio/internal/model"
	"github.com/kenma/folio/internal/store"
)

// SettingsHandler handles the site settings routes.
type SettingsHandler struct {
	db          *sql.DB
	queries     *store.Queries
	broadcaster *broadcast.Broadcaster
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(db *sql.DB, bc *broadcast.Broadcaster) *SettingsHandler {
	return &SettingsHandler{
		db:          db,
		queries:     store.New(db),
		broadcaster: bc,
	}
}

// SettingsResponse represents the settings document in API responses.
type SettingsResponse struct {
	SiteTitle    string        `json:"siteTitle"`
	PrimaryColor string        `json:"primaryColor"`
	FontFamily   string        `json:"fontFamily"`
	ProfileImage string        `json:"profileImage"`
	Skills       []model.Skill `json:"skills"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// settingsRequest is the body of PUT /api/settings. All fields are
// optional; absent fields leave the stored value untouched.
type settingsRequest struct {
	SiteTitle    *string        `json:"siteTitle"`
	PrimaryColor *string        `json:"primaryColor"`
	FontFamily   *string        `json:"fontFamily"`
	ProfileImage *string        `json:"profileImage"`
	Skills       *[]model.Skill `json:"skills"`
}

// storeSettingsToResponse converts a store.Settings to SettingsResponse.
func storeSettingsToResponse(s store.Settings) SettingsResponse {
	skills := []model.Skill{}
	if err := json.Unmarshal([]byte(s.Skills), &skills); err != nil {
		slog.Error("corrupt skills column", "error", err)
		skills = []model.Skill{}
	}
	return SettingsResponse{
		SiteTitle:    s.SiteTitle,
		PrimaryColor: s.PrimaryColor,
		FontFamily:   s.FontFamily,
		ProfileImage: s.ProfileImage,
		Skills:       skills,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ensure materializes the settings row with defaults on first access.
func (h *SettingsHandler) ensure(r *http.Request) (store.Settings, error) {
	return h.queries.EnsureSettings(r.Context(), store.EnsureSettingsParams{
		SiteTitle:    model.DefaultSiteTitle,
		PrimaryColor: model.DefaultPrimaryColor,
		FontFamily:   model.DefaultFontFamily,
	})
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.ensure(r)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		writeStoreError(w, h.db)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"settings": storeSettingsToResponse(settings)})
}

// Update handles PUT /api/settings. Admin only. The request is a merge
// patch: only fields present in the body are overwritten.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if msg := validateSettingsPatch(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	current, err := h.ensure(r)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		writeStoreError(w, h.db)
		return
	}

	params := store.UpdateSettingsParams{
		SiteTitle:    current.SiteTitle,
		PrimaryColor: current.PrimaryColor,
		FontFamily:   current.FontFamily,
		ProfileImage: current.ProfileImage,
		Skills:       current.Skills,
		UpdatedAt:    time.Now().UTC(),
	}
	if req.SiteTitle != nil {
		params.SiteTitle = strings.TrimSpace(*req.SiteTitle)
	}
	if req.PrimaryColor != nil {
		params.PrimaryColor = strings.TrimSpace(*req.PrimaryColor)
	}
	if req.FontFamily != nil {
		params.FontFamily = strings.TrimSpace(*req.FontFamily)
	}
	if req.ProfileImage != nil {
		params.ProfileImage = strings.TrimSpace(*req.ProfileImage)
	}
	if req.Skills != nil {
		b, err := json.Marshal(*req.Skills)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid skills list")
			return
		}
		params.Skills = string(b)
	}

	updated, err := h.queries.UpdateSettings(r.Context(), params)
	if err != nil {
		slog.Error("failed to update settings", "error", err)
		writeStoreError(w, h.db)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(broadcast.EventSettingsUpdated, broadcast.Timestamped{
			UpdatedAt: updated.UpdatedAt,
		})
	}
	writeSuccess(w, http.StatusOK, map[string]any{"settings": storeSettingsToResponse(updated)})
}

// validateSettingsPatch rejects values that would render the public page
// unusable. Absent fields are fine; present fields must be well formed.
func validateSettingsPatch(req *settingsRequest) string {
	if req.SiteTitle != nil && strings.TrimSpace(*req.SiteTitle) == "" {
		return "Site title cannot be empty"
	}
	if req.PrimaryColor != nil {
		c := strings.TrimSpace(*req.PrimaryColor)
		if c == "" {
			return "Primary color cannot be empty"
		}
	}
	if req.FontFamily != nil && strings.TrimSpace(*req.FontFamily) == "" {
		return "Font family cannot be empty"
	}
	if req.Skills != nil {
		for _, skill := range *req.Skills {
			if strings.TrimSpace(skill.Name) == "" {
				return "Skill name cannot be empty"
			}
			if skill.Value < 0 || skill.Value > 100 {
				return "Skill value must be between 0 and 100"
			}
		}
	}
	return ""
}
