// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kenma/folio/internal/broadcast"
	"github.com/kenma/folio/internal/store"
)

// ProjectsHandler handles portfolio entry routes.
type ProjectsHandler struct {
	db          *sql.DB
	queries     *store.Queries
	broadcaster *broadcast.Broadcaster
}

// NewProjectsHandler creates a new ProjectsHandler.
func NewProjectsHandler(db *sql.DB, bc *broadcast.Broadcaster) *ProjectsHandler {
	return &ProjectsHandler{
		db:          db,
		queries:     store.New(db),
		broadcaster: bc,
	}
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"imageUrl"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// projectRequest is the body of POST and PUT /api/projects.
type projectRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"imageUrl"`
	URL         string   `json:"url"`
}

// validate trims and checks required fields, returning a caller-safe
// message for the first violation.
func (req *projectRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" {
		return "Title is required"
	}
	if req.Description == "" {
		return "Description is required"
	}
	return ""
}

// storeProjectToResponse converts a store.Project to ProjectResponse.
func storeProjectToResponse(p store.Project) ProjectResponse {
	tags := []string{}
	if err := json.Unmarshal([]byte(p.Tags), &tags); err != nil {
		slog.Error("corrupt tags column", "project_id", p.ID, "error", err)
		tags = []string{}
	}
	return ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Tags:        tags,
		ImageURL:    p.ImageUrl,
		URL:         p.Url,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// encodeTags serializes the tag list for storage, normalizing nil to [].
func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// List handles GET /api/projects.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.queries.ListProjects(r.Context())
	if err != nil {
		slog.Error("failed to list projects", "error", err)
		writeStoreError(w, h.db)
		return
	}

	resp := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, storeProjectToResponse(p))
	}
	writeSuccess(w, http.StatusOK, map[string]any{"projects": resp})
}

// Get handles GET /api/projects/{id}.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := h.queries.GetProjectByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Project not found")
		} else {
			slog.Error("failed to get project", "error", err, "project_id", id)
			writeStoreError(w, h.db)
		}
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"project": storeProjectToResponse(project)})
}

// Create handles POST /api/projects. Admin only; broadcasts
// projects.updated after the write commits.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now().UTC()
	project, err := h.queries.CreateProject(r.Context(), store.CreateProjectParams{
		Title:       req.Title,
		Description: req.Description,
		Tags:        encodeTags(req.Tags),
		ImageUrl:    req.ImageURL,
		Url:         req.URL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		slog.Error("failed to create project", "error", err)
		writeStoreError(w, h.db)
		return
	}

	h.notifyProjectsChanged()
	writeSuccess(w, http.StatusCreated, map[string]any{"project": storeProjectToResponse(project)})
}

// Update handles PUT /api/projects/{id}. Admin only.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	// Confirm existence so a missing ID yields 404, not a silent no-op.
	if _, err := h.queries.GetProjectByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Project not found")
		} else {
			slog.Error("failed to get project", "error", err, "project_id", id)
			writeStoreError(w, h.db)
		}
		return
	}

	project, err := h.queries.UpdateProject(r.Context(), store.UpdateProjectParams{
		Title:       req.Title,
		Description: req.Description,
		Tags:        encodeTags(req.Tags),
		ImageUrl:    req.ImageURL,
		Url:         req.URL,
		UpdatedAt:   time.Now().UTC(),
		ID:          id,
	})
	if err != nil {
		slog.Error("failed to update project", "error", err, "project_id", id)
		writeStoreError(w, h.db)
		return
	}

	h.notifyProjectsChanged()
	writeSuccess(w, http.StatusOK, map[string]any{"project": storeProjectToResponse(project)})
}

// Delete handles DELETE /api/projects/{id}. Admin only.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	if _, err := h.queries.GetProjectByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Project not found")
		} else {
			slog.Error("failed to get project", "error", err, "project_id", id)
			writeStoreError(w, h.db)
		}
		return
	}

	if err := h.queries.DeleteProject(r.Context(), id); err != nil {
		slog.Error("failed to delete project", "error", err, "project_id", id)
		writeStoreError(w, h.db)
		return
	}

	h.notifyProjectsChanged()
	writeSuccess(w, http.StatusOK, map[string]any{"msg": "Project deleted"})
}

// notifyProjectsChanged pushes a best-effort live-update event. The write
// has already committed; fan-out failure never reaches the caller.
func (h *ProjectsHandler) notifyProjectsChanged() {
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(broadcast.EventProjectsUpdated, nil)
	}
}
