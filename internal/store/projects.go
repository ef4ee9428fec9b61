// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const listProjects = `
SELECT id, title, description, tags, image_url, url, created_at, updated_at
FROM projects ORDER BY created_at DESC, id DESC
`

// ListProjects returns all projects, newest first.
func (q *Queries) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, listProjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Tags, &p.ImageUrl, &p.Url, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

const getProjectByID = `
SELECT id, title, description, tags, image_url, url, created_at, updated_at
FROM projects WHERE id = ?
`

// GetProjectByID fetches a project by primary key.
func (q *Queries) GetProjectByID(ctx context.Context, id int64) (Project, error) {
	row := q.db.QueryRowContext(ctx, getProjectByID, id)
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Tags, &p.ImageUrl, &p.Url, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const createProject = `
INSERT INTO projects (title, description, tags, image_url, url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, title, description, tags, image_url, url, created_at, updated_at
`

// CreateProjectParams holds the fields for CreateProject.
type CreateProjectParams struct {
	Title       string
	Description string
	Tags        string
	ImageUrl    string
	Url         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateProject inserts a new project and returns the stored row.
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, createProject,
		arg.Title, arg.Description, arg.Tags, arg.ImageUrl, arg.Url, arg.CreatedAt, arg.UpdatedAt)
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Tags, &p.ImageUrl, &p.Url, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const updateProject = `
UPDATE projects
SET title = ?, description = ?, tags = ?, image_url = ?, url = ?, updated_at = ?
WHERE id = ?
RETURNING id, title, description, tags, image_url, url, created_at, updated_at
`

// UpdateProjectParams holds the fields for UpdateProject.
type UpdateProjectParams struct {
	Title       string
	Description string
	Tags        string
	ImageUrl    string
	Url         string
	UpdatedAt   time.Time
	ID          int64
}

// UpdateProject replaces a project's mutable fields and returns the stored row.
func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, updateProject,
		arg.Title, arg.Description, arg.Tags, arg.ImageUrl, arg.Url, arg.UpdatedAt, arg.ID)
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Tags, &p.ImageUrl, &p.Url, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const deleteProject = `DELETE FROM projects WHERE id = ?`

// DeleteProject removes a project. Deleting a missing ID is not an error.
func (q *Queries) DeleteProject(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteProject, id)
	return err
}

const countProjects = `SELECT COUNT(*) FROM projects`

// CountProjects returns the number of portfolio entries.
func (q *Queries) CountProjects(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countProjects).Scan(&n)
	return n, err
}
