// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createContact = `
INSERT INTO contacts (name, email, subject, message, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, name, email, subject, message, created_at
`

// CreateContactParams holds the fields for CreateContact.
type CreateContactParams struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt time.Time
}

// CreateContact appends a contact-form submission. Submissions are never
// read back through the HTTP surface; they exist for the mail relay and
// operator inspection.
func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (Contact, error) {
	row := q.db.QueryRowContext(ctx, createContact,
		arg.Name, arg.Email, arg.Subject, arg.Message, arg.CreatedAt)
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.CreatedAt)
	return c, err
}

const countContacts = `SELECT COUNT(*) FROM contacts`

// CountContacts returns the number of stored submissions.
func (q *Queries) CountContacts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countContacts).Scan(&n)
	return n, err
}
