// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds domain constants and value types shared across packages.
package model

// RoleAdmin is the only role in the system. Accounts are provisioned from
// configuration at startup; there is no self-service registration.
const RoleAdmin = "admin"
