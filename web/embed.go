// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package web

import "embed"

//go:embed all:static
var Static embed.FS
