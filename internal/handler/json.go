// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP surface of the portfolio backend.
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize limits JSON request bodies. The largest legitimate payload
// is a settings document with a full skills list.
const maxBodySize = 1 << 20 // 1MB

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a success envelope, merging extra keys into it.
func writeSuccess(w http.ResponseWriter, statusCode int, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	writeJSON(w, statusCode, data)
}

// writeError writes a failure envelope: {"success": false, "msg": ...}.
func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, map[string]any{
		"success": false,
		"msg":     msg,
	})
}

// writeStoreError reports a failed store operation. A connection-state
// check distinguishes an unavailable store, which gets a retry signal,
// from an unexpected failure. The caller has already logged the error.
func writeStoreError(w http.ResponseWriter, db *sql.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Temporarily unavailable, try again shortly")
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

// decodeJSON decodes a request body into dst, rejecting unknown garbage
// and oversized payloads. Returns a caller-safe error message.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	dec := json.NewDecoder(body)

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body too large")
		case errors.Is(err, io.EOF):
			return fmt.Errorf("request body is empty")
		default:
			return fmt.Errorf("invalid JSON body")
		}
	}
	return nil
}
