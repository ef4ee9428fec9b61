// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// pngBytes renders a small solid PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 217, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// postFile uploads one multipart file part through the authenticated client.
func postFile(t *testing.T, env *testEnv, filename string, content []byte) (int, map[string]any) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

func TestUploadRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	status, _ := postFile(t, env, "pic.png", pngBytes(t, 4, 4))
	require.Equal(t, http.StatusUnauthorized, status)

	entries, err := os.ReadDir(env.uploadsDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUploadPNG(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	status, envelope := postFile(t, env, "pic.png", pngBytes(t, 4, 4))
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, true, envelope["success"])

	url := envelope["url"].(string)
	require.True(t, strings.HasPrefix(url, "/uploads/"))
	require.True(t, strings.HasSuffix(url, ".png"))
	// Stored name is random, not the client's.
	require.NotContains(t, url, "pic")

	stored := filepath.Join(env.uploadsDir, strings.TrimPrefix(url, "/uploads/"))
	info, err := os.Stat(stored)
	require.NoError(t, err)
	require.Positive(t, info.Size())

	// Small PNGs still get a thumbnail file.
	thumbURL := envelope["thumbnailUrl"].(string)
	_, err = os.Stat(filepath.Join(env.uploadsDir, strings.TrimPrefix(thumbURL, "/uploads/")))
	require.NoError(t, err)
}

func TestUploadRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	status, envelope := postFile(t, env, "evil.png", []byte("#!/bin/sh\nrm -rf /\n"))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, false, envelope["success"])

	entries, err := os.ReadDir(env.uploadsDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUploadMissingFile(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
