// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// maxUploadSize limits image uploads.
const maxUploadSize = 10 << 20 // 10MB

// thumbnailWidth is the bounding width for generated thumbnails.
const thumbnailWidth = 480

// allowedImageTypes maps sniffed content types to file extensions.
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadHandler handles image uploads for projects and the profile image.
type UploadHandler struct {
	uploadsDir string
}

// NewUploadHandler creates a new UploadHandler. uploadsDir must exist.
func NewUploadHandler(uploadsDir string) *UploadHandler {
	return &UploadHandler{uploadsDir: uploadsDir}
}

// Upload handles POST /api/upload. Admin only. It accepts a single
// multipart "file" part, sniffs the content type, and stores the image
// under a random name. JPEG and PNG images also get a thumbnail.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or oversized upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	// Sniff the real content type; never trust the client header.
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		slog.Error("failed to read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	contentType := http.DetectContentType(head[:n])

	ext, ok := allowedImageTypes[contentType]
	if !ok {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unsupported file type %q, allowed: png, jpeg, gif, webp", contentType))
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		slog.Error("failed to rewind upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	name := uuid.New().String() + ext
	dstPath := filepath.Join(h.uploadsDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		slog.Error("failed to create upload file", "error", err, "path", dstPath)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dstPath)
		slog.Error("failed to write upload file", "error", err, "path", dstPath)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		slog.Error("failed to close upload file", "error", err, "path", dstPath)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	resp := map[string]any{"url": "/uploads/" + name}

	// GIF animations and webp are stored as-is; the imaging decoder only
	// covers the formats image/* registers.
	if contentType == "image/png" || contentType == "image/jpeg" {
		if thumbName, err := h.writeThumbnail(dstPath, name); err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "file", name)
		} else {
			resp["thumbnailUrl"] = "/uploads/" + thumbName
		}
	}

	slog.Info("image uploaded", "file", name, "size", header.Size, "type", contentType)
	writeSuccess(w, http.StatusCreated, resp)
}

// writeThumbnail renders a width-bounded copy next to the original and
// returns its file name.
func (h *UploadHandler) writeThumbnail(srcPath, name string) (string, error) {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}

	var thumb image.Image = imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	if img.Bounds().Dx() <= thumbnailWidth {
		thumb = img
	}

	ext := filepath.Ext(name)
	thumbName := strings.TrimSuffix(name, ext) + "_thumb" + ext
	if err := imaging.Save(thumb, filepath.Join(h.uploadsDir, thumbName)); err != nil {
		return "", fmt.Errorf("saving thumbnail: %w", err)
	}
	return thumbName, nil
}
