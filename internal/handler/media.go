package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/travel-journal/internal/apperror"
)

// ImageStore is what MediaHandler needs from service.MediaService.
type ImageStore interface {
	Upload(ctx context.Context, originalName string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, imageURL string) (bool, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// multipartMemory is how much of an upload is kept in memory before the
// multipart parser spills to a temp file.
const multipartMemory = 1 << 20

// MediaHandler serves image upload, delete and download.
type MediaHandler struct {
	images         ImageStore
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewMediaHandler(images ImageStore, maxUploadBytes int64, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		images:         images,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type imageUploadResponse struct {
	envelope
	ImageURL string `json:"imageUrl"`
}

// HandleUpload stores the multipart file field "image" and returns its URL.
//
// HTTP: POST /image-upload
func (h *MediaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || r.ContentLength > h.maxUploadBytes {
			writeError(w, h.logger, apperror.ValidationFailed("image", "Image is too large"))
			return
		}
		writeError(w, h.logger, apperror.ValidationFailed("image", "No image uploaded"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("image", "No image uploaded"))
		return
	}
	defer file.Close()

	imageURL, err := h.images.Upload(r.Context(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, imageUploadResponse{envelope: success("Image uploaded successfully"), ImageURL: imageURL})
}

// HandleDelete removes an uploaded image by URL.
//
// HTTP: DELETE /delete-image?imageUrl=...
//
// A missing image is still 200; the body's error flag tells the two
// outcomes apart.
func (h *MediaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.images.Delete(r.Context(), r.URL.Query().Get("imageUrl"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !removed {
		writeJSON(w, h.logger, http.StatusOK, failure("Image not found"))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, success("Image deleted successfully"))
}

// HandleServe streams an uploaded image.
//
// HTTP: GET /uploads/{name}
//
// Backends that return a seekable reader (files, MinIO objects) get range
// and conditional request support through http.ServeContent.
func (h *MediaHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rc, err := h.images.Open(r.Context(), name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, time.Time{}, rs)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(name))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("streaming image interrupted",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
