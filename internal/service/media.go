package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/media"
)

// UploadPathPrefix is where uploaded images are served from.
const UploadPathPrefix = "/uploads/"

// MediaService names uploaded images, stores them and turns names into
// public URLs. It does not track which story uses which image.
type MediaService struct {
	store   media.Store
	baseURL string
	logger  *slog.Logger
}

// NewMediaService returns a MediaService that builds image URLs under
// serverURL.
func NewMediaService(store media.Store, serverURL string, logger *slog.Logger) *MediaService {
	return &MediaService{
		store:   store,
		baseURL: strings.TrimRight(serverURL, "/"),
		logger:  logger,
	}
}

// URL returns the public URL for a stored image name.
func (s *MediaService) URL(name string) string {
	return s.baseURL + UploadPathPrefix + name
}

// Upload stores r under a fresh name derived from originalName and returns
// the image URL. size is -1 when unknown.
func (s *MediaService) Upload(ctx context.Context, originalName string, r io.Reader, size int64, contentType string) (string, error) {
	if r == nil {
		return "", apperror.ValidationFailed("image", "No image uploaded")
	}

	name := media.NewFilename(originalName)
	if err := s.store.Save(ctx, name, r, size, contentType); err != nil {
		s.logger.Error("failed to store image",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("storing image: %w", err)
	}

	s.logger.Info("image stored", slog.String("name", name), slog.Int64("size", size))
	return s.URL(name), nil
}

// Delete removes the image named by the final path segment of imageURL.
// It reports false, not an error, when there is nothing to remove.
func (s *MediaService) Delete(ctx context.Context, imageURL string) (bool, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return false, apperror.ValidationFailed("imageUrl", "imageUrl parameter is required")
	}

	name := media.FilenameFromURL(imageURL)
	if name == "" {
		return false, nil
	}

	removed, err := s.store.Remove(ctx, name)
	if err != nil {
		s.logger.Error("failed to remove image",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("removing image: %w", err)
	}
	if removed {
		s.logger.Info("image removed", slog.String("name", name))
	}
	return removed, nil
}

// Open returns the stored image called name.
func (s *MediaService) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := s.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, media.ErrNotExist) {
			return nil, apperror.NotFoundMessage("Image not found")
		}
		return nil, fmt.Errorf("opening image %s: %w", name, err)
	}
	return rc, nil
}
