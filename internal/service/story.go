package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// MsgBadVisitedDate is the client-facing text for a visit date that is not
// a usable epoch-milliseconds value.
const MsgBadVisitedDate = "visitedDate must be epoch milliseconds"

// Visit dates must land in years 0 through 9999, the range a JSON timestamp
// can carry.
const (
	minVisitYear = 0
	maxVisitYear = 9999
)

// StoryInput carries the user-editable fields of a story, as they arrive
// from a create or edit request.
type StoryInput struct {
	Title           string
	Story           string
	VisitedLocation []string
	// ImageURL is optional; blank falls back to the placeholder image.
	ImageURL string
	// VisitedDate is epoch milliseconds. Zero means "not supplied".
	VisitedDate int64
}

// StoryService owns the rules for stories. Every call takes the caller's
// user id and passes it to the repository, which scopes the SQL by it.
type StoryService struct {
	repo           repository.StoryRepository
	placeholderURL string
	logger         *slog.Logger
}

func NewStoryService(repo repository.StoryRepository, placeholderURL string, logger *slog.Logger) *StoryService {
	return &StoryService{
		repo:           repo,
		placeholderURL: placeholderURL,
		logger:         logger,
	}
}

// normalize trims the input and checks every required field is present.
func (s *StoryService) normalize(in StoryInput) (StoryInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Story = strings.TrimSpace(in.Story)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	locations := make([]string, 0, len(in.VisitedLocation))
	for _, loc := range in.VisitedLocation {
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, loc)
		}
	}
	in.VisitedLocation = locations

	switch {
	case in.Title == "":
		return in, apperror.Required("title")
	case in.Story == "":
		return in, apperror.Required("story")
	case len(in.VisitedLocation) == 0:
		return in, apperror.Required("visitedLocation")
	case in.VisitedDate == 0:
		return in, apperror.Required("visitedDate")
	}

	if year := time.UnixMilli(in.VisitedDate).UTC().Year(); year < minVisitYear || year > maxVisitYear {
		return in, apperror.ValidationFailed("visitedDate", MsgBadVisitedDate)
	}

	if in.ImageURL == "" {
		in.ImageURL = s.placeholderURL
	}
	return in, nil
}

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return apperror.Unauthorized("valid authentication required")
	}
	return nil
}

// Create validates and stores a new story for ownerID.
func (s *StoryService) Create(ctx context.Context, ownerID string, in StoryInput) (*model.Story, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	story := &model.Story{
		UserID:          ownerID,
		Title:           in.Title,
		Story:           in.Story,
		VisitedLocation: in.VisitedLocation,
		ImageURL:        in.ImageURL,
		VisitedDate:     time.UnixMilli(in.VisitedDate).UTC(),
	}

	if err := s.repo.CreateStory(ctx, story); err != nil {
		s.logger.Error("failed to create story",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating story: %w", err)
	}

	s.logger.Info("story created",
		slog.String("id", story.ID),
		slog.String("userID", ownerID),
	)
	return story, nil
}

// List returns the owner's stories, favourites first.
func (s *StoryService) List(ctx context.Context, ownerID string) ([]model.Story, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	stories, err := s.repo.ListStories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing stories: %w", err)
	}
	return stories, nil
}

// Edit replaces every editable field of the story. It is a full update:
// the same fields are required as for Create.
func (s *StoryService) Edit(ctx context.Context, id, ownerID string, in StoryInput) (*model.Story, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "story ID is required")
	}
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	update := &model.Story{
		ID:              id,
		UserID:          ownerID,
		Title:           in.Title,
		Story:           in.Story,
		VisitedLocation: in.VisitedLocation,
		ImageURL:        in.ImageURL,
		VisitedDate:     time.UnixMilli(in.VisitedDate).UTC(),
	}
	if err := s.repo.UpdateStory(ctx, update); err != nil {
		return nil, s.storeError("updating", id, err)
	}

	s.logger.Info("story updated", slog.String("id", id), slog.String("userID", ownerID))

	return s.reload(ctx, id, ownerID)
}

// Delete removes the story. Its image, if any, stays in the media store.
func (s *StoryService) Delete(ctx context.Context, id, ownerID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "story ID is required")
	}

	if err := s.repo.DeleteStory(ctx, id, ownerID); err != nil {
		return s.storeError("deleting", id, err)
	}

	s.logger.Info("story deleted", slog.String("id", id), slog.String("userID", ownerID))
	return nil
}

// SetFavourite sets the favourite flag and returns the updated story.
func (s *StoryService) SetFavourite(ctx context.Context, id, ownerID string, isFavourite bool) (*model.Story, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "story ID is required")
	}

	if err := s.repo.SetFavourite(ctx, id, ownerID, isFavourite); err != nil {
		return nil, s.storeError("updating favourite on", id, err)
	}

	s.logger.Info("story favourite updated",
		slog.String("id", id),
		slog.Bool("isFavourite", isFavourite),
	)
	return s.reload(ctx, id, ownerID)
}

// Search returns the owner's stories whose title contains query, ignoring
// case. No match is an empty result, not an error.
func (s *StoryService) Search(ctx context.Context, ownerID, query string) ([]model.Story, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("query", "Query is required")
	}

	stories, err := s.repo.SearchStories(ctx, ownerID, query)
	if err != nil {
		return nil, fmt.Errorf("searching stories: %w", err)
	}
	return stories, nil
}

func (s *StoryService) reload(ctx context.Context, id, ownerID string) (*model.Story, error) {
	story, err := s.repo.GetStory(ctx, id, ownerID)
	if err != nil {
		return nil, s.storeError("reloading", id, err)
	}
	return story, nil
}

// storeError passes NotFound through untouched and logs anything else.
func (s *StoryService) storeError(action, id string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	s.logger.Error("story store failure",
		slog.String("action", action),
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s story %s: %w", action, id, err)
}
