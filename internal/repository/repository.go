// Package repository declares the storage interfaces the service layer
// depends on. internal/repository/sqlite implements them.
package repository

import (
	"context"

	"github.com/sakif/travel-journal/internal/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	// CreateUser inserts a user and fills in ID and CreatedAt.
	// Returns apperror.ErrConflict if the email is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// StoryRepository is the story store. Every method except CreateStory takes
// the owner's ID and only matches rows owned by them; a story owned by
// somebody else is reported as apperror.ErrNotFound, same as a missing one.
type StoryRepository interface {
	CreateStory(ctx context.Context, story *model.Story) error
	GetStory(ctx context.Context, id, ownerID string) (*model.Story, error)
	// ListStories and SearchStories order favourites first, then by insertion.
	ListStories(ctx context.Context, ownerID string) ([]model.Story, error)
	SearchStories(ctx context.Context, ownerID, titleQuery string) ([]model.Story, error)
	// UpdateStory replaces every editable field of the story matching
	// (story.ID, story.UserID).
	UpdateStory(ctx context.Context, story *model.Story) error
	SetFavourite(ctx context.Context, id, ownerID string, isFavourite bool) error
	DeleteStory(ctx context.Context, id, ownerID string) error
}
