package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/service"
)

// StoryManager is what StoryHandler needs from service.StoryService.
type StoryManager interface {
	Create(ctx context.Context, ownerID string, in service.StoryInput) (*model.Story, error)
	List(ctx context.Context, ownerID string) ([]model.Story, error)
	Edit(ctx context.Context, id, ownerID string, in service.StoryInput) (*model.Story, error)
	Delete(ctx context.Context, id, ownerID string) error
	SetFavourite(ctx context.Context, id, ownerID string, isFavourite bool) (*model.Story, error)
	Search(ctx context.Context, ownerID, query string) ([]model.Story, error)
}

// StoryHandler serves the story routes. All of them sit behind
// auth.RequireAuth, so the caller's id is always in the request context.
type StoryHandler struct {
	stories StoryManager
	logger  *slog.Logger
}

func NewStoryHandler(stories StoryManager, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{stories: stories, logger: logger}
}

// epochMillis accepts a visit date as a JSON number or a numeric string,
// the way browser clients tend to send Date.getTime(). Fractions are
// truncated; null and "" decode to zero, which the service treats as
// missing.
type epochMillis int64

func (m *epochMillis) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		*m = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
		if s == "" {
			*m = 0
			return nil
		}
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = epochMillis(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return apperror.ValidationFailed("visitedDate", service.MsgBadVisitedDate)
	}
	*m = epochMillis(int64(f))
	return nil
}

// locationList accepts either an array of place names or a single string.
type locationList []string

func (l *locationList) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*l = locationList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return apperror.ValidationFailed("visitedLocation", "visitedLocation must be a list of places")
	}
	*l = many
	return nil
}

type storyRequest struct {
	Title           string       `json:"title"`
	Story           string       `json:"story"`
	VisitedLocation locationList `json:"visitedLocation"`
	ImageURL        string       `json:"imageUrl"`
	VisitedDate     epochMillis  `json:"visitedDate"`
}

func (req storyRequest) input() service.StoryInput {
	return service.StoryInput{
		Title:           req.Title,
		Story:           req.Story,
		VisitedLocation: req.VisitedLocation,
		ImageURL:        req.ImageURL,
		VisitedDate:     int64(req.VisitedDate),
	}
}

type favouriteRequest struct {
	IsFavourite *bool `json:"isFavourite"`
}

type storyResponse struct {
	envelope
	Story *model.Story `json:"story"`
}

type storiesResponse struct {
	envelope
	Stories []model.Story `json:"stories"`
}

// HandleAdd creates a story for the caller.
//
// HTTP: POST /add-travel-story
func (h *StoryHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req storyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	story, err := h.stories.Create(r.Context(), userID, req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, storyResponse{envelope: success("Story added successfully"), Story: story})
}

// HandleList returns the caller's stories, favourites first.
//
// HTTP: GET /get-all-stories
func (h *StoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	stories, err := h.stories.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, storiesResponse{envelope: success(""), Stories: stories})
}

// HandleEdit replaces every editable field of one of the caller's stories.
//
// HTTP: PUT /edit-story/{id}
func (h *StoryHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var req storyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	story, err := h.stories.Edit(r.Context(), chi.URLParam(r, "id"), userID, req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, storyResponse{envelope: success("Story updated successfully"), Story: story})
}

// HandleDelete removes one of the caller's stories. The story's image is
// left in place.
//
// HTTP: DELETE /delete-story/{id}
func (h *StoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.stories.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, success("Story deleted successfully"))
}

// HandleSetFavourite sets or clears the favourite flag.
//
// HTTP: PUT /update-is-favourite/{id}
// REQUEST BODY: {"isFavourite": true}
func (h *StoryHandler) HandleSetFavourite(w http.ResponseWriter, r *http.Request) {
	var req favouriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.IsFavourite == nil {
		writeError(w, h.logger, apperror.ValidationFailed("isFavourite", "isFavourite is required"))
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	story, err := h.stories.SetFavourite(r.Context(), chi.URLParam(r, "id"), userID, *req.IsFavourite)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, storyResponse{envelope: success("Story updated successfully"), Story: story})
}

// HandleSearch finds the caller's stories whose title contains ?query=.
//
// HTTP: GET /search?query=paris
func (h *StoryHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	stories, err := h.stories.Search(r.Context(), userID, r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, storiesResponse{envelope: success(""), Stories: stories})
}
