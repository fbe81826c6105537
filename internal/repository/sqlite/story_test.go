package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
)

// createTestStory inserts a story owned by ownerID and fails the test on error.
func createTestStory(t *testing.T, db *DB, ownerID, title string) *model.Story {
	t.Helper()
	story := &model.Story{
		UserID:          ownerID,
		Title:           title,
		Story:           "A story about " + title,
		VisitedLocation: []string{"Somewhere"},
		ImageURL:        "https://example.com/img.jpg",
		VisitedDate:     time.UnixMilli(1700000000000).UTC(),
	}
	if err := db.CreateStory(context.Background(), story); err != nil {
		t.Fatalf("failed to create test story: %v", err)
	}
	return story
}

func titles(stories []model.Story) []string {
	out := make([]string, len(stories))
	for i, s := range stories {
		out[i] = s.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreateStory_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")

	story := &model.Story{
		UserID:          owner.ID,
		Title:           "Paris",
		Story:           "Croissants.",
		VisitedLocation: []string{"Paris", "Versailles"},
		ImageURL:        "http://localhost:8000/uploads/a.jpg",
		VisitedDate:     time.UnixMilli(1700000000000),
	}
	if err := db.CreateStory(context.Background(), story); err != nil {
		t.Fatalf("CreateStory() error = %v", err)
	}
	if story.ID == "" {
		t.Fatal("CreateStory() did not set story.ID")
	}
	if story.CreatedAt.IsZero() {
		t.Error("CreateStory() did not set story.CreatedAt")
	}

	got, err := db.GetStory(context.Background(), story.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetStory() error = %v", err)
	}

	if got.VisitedDate.UnixMilli() != 1700000000000 {
		t.Errorf("VisitedDate = %d ms, want 1700000000000", got.VisitedDate.UnixMilli())
	}
	if !equalStrings(got.VisitedLocation, []string{"Paris", "Versailles"}) {
		t.Errorf("VisitedLocation = %v, want [Paris Versailles] in order", got.VisitedLocation)
	}
	if got.IsFavourite {
		t.Error("new story should not be a favourite")
	}
	if got.Title != "Paris" || got.Story != "Croissants." || got.ImageURL != story.ImageURL {
		t.Errorf("GetStory() = %+v, fields do not match what was created", got)
	}
}

func TestCreateStory_UnknownOwner(t *testing.T) {
	db := newTestDB(t)

	story := &model.Story{UserID: "ghost", Title: "t", Story: "s", ImageURL: "u", VisitedDate: time.Now()}
	if err := db.CreateStory(context.Background(), story); err == nil {
		t.Error("CreateStory() should fail the foreign key check for an unknown owner")
	}
}

func TestGetStory_OtherOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	story := createTestStory(t, db, alice.ID, "Alice's trip")

	_, err := db.GetStory(context.Background(), story.ID, bob.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetStory() by non-owner error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST / SEARCH TESTS
// =========================================================================

func TestListStories_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "empty@example.com")

	stories, err := db.ListStories(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListStories() error = %v", err)
	}
	if stories == nil || len(stories) != 0 {
		t.Errorf("ListStories() = %#v, want empty non-nil slice", stories)
	}
}

func TestListStories_FavouritesFirstThenInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "order@example.com")
	other := createTestUser(t, db, "other@example.com")

	createTestStory(t, db, owner.ID, "first")
	second := createTestStory(t, db, owner.ID, "second")
	createTestStory(t, db, owner.ID, "third")
	fourth := createTestStory(t, db, owner.ID, "fourth")
	createTestStory(t, db, other.ID, "not mine")

	ctx := context.Background()
	if err := db.SetFavourite(ctx, fourth.ID, owner.ID, true); err != nil {
		t.Fatalf("SetFavourite() error = %v", err)
	}
	if err := db.SetFavourite(ctx, second.ID, owner.ID, true); err != nil {
		t.Fatalf("SetFavourite() error = %v", err)
	}

	stories, err := db.ListStories(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListStories() error = %v", err)
	}

	want := []string{"second", "fourth", "first", "third"}
	if got := titles(stories); !equalStrings(got, want) {
		t.Errorf("ListStories() order = %v, want %v", got, want)
	}
}

func TestSearchStories(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "search@example.com")
	other := createTestUser(t, db, "nosy@example.com")

	createTestStory(t, db, owner.ID, "Paris in Spring")
	createTestStory(t, db, owner.ID, "Rome")
	createTestStory(t, db, owner.ID, "PARIS again")
	createTestStory(t, db, owner.ID, "100% Lisbon")
	createTestStory(t, db, owner.ID, "snake_case city")
	createTestStory(t, db, other.ID, "paris (someone else's)")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"case insensitive", "paris", []string{"Paris in Spring", "PARIS again"}},
		{"substring", "ome", []string{"Rome"}},
		{"no match is empty", "Tokyo", []string{}},
		{"percent is literal", "100%", []string{"100% Lisbon"}},
		{"lone percent is literal", "%", []string{"100% Lisbon"}},
		{"underscore is literal", "e_c", []string{"snake_case city"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.SearchStories(context.Background(), owner.ID, tt.query)
			if err != nil {
				t.Fatalf("SearchStories() error = %v", err)
			}
			if got == nil {
				t.Fatal("SearchStories() returned nil, want non-nil slice")
			}
			if !equalStrings(titles(got), tt.want) {
				t.Errorf("SearchStories(%q) = %v, want %v", tt.query, titles(got), tt.want)
			}
		})
	}
}

// =========================================================================
// UPDATE / FAVOURITE / DELETE TESTS
// =========================================================================

func TestUpdateStory(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "edit@example.com")
	story := createTestStory(t, db, owner.ID, "before")

	story.Title = "after"
	story.Story = "new body"
	story.VisitedLocation = []string{"B", "A"}
	story.ImageURL = "https://example.com/new.jpg"
	story.VisitedDate = time.UnixMilli(1600000000000)

	ctx := context.Background()
	if err := db.UpdateStory(ctx, story); err != nil {
		t.Fatalf("UpdateStory() error = %v", err)
	}

	got, err := db.GetStory(ctx, story.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetStory() error = %v", err)
	}
	if got.Title != "after" || got.Story != "new body" || got.ImageURL != story.ImageURL {
		t.Errorf("UpdateStory() did not persist fields: %+v", got)
	}
	if !equalStrings(got.VisitedLocation, []string{"B", "A"}) {
		t.Errorf("VisitedLocation = %v, want [B A]", got.VisitedLocation)
	}
	if got.VisitedDate.UnixMilli() != 1600000000000 {
		t.Errorf("VisitedDate = %d, want 1600000000000", got.VisitedDate.UnixMilli())
	}
}

func TestOwnerScopedMutations(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	story := createTestStory(t, db, alice.ID, "Alice only")

	ctx := context.Background()
	tests := []struct {
		name string
		call func() error
	}{
		{"update", func() error {
			hijack := *story
			hijack.UserID = bob.ID
			hijack.Title = "hijacked"
			return db.UpdateStory(ctx, &hijack)
		}},
		{"favourite", func() error { return db.SetFavourite(ctx, story.ID, bob.ID, true) }},
		{"delete", func() error { return db.DeleteStory(ctx, story.ID, bob.ID) }},
		{"missing id", func() error { return db.DeleteStory(ctx, "does-not-exist", alice.ID) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, apperror.ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}

	got, err := db.GetStory(ctx, story.ID, alice.ID)
	if err != nil {
		t.Fatalf("story should survive non-owner attempts: %v", err)
	}
	if got.Title != "Alice only" || got.IsFavourite {
		t.Errorf("non-owner changed the story: %+v", got)
	}
}

func TestSetFavourite_Toggle(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "fav@example.com")
	story := createTestStory(t, db, owner.ID, "fav")
	ctx := context.Background()

	for _, want := range []bool{true, false, true} {
		if err := db.SetFavourite(ctx, story.ID, owner.ID, want); err != nil {
			t.Fatalf("SetFavourite(%v) error = %v", want, err)
		}
		got, err := db.GetStory(ctx, story.ID, owner.ID)
		if err != nil {
			t.Fatalf("GetStory() error = %v", err)
		}
		if got.IsFavourite != want {
			t.Errorf("IsFavourite = %v, want %v", got.IsFavourite, want)
		}
	}
}

func TestDeleteStory(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "del@example.com")
	story := createTestStory(t, db, owner.ID, "gone soon")
	ctx := context.Background()

	if err := db.DeleteStory(ctx, story.ID, owner.ID); err != nil {
		t.Fatalf("DeleteStory() error = %v", err)
	}

	_, err := db.GetStory(ctx, story.ID, owner.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetStory() after delete error = %v, want ErrNotFound", err)
	}

	if err := db.DeleteStory(ctx, story.ID, owner.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteStory() error = %v, want ErrNotFound", err)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct{ in, want string }{
		{"paris", "paris"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\sl`, `back\\sl`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
