package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// compile-time check that *DB implements repository.StoryRepository
var _ repository.StoryRepository = (*DB)(nil)

const storyColumns = `id, user_id, title, story, visited_location, image_url,
	visited_date, is_favourite, created_at`

// Favourites first, then insertion order.
const storyOrder = `ORDER BY is_favourite DESC, rowid ASC`

// CreateStory inserts a story and fills in ID and CreatedAt.
func (db *DB) CreateStory(ctx context.Context, story *model.Story) error {
	locations, err := encodeLocations(story.VisitedLocation)
	if err != nil {
		return err
	}

	story.ID = xid.New().String()
	story.CreatedAt = time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO stories (`+storyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.ID,
		story.UserID,
		story.Title,
		story.Story,
		locations,
		story.ImageURL,
		story.VisitedDate.UnixMilli(),
		story.IsFavourite,
		story.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating story: %w", err)
	}

	return nil
}

// GetStory returns the story only if ownerID owns it.
func (db *DB) GetStory(ctx context.Context, id, ownerID string) (*model.Story, error) {
	story, err := scanStory(db.conn.QueryRowContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE id = ? AND user_id = ?`,
		id, ownerID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("travel story", id)
		}
		return nil, fmt.Errorf("sqlite: getting story %s: %w", id, err)
	}
	return story, nil
}

// ListStories returns all of ownerID's stories. An owner with no stories
// gets an empty, non-nil slice so the handler encodes [] rather than null.
func (db *DB) ListStories(ctx context.Context, ownerID string) ([]model.Story, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE user_id = ? `+storyOrder,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing stories: %w", err)
	}
	return collectStories(rows)
}

// SearchStories matches titleQuery anywhere in the title, ignoring ASCII
// case. LIKE wildcards in the query are escaped so "100%" means a literal
// percent sign.
func (db *DB) SearchStories(ctx context.Context, ownerID, titleQuery string) ([]model.Story, error) {
	pattern := "%" + escapeLike(titleQuery) + "%"

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories
		 WHERE user_id = ? AND title LIKE ? ESCAPE '\'
		 `+storyOrder,
		ownerID, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching stories: %w", err)
	}
	return collectStories(rows)
}

// UpdateStory overwrites the editable fields. The WHERE clause carries the
// owner, so editing somebody else's story touches zero rows and reports
// NotFound exactly like a missing id.
func (db *DB) UpdateStory(ctx context.Context, story *model.Story) error {
	locations, err := encodeLocations(story.VisitedLocation)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE stories
		 SET title = ?, story = ?, visited_location = ?, image_url = ?, visited_date = ?
		 WHERE id = ? AND user_id = ?`,
		story.Title,
		story.Story,
		locations,
		story.ImageURL,
		story.VisitedDate.UnixMilli(),
		story.ID,
		story.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating story %s: %w", story.ID, err)
	}
	return requireOneRow(result, story.ID)
}

func (db *DB) SetFavourite(ctx context.Context, id, ownerID string, isFavourite bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE stories SET is_favourite = ? WHERE id = ? AND user_id = ?`,
		isFavourite, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting favourite on story %s: %w", id, err)
	}
	return requireOneRow(result, id)
}

func (db *DB) DeleteStory(ctx context.Context, id, ownerID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM stories WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting story %s: %w", id, err)
	}
	return requireOneRow(result, id)
}

func requireOneRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("travel story", id)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (*model.Story, error) {
	var (
		s           model.Story
		locations   string
		visitedDate int64
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Title,
		&s.Story,
		&locations,
		&s.ImageURL,
		&visitedDate,
		&s.IsFavourite,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(locations), &s.VisitedLocation); err != nil {
		return nil, fmt.Errorf("sqlite: decoding visited_location of story %s: %w", s.ID, err)
	}
	if s.VisitedLocation == nil {
		s.VisitedLocation = []string{}
	}
	s.VisitedDate = time.UnixMilli(visitedDate).UTC()

	return &s, nil
}

func collectStories(rows *sql.Rows) ([]model.Story, error) {
	defer rows.Close()

	stories := []model.Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning story row: %w", err)
		}
		stories = append(stories, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating story rows: %w", err)
	}
	return stories, nil
}

func encodeLocations(locations []string) (string, error) {
	if locations == nil {
		locations = []string{}
	}
	b, err := json.Marshal(locations)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding visited_location: %w", err)
	}
	return string(b), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
