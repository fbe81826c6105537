package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
)

// Driver failures are hard to provoke against a real SQLite file, so these
// tests drive the repository through go-sqlmock instead.

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return NewFromConn(conn), mock
}

var errDriver = errors.New("disk I/O error")

func TestMock_CreateStory_ExecError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO stories").WillReturnError(errDriver)

	err := db.CreateStory(context.Background(), &model.Story{UserID: "u1", VisitedDate: time.Now()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDriver)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
}

func TestMock_ListStories_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .* FROM stories WHERE user_id = ?").
		WithArgs("u1").
		WillReturnError(errDriver)

	_, err := db.ListStories(context.Background(), "u1")
	assert.ErrorIs(t, err, errDriver)
}

func TestMock_ListStories_CorruptLocations(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "story", "visited_location", "image_url",
		"visited_date", "is_favourite", "created_at",
	}).AddRow("s1", "u1", "t", "b", "not json", "img", int64(1700000000000), false, time.Now())
	mock.ExpectQuery("SELECT .* FROM stories").WillReturnRows(rows)

	_, err := db.ListStories(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visited_location")
}

func TestMock_ListStories_RowError(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "story", "visited_location", "image_url",
		"visited_date", "is_favourite", "created_at",
	}).
		AddRow("s1", "u1", "t", "b", `["x"]`, "img", int64(1), false, time.Now()).
		RowError(0, errDriver)
	mock.ExpectQuery("SELECT .* FROM stories").WillReturnRows(rows)

	_, err := db.ListStories(context.Background(), "u1")
	assert.ErrorIs(t, err, errDriver)
}

func TestMock_DeleteStory_RowsAffectedError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM stories").
		WithArgs("s1", "u1").
		WillReturnResult(sqlmock.NewErrorResult(errDriver))

	err := db.DeleteStory(context.Background(), "s1", "u1")
	assert.ErrorIs(t, err, errDriver)
}

func TestMock_SetFavourite_ZeroRowsIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE stories SET is_favourite").
		WithArgs(true, "s1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.SetFavourite(context.Background(), "s1", "u2", true)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMock_CreateUser_ExecErrorIsNotConflict(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO users").WillReturnError(errDriver)

	err := db.Users().CreateUser(context.Background(), &model.User{Email: "a@x.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDriver)
	assert.NotErrorIs(t, err, apperror.ErrConflict)
}

func TestMock_GetUserByID_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .* FROM users WHERE id = ?").
		WithArgs("u1").
		WillReturnError(errDriver)

	_, err := db.Users().GetUserByID(context.Background(), "u1")
	assert.ErrorIs(t, err, errDriver)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
}
