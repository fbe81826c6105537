package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// CreateUser inserts a new user and fills in ID and CreatedAt.
//
// The service checks for an existing email before calling this, but two
// concurrent sign-ups can both pass that check. The UNIQUE constraint on
// users.email decides the race; the loser gets apperror.ErrConflict, the
// same error the pre-check would have produced.
func (u *UserDB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, full_name, email, password, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.FullName,
		user.Email,
		user.Password,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := u.scanUser(u.conn.QueryRowContext(ctx,
		`SELECT id, full_name, email, password, created_at
		 FROM users WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail looks a user up by exact email match.
func (u *UserDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := u.scanUser(u.conn.QueryRowContext(ctx,
		`SELECT id, full_name, email, password, created_at
		 FROM users WHERE email = ?`,
		email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

func (u *UserDB) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Password,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
