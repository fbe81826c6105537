// Package service contains the business rules of the travel journal.
//
//	Handler (HTTP) → Service (validation, owner scoping) → Repository (SQL)
//
// Services take and return plain Go values and apperror errors. They never
// see an *http.Request, so every rule here is testable with fake
// repositories and no server.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// AuthService handles account creation, login and user lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordHasher
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordHasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued access token so the
// handler can answer in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account and signs the new user in.
//
// Email uniqueness is checked up front so the common case gets a clean
// error; the UNIQUE constraint catches the concurrent case and the
// repository reports it as the same Conflict.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*AuthResult, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	if fullName == "" || email == "" || password == "" {
		return nil, apperror.Required("")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, errUserExists()
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		FullName: fullName,
		Email:    email,
		Password: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, errUserExists()
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	return s.issue(user)
}

// Login checks credentials and issues a fresh token.
//
// An unknown email and a wrong password produce different messages
// ("User not found" vs "Invalid Credentials"); existing clients rely on
// the distinction.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Email and Password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	ok, err := s.passwords.Matches(user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: verifying password for user %s: %w", user.ID, err)
	}
	if !ok {
		s.logger.Debug("login rejected", slog.String("userID", user.ID))
		return nil, apperror.Unauthorized("Invalid Credentials")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user)
}

// GetUserByID returns the user for the id carried in a validated token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized(auth.MsgAuthRequired)
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func errUserExists() *apperror.AppError {
	return &apperror.AppError{
		Err:     apperror.ErrConflict,
		Message: "User already exists",
		Field:   "email",
	}
}
