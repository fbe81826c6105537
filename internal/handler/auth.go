package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/service"
)

// Authenticator is what AuthHandler needs from service.AuthService.
type Authenticator interface {
	Register(ctx context.Context, fullName, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler serves account creation, login and the current-user lookup.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewAuthHandler(auth Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type createAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	envelope
	User        *model.User `json:"user"`
	AccessToken string      `json:"accessToken"`
}

type userResponse struct {
	envelope
	User *model.User `json:"user"`
}

// HandleCreateAccount registers a user and returns an access token.
//
// HTTP: POST /create-account
func (h *AuthHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.auth.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, authResponse{
		envelope:    success("Registration Successful"),
		User:        result.User,
		AccessToken: result.Token,
	})
}

// HandleLogin checks credentials and returns a fresh access token.
//
// HTTP: POST /login
//
// Unknown email and wrong password are both 400, with different messages.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrUnauthorized) {
			writeErrorStatus(w, h.logger, http.StatusBadRequest, err)
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, authResponse{
		envelope:    success("Login Successful"),
		User:        result.User,
		AccessToken: result.Token,
	})
}

// HandleGetUser returns the authenticated user's record.
//
// HTTP: GET /get-user
// Auth: required. A valid token for a user that no longer exists is 401.
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			h.logger.Warn("token for unknown user", slog.String("userID", userID))
			writeErrorStatus(w, h.logger, http.StatusUnauthorized, apperror.Unauthorized(auth.MsgAuthRequired))
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, userResponse{envelope: success(""), User: user})
}
