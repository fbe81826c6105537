package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

// userIDKey is unexported so no other package can read or overwrite it.
var userIDKey contextKey

// MsgAuthRequired is the 401 message for every rejected request. Clients
// only learn that they must log in again, not why the token failed.
const MsgAuthRequired = "valid authentication required"

// RequireAuth lets a request through only if it carries a valid bearer
// token, and stores the token's user id in the request context. Every
// failure is a 401 JSON envelope; the wrapped handler never runs.
func RequireAuth(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := tokens.Subject(bearerToken(r))
			if err != nil {
				reason := "invalid"
				switch {
				case errors.Is(err, ErrTokenMissing):
					reason = "missing"
				case errors.Is(err, ErrTokenExpired):
					reason = "expired"
				}
				logger.Debug("rejected unauthenticated request",
					slog.String("path", r.URL.Path),
					slog.String("reason", reason),
				)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying userID. RequireAuth uses it;
// handler tests use it to fake an authenticated request.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user's id, or ("", false) if
// the request did not pass through RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// bearerToken returns the token from "Authorization: Bearer <token>", or ""
// when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="`+issuer+`"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}{Error: true, Message: MsgAuthRequired})
}
