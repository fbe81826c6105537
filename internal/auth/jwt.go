// Package auth issues and checks the travel journal's access tokens, hashes
// account passwords, and gates protected routes.
//
// A client gets an accessToken from POST /create-account or POST /login and
// sends it back as "Authorization: Bearer <accessToken>". RequireAuth checks
// it and puts the user id in the request context for handlers to read with
// UserIDFromContext.
//
// Tokens are stateless. A correctly signed, unexpired token is the whole
// authorization model: no revocation list, no refresh token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is how long an access token stays valid when the
	// configuration does not say otherwise.
	DefaultTokenTTL = 72 * time.Hour

	// MinSecretLength is the shortest HMAC secret NewTokenService accepts.
	MinSecretLength = 16

	issuer = "travel-journal"
)

var (
	ErrTokenMissing = errors.New("auth: missing token")
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService signs and verifies HS256 access tokens. Every instance
// serving the API must share the same secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with secret. A ttl of zero
// or less means DefaultTokenTTL.
//
// Generate a production secret with: openssl rand -hex 32
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: token secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of tokens issued by s.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the token payload. The user id is carried twice: "userId" for
// browser clients that decode the token, "sub" for Subject.
type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Issue signs a new access token for userID.
func (s *TokenService) Issue(userID string) (string, error) {
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Subject verifies tokenStr and returns the user id it was issued for.
//
// Only HS256 tokens signed with this secret, carrying our issuer and an
// expiry, are accepted. Failures wrap ErrTokenMissing, ErrTokenExpired or
// ErrTokenInvalid.
func (s *TokenService) Subject(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrTokenMissing
	}

	var c claims
	_, err := jwt.ParseWithClaims(tokenStr, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	case c.Subject == "":
		return "", fmt.Errorf("%w: no subject", ErrTokenInvalid)
	}

	return c.Subject, nil
}
