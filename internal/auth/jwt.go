package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every verification failure: malformed, bad
	// signature, wrong algorithm, expired. Callers cannot tell which.
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// DefaultTokenTTL is how long an issued token verifies.
const DefaultTokenTTL = time.Hour

// TokenManager handles JWT token generation and validation.
// It holds no per-session state; a token is valid purely by its signature
// and expiry.
type TokenManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// Claims represents the custom JWT claims for a user session.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager creates a new token manager with the given secret and token duration.
// secretKey comes from configuration and must never be a literal in code.
func NewTokenManager(secretKey string, tokenDuration time.Duration, opts ...TokenOption) *TokenManager {
	if tokenDuration <= 0 {
		tokenDuration = DefaultTokenTTL
	}
	m := &TokenManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns how long issued tokens stay valid.
func (m *TokenManager) TTL() time.Duration {
	return m.tokenDuration
}

// Issue creates a signed token for userID and returns it with its expiry.
func (m *TokenManager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.tokenDuration)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Verify parses and validates a token, returning the user ID it was issued for.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
