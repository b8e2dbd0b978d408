package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hrmless/adapter/internal/operation"
)

// State is where a stored session sits in its lifecycle.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
	StateExpired         State = "expired"
)

// TokenInfo is what can be read from an access token without verifying it.
type TokenInfo struct {
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer    string    `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Expired reports whether the token expiry is at or before now. Tokens
// without an expiry never expire.
func (t *TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Inspect parses the claims of a JWT access token. The signature is not
// verified; the API does that on every request.
func Inspect(accessToken string) (*TokenInfo, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("token is empty")
	}

	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	info := &TokenInfo{Subject: claims.Subject, Issuer: claims.Issuer, Email: claims.Email}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// SessionState classifies auth at now. Opaque tokens count as
// authenticated.
func SessionState(auth operation.AuthData, now time.Time) State {
	if !auth.HasToken() {
		return StateUnauthenticated
	}
	info, err := Inspect(auth.AccessToken)
	if err != nil {
		return StateAuthenticated
	}
	if info.Expired(now) {
		return StateExpired
	}
	return StateAuthenticated
}
