package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the default lifetime for admin bearer tokens.
// The panel keeps sessions for a working day; logout is client-side only.
const DefaultAccessTokenTTL = 24 * time.Hour

// Token purposes. A token minted for one purpose must never verify for
// another, so the verifier checks this claim explicitly.
const (
	// PurposeAccess marks a full bearer token for the admin panel.
	PurposeAccess = "access"

	// PurposeLoginGrace marks the short-lived post-login marker that the
	// browser route guard accepts while the freshly written token cookie
	// may not yet be visible to the next request.
	PurposeLoginGrace = "login-grace"
)

// Claims are the bearer-token claims used across the admin panel.
type Claims struct {
	jwt.RegisteredClaims

	// Purpose distinguishes access tokens from the login grace marker.
	Purpose string `json:"purpose,omitempty"`

	// Role is the panel role of the subject ("staff", "manager", "admin").
	Role string `json:"role,omitempty"`

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`

	// Name is the display name for the user.
	Name string `json:"name,omitempty"`
}

// NewAccessClaims builds the claims for a full bearer token.
func NewAccessClaims(
	subject, role, email, name string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Purpose: PurposeAccess,
		Role:    role,
		Email:   email,
		Name:    name,
	}
}

// NewGraceClaims builds the claims for the post-login grace marker. The
// marker is tied to the subject that just logged in and carries no role,
// so it can never be used as a bearer token for API calls.
func NewGraceClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Purpose: PurposeLoginGrace,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// ValidatePurpose ensures the token was minted for the expected purpose.
func (c *Claims) ValidatePurpose(expected string) error {
	if c.Purpose != expected {
		return ErrPurpose
	}
	return nil
}
