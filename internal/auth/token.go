// Package auth handles the terminal's side of authentication: inspecting
// upstream JWTs and guarding the register with a local lock PIN.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims mirrors the claims the auth service puts in its access tokens.
type Claims struct {
	UserID       uuid.UUID `json:"user_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Role         string    `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a token's claims without verifying the signature. The
// terminal never holds the signing secret; the upstream API is the verifier.
// This is only for reading identity and expiry out of a token we were issued.
func ParseClaims(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the claims' expiry has passed, with a small skew
// allowance so a token is refreshed before it actually dies mid-request.
func (c *Claims) Expired(skew time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Now().Add(skew).After(c.ExpiresAt.Time)
}
