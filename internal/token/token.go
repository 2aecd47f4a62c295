// Package token mints and verifies the signed session tokens handed to
// clients after a successful login. Signing is symmetric (HS256, shared
// secret from configuration) and the claims stay minimal: user id, display
// name, and role. Neither the email nor any credential material is embedded.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single failure mode of Verify. Expired, tampered,
// malformed, and wrongly signed tokens are indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	Role      string `json:"role"`
}

// Mint signs a session token for the given identity, valid for ttl.
func Mint(userID, firstName, role string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		FirstName: firstName,
		Role:      role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses and validates a signed session token and returns its claims.
func Verify(signed string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
