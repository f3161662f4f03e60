package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the payload of an access token: the user id in the subject
// plus the email for log correlation.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewAccessToken signs an HS256 token for userID that expires after ttl.
func NewAccessToken(secret, userID, email string, ttl time.Duration, now time.Time) (string, error) {
	claims := TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseAccessToken verifies the signature and expiry of raw and returns its
// claims. Every failure is reported as ErrInvalidToken.
func ParseAccessToken(secret, raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
