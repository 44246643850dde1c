package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptyToken = errors.New("empty token")

// TokenInfo is what the storefront reads out of a backend access token.
type TokenInfo struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an exp claim that is in the past.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Inspect decodes the claims of a backend token without verifying it.
// The storefront never holds the backend's signing key; the backend remains
// the authority and answers 401 for a bad token.
func Inspect(tokenStr string) (TokenInfo, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
	if tokenStr == "" {
		return TokenInfo{}, ErrEmptyToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}

	var info TokenInfo
	switch sub := claims["sub"].(type) {
	case string:
		info.Subject = sub
	case float64:
		info.Subject = fmt.Sprintf("%.0f", sub)
	}
	if role, ok := claims["role"].(string); ok {
		info.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}

// GenerateToken signs an HS256 token. The fake API in apiclient/apitest issues
// these so tests see the same tokens the real backend hands out.
func GenerateToken(secret []byte, subject, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(secret []byte, tokenStr string) (*jwt.Token, error) {
	return jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
}
