// Package auth inspects passthrough bearer tokens. The gateway never
// verifies signatures (that stays with the federation backend); it only
// reads claims to mirror subscriptions per user and to spot expired tokens
// before wasting a round trip.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StripBearer returns the raw token from an "Authorization: Bearer x" value.
// The second return value is false when the header is not a bearer header.
func StripBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// Subject returns the sub claim of the token, or "" when the token cannot be
// parsed. The signature is NOT verified.
func Subject(header string) string {
	claims := parseClaims(header)
	if claims == nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// Expired reports whether the token carries an exp claim in the past. An
// unparseable token or a missing exp claim reports false; the backend is the
// one that rejects those.
func Expired(header string) bool {
	claims := parseClaims(header)
	if claims == nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

func parseClaims(header string) jwt.Claims {
	raw, ok := StripBearer(header)
	if !ok {
		raw = header
	}
	if raw == "" {
		return nil
	}
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	return token.Claims
}
