package credential

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinTokenLength is the shortest string accepted as a bearer token. The backend issues
	// JWTs, which are well over this length.
	MinTokenLength = 100
	// TokenPrefix is "{" base64url-encoded: every JWT header starts with it.
	TokenPrefix = "eyJ"
)

// Valid reports whether token is structurally usable as a bearer credential. A token that
// fails is treated as absent everywhere: it is never sent, not even as a malformed header.
func Valid(token string) bool {
	if token == "" {
		return false
	}
	if len(token) < MinTokenLength {
		return false
	}
	// Catches values written from an unset variable, e.g. "Bearer undefined".
	if strings.Contains(token, "undefined") || strings.Contains(token, "null") {
		return false
	}

	return strings.HasPrefix(token, TokenPrefix)
}

// Preview returns a log-safe prefix of token.
func Preview(token string) string {
	if token == "" {
		return "none"
	}
	if len(token) <= 20 {
		return token[:len(token)/2] + "..."
	}

	return token[:20] + "..."
}

// Inspect decodes the token's claims without verifying the signature. It is a diagnostic
// aid only; the result must never gate access, and expiry is deliberately not checked.
func Inspect(token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}

	return claims, nil
}
