// Package fixture builds test values shared across packages.
package fixture

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token returns a signed JWT long enough to pass the credential predicate.
func Token(t testing.TB, subject string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   subject,
		"email": subject + "@hospital.test",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iss":   "https://auth.hospital.test",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("fixture-secret"))
	if err != nil {
		t.Fatalf("failed to sign fixture token: %v", err)
	}

	return signed
}
