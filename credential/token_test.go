package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/hospital/internal/fixture"
)

func TestValid(t *testing.T) {
	good := fixture.Token(t, "doctor-1")
	require.GreaterOrEqual(t, len(good), MinTokenLength)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "signed jwt", token: good, want: true},
		{name: "empty", token: "", want: false},
		{name: "short", token: "eyJabc", want: false},
		{name: "exactly minimum length", token: "eyJ" + strings.Repeat("a", MinTokenLength-3), want: true},
		{name: "one below minimum", token: "eyJ" + strings.Repeat("a", MinTokenLength-4), want: false},
		{name: "wrong prefix", token: "xyz" + strings.Repeat("a", 200), want: false},
		{name: "contains undefined", token: "eyJ" + strings.Repeat("a", 100) + "undefined", want: false},
		{name: "contains null", token: "eyJnull" + strings.Repeat("a", 100), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.token))
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "none", Preview(""))
	assert.Equal(t, "abcdefghijklmnopqrst...", Preview("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "ab...", Preview("abcd"))
}

func TestInspect(t *testing.T) {
	claims, err := Inspect(fixture.Token(t, "doctor-7"))
	require.NoError(t, err)
	assert.Equal(t, "doctor-7", claims["sub"])
	assert.Equal(t, "doctor-7@hospital.test", claims["email"])

	_, err = Inspect("not-a-jwt")
	assert.Error(t, err)
}
