package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryHint_JWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a@x.com",
		"exp": exp.Unix(),
	}).SignedString([]byte("server-side-secret"))
	require.NoError(t, err)

	hint, ok := ExpiryHint(token)
	require.True(t, ok)
	assert.WithinDuration(t, exp, hint, time.Second)
}

func TestExpiryHint_JWTWithoutExp(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a@x.com",
	}).SignedString([]byte("server-side-secret"))
	require.NoError(t, err)

	_, ok := ExpiryHint(token)
	assert.False(t, ok)
}

func TestExpiryHint_OpaqueToken(t *testing.T) {
	// An opaque token is not an error condition, just no hint.
	_, ok := ExpiryHint("mock-token")
	assert.False(t, ok)

	_, ok = ExpiryHint("")
	assert.False(t, ok)
}
