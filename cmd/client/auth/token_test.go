package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-001",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	assert.True(t, TokenExpired(signTestToken(t, now.Add(-time.Minute)), now))
	assert.False(t, TokenExpired(signTestToken(t, now.Add(time.Hour)), now))
}

func TestTokenExpiredOpaqueToken(t *testing.T) {
	assert.False(t, TokenExpired("opaque-session-token", time.Now()))
}

func TestTokenContextRoundTrip(t *testing.T) {
	ctx := WithToken(context.Background(), "abc")
	assert.Equal(t, "abc", TokenFromContext(ctx))
	assert.Empty(t, TokenFromContext(context.Background()))
}
