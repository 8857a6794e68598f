package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	signed, expiresAt, err := GenerateToken("operator", "secret123", time.Hour)
	require.NoError(t, err)
	assert.Positive(t, time.Until(expiresAt))

	parsed, err := jwt.ParseWithClaims(signed, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte("secret123"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(*Claims)
	require.True(t, ok)
	assert.Equal(t, "operator", claims.Subject)
}

func TestGenerateTokenEmptySecret(t *testing.T) {
	_, _, err := GenerateToken("operator", "", time.Hour)
	assert.Error(t, err)
}

func TestGenerateTokenWrongKeyRejected(t *testing.T) {
	signed, _, err := GenerateToken("operator", "secret123", time.Hour)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(signed, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte("other"), nil
	})
	assert.Error(t, err)
}
