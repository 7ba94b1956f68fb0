package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(42, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := VerifyJWT(token)
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.EqualValues(t, 42, claims["user_id"])
	assert.Equal(t, "user@example.com", claims["email"])
}

func TestVerifyJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("first-secret")

	token, err := GenerateJWT(1, "user@example.com")
	require.NoError(t, err)

	SetJWTSecret("second-secret")

	_, err = VerifyJWT(token)
	assert.Error(t, err)
}

func TestVerifyJWTRejectsGarbage(t *testing.T) {
	SetJWTSecret("test-secret")

	_, err := VerifyJWT("not-a-token")
	assert.Error(t, err)
}
