package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 42, "EXHIBITOR", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	parsed, err := jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "EXHIBITOR", claims["role"])
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret-a", 1, "ATTENDEE", 15)
	require.NoError(t, err)
	_, err = jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("secret-b"), nil
	})
	assert.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)

	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, rt.Raw, h1)

	other, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.NotEqual(t, HashRefreshRaw(other.Raw), h1)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}
