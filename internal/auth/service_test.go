package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepv/driving-backend/internal/config"
)

func testService(secret string) *Service {
	return NewService(&config.Config{
		JWTSecret:  secret,
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // min cost, tests only
	})
}

func TestPasswordHashRoundTrip(t *testing.T) {
	s := testService("secret")

	hash, err := s.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, s.CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, s.CheckPassword(hash, "battery staple"), ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	s := testService("secret")

	token, err := s.GenerateToken(42)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	token, err := testService("one").GenerateToken(1)
	require.NoError(t, err)

	_, err = testService("two").ValidateToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenIsRejected(t *testing.T) {
	_, err := testService("secret").ValidateToken("not.a.token")
	assert.Error(t, err)
}
