package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewJWTService("secret", time.Hour, func() time.Time { return now })

	token, err := svc.GenerateAccessToken("u1", "u1@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.True(t, now.Add(time.Hour).Equal(claims.Expiry()))
}

func TestJWTService_Rejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	svc := NewJWTService("secret", time.Hour, func() time.Time { return clock })

	token, err := svc.GenerateAccessToken("u1", "u1@example.com")
	require.NoError(t, err)

	other := NewJWTService("other", time.Hour, func() time.Time { return clock })
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	clock = now.Add(2 * time.Hour)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseUnverified(t *testing.T) {
	svc := NewJWTService("server-only", time.Hour, nil)
	token, err := svc.GenerateAccessToken("u1", "u1@example.com")
	require.NoError(t, err)

	claims, err := ParseUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(time.Now().Add(2*time.Hour)))

	_, err = ParseUnverified("nope")
	assert.Error(t, err)
}
