package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "medilink/pkg/domain-errors"
)

var jwtService = NewService("test-signing-key", "medilink-test")
var userID = uuid.NewString()

func Test_GenerateToken(t *testing.T) {
	token, err := jwtService.GenerateToken(userID, "patient", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "patient", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateToken(userID, "doctor", -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewService("other-key", "medilink-test")
	token, err := other.GenerateToken(userID, "admin", time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func Test_MiddlewareAdapter(t *testing.T) {
	adapter := NewMiddlewareAdapter(jwtService)

	token, err := jwtService.GenerateToken(userID, "patient", time.Hour)
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "patient", claims.Role)
	assert.False(t, claims.Expired)

	expired, err := jwtService.GenerateToken(userID, "patient", -time.Hour)
	require.NoError(t, err)

	claims, err = adapter.ValidateToken(expired)
	require.Error(t, err)
	require.NotNil(t, claims)
	assert.True(t, claims.Expired)
}
