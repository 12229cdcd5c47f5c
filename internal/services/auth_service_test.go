package services

import (
	"context"
	"strings"
	"testing"
	"time"

	registry_errors "upload-registry/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	token, expiresIn, err := auth.IssueAccessToken("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := auth.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
}

func TestParseAccessTokenRejects(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)
	other := NewAuthService("other-secret", time.Hour)

	foreign, _, err := other.IssueAccessToken("u1")
	require.NoError(t, err)

	expiredIssuer := NewAuthService("secret", time.Hour)
	expiredIssuer.accessTTL = -time.Minute
	expired, _, err := expiredIssuer.IssueAccessToken("u1")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not-a-token",
		"foreign": foreign,
		"expired": expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ParseAccessToken(token)
			assert.ErrorIs(t, err, registry_errors.ErrUnauthorized)
		})
	}

	_, _, err = auth.IssueAccessToken("")
	assert.ErrorIs(t, err, registry_errors.ErrInvalidInput)
}

func TestUserContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	userID, ok := UserIDFromContext(WithUserContext(context.Background(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)
}

func TestBuildObjectKey(t *testing.T) {
	key := BuildObjectKey("u1", "Holiday.JPG")
	assert.True(t, strings.HasPrefix(key, "uploads/u1/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, BuildObjectKey("u1", "Holiday.JPG"))

	assert.NotContains(t, BuildObjectKey("u1", "README"), ".")
}
