package jwthelper

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	key := []byte("secret")

	token, err := GenerateToken(key, 7, "curl/8")
	require.NoError(t, err)

	claims, err := ParseToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)
	assert.Equal(t, "curl/8", claims.UserAgent)
}

func TestParseTokenRejects(t *testing.T) {
	key := []byte("secret")

	t.Run("wrong key", func(t *testing.T) {
		token, err := GenerateToken([]byte("other"), 1, "")
		require.NoError(t, err)

		_, err = ParseToken(key, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			AdminID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}).SignedString(key)
		require.NoError(t, err)

		_, err = ParseToken(key, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("feed token is not an admin token", func(t *testing.T) {
		token, _, err := GenerateFeedToken(key, "5511977776666", time.Minute)
		require.NoError(t, err)

		_, err = ParseToken(key, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken(key, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestFeedToken(t *testing.T) {
	key := []byte("secret")

	token, expires, err := GenerateFeedToken(key, "5511977776666", FeedTokenTTL)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(FeedTokenTTL), expires, time.Second)

	require.NoError(t, ParseFeedToken(key, token, "5511977776666"))
	assert.ErrorIs(t, ParseFeedToken(key, token, "5511900000000"), ErrInvalidToken)
	assert.ErrorIs(t, ParseFeedToken([]byte("other"), token, "5511977776666"), ErrInvalidToken)

	admin, err := GenerateToken(key, 1, "curl/8")
	require.NoError(t, err)
	assert.ErrorIs(t, ParseFeedToken(key, admin, ""), ErrInvalidToken)

	expired, _, err := GenerateFeedToken(key, "5511977776666", -time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, ParseFeedToken(key, expired, "5511977776666"), ErrInvalidToken)
}
