package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liberta-app/liberta/pkg/session"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := session.NewJWTVerifier("  ")
	assert.ErrorIs(t, err, session.ErrMissingSecret)
}

func TestJWTVerifier_Verify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	v, err := session.NewJWTVerifier(testSecret, session.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub":   userID.String(),
			"email": "ana@example.com",
			"aud":   "authenticated",
			"exp":   now.Add(time.Hour).Unix(),
		})

		id, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, userID, id.ID)
		assert.Equal(t, "ana@example.com", id.Email)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": userID.String(),
			"aud": "authenticated",
			"exp": now.Add(-time.Minute).Unix(),
		})

		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, session.ErrExpiredToken)
	})

	t.Run("missing exp", func(t *testing.T) {
		t.Parallel()
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": userID.String(),
			"aud": "authenticated",
		})

		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		token := signToken(t, jwt.SigningMethodHS256, []byte("another-secret"), jwt.MapClaims{
			"sub": userID.String(),
			"aud": "authenticated",
			"exp": now.Add(time.Hour).Unix(),
		})

		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		t.Parallel()
		token := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{
			"sub": userID.String(),
			"aud": "authenticated",
			"exp": now.Add(time.Hour).Unix(),
		})

		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		t.Parallel()
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": userID.String(),
			"aud": "anon",
			"exp": now.Add(time.Hour).Unix(),
		})

		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("subject is not a uuid", func(t *testing.T) {
		t.Parallel()
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
			"sub": "service-role",
			"aud": "authenticated",
			"exp": now.Add(time.Hour).Unix(),
		})

		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, session.ErrInvalidSubject)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		_, err := v.Verify(context.Background(), "")
		assert.ErrorIs(t, err, session.ErrMissingToken)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := v.Verify(context.Background(), "not.a.jwt")
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})
}

func TestJWTVerifier_AudienceDisabled(t *testing.T) {
	t.Parallel()

	v, err := session.NewJWTVerifier(testSecret, session.WithAudience(""))
	require.NoError(t, err)

	userID := uuid.New()
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, id.ID)
}
