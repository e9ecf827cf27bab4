package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liberta-app/liberta/pkg/session"
)

func TestRemoteVerifier_Verify(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("apikey") != "service-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": userID.String(), "email": "bia@example.com"})
		case "Bearer weird":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "nope"})
		case "Bearer boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)

	v, err := session.NewRemoteVerifier(srv.URL+"/", "service-key", session.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()
		id, err := v.Verify(context.Background(), "good")
		require.NoError(t, err)
		assert.Equal(t, userID, id.ID)
		assert.Equal(t, "bia@example.com", id.Email)
	})

	t.Run("rejected token", func(t *testing.T) {
		t.Parallel()
		_, err := v.Verify(context.Background(), "bad")
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()
		_, err := v.Verify(context.Background(), "boom")
		assert.ErrorIs(t, err, session.ErrProviderUnavailable)
	})

	t.Run("non uuid id", func(t *testing.T) {
		t.Parallel()
		_, err := v.Verify(context.Background(), "weird")
		assert.ErrorIs(t, err, session.ErrInvalidSubject)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		_, err := v.Verify(context.Background(), "")
		assert.ErrorIs(t, err, session.ErrMissingToken)
	})
}

func TestNewRemoteVerifier_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := session.NewRemoteVerifier("", "key")
	assert.ErrorIs(t, err, session.ErrMissingProviderURL)
}

func TestNewVerifier_PicksImplementation(t *testing.T) {
	t.Parallel()

	v, err := session.NewVerifier(session.Config{ProviderURL: "https://x.supabase.co", JWTSecret: testSecret})
	require.NoError(t, err)
	assert.IsType(t, &session.JWTVerifier{}, v)

	v, err = session.NewVerifier(session.Config{ProviderURL: "https://x.supabase.co"})
	require.NoError(t, err)
	assert.IsType(t, &session.RemoteVerifier{}, v)
}
