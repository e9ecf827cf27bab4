package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liberta-app/liberta/pkg/session"
)

func staticVerifier(token string, id *session.Identity) session.Verifier {
	return session.VerifierFunc(func(_ context.Context, got string) (*session.Identity, error) {
		if got != token {
			return nil, session.ErrInvalidToken
		}
		return id, nil
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	id := &session.Identity{ID: uuid.New(), Email: "caio@example.com"}
	mw := session.Middleware(staticVerifier("tok", id))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := session.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, id, got)
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid bearer", header: "Bearer tok", want: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer tok", want: http.StatusNoContent},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic tok", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer other", want: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthenticated"}`, rec.Body.String())
			}
		})
	}
}

func TestOptional(t *testing.T) {
	t.Parallel()

	id := &session.Identity{ID: uuid.New()}
	mw := session.Optional(staticVerifier("tok", id))

	t.Run("attaches identity", func(t *testing.T) {
		t.Parallel()
		var got *session.Identity
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = session.FromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, id, got)
	})

	t.Run("passes through without identity", func(t *testing.T) {
		t.Parallel()
		called := false
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, ok := session.FromContext(r.Context())
			assert.False(t, ok)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.True(t, called)
	})
}
