package session

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Middleware rejects requests without a valid session with 401 and attaches
// the Identity to the request context otherwise.
func Middleware(v Verifier) func(next http.Handler) http.Handler {
	if v == nil {
		panic("session: verifier is required")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(r, v)
			if err != nil {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Optional attaches the Identity when the request carries a valid token and
// lets every request through. Downstream code decides what "no session" means.
func Optional(v Verifier) func(next http.Handler) http.Handler {
	if v == nil {
		panic("session: verifier is required")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := identify(r, v); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identify(r *http.Request, v Verifier) (*Identity, error) {
	token, err := BearerTokenExtractor(r)
	if err != nil {
		return nil, err
	}
	return v.Verify(r.Context(), token)
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
}
