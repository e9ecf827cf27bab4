package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RemoteVerifier asks the identity provider who owns the token
// (GET {baseURL}/auth/v1/user). Use it when the JWT secret is not available
// to this service or tokens are signed asymmetrically.
type RemoteVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// RemoteOption configures a RemoteVerifier.
type RemoteOption func(*RemoteVerifier)

// WithHTTPClient sets the client used to reach the identity provider.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(v *RemoteVerifier) {
		if c != nil {
			v.client = c
		}
	}
}

// NewRemoteVerifier creates a verifier bound to the provider at baseURL.
// apiKey is sent as the "apikey" header the provider's gateway requires.
func NewRemoteVerifier(baseURL, apiKey string, opts ...RemoteOption) (*RemoteVerifier, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingProviderURL
	}
	v := &RemoteVerifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify resolves the token against the provider.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var u remoteUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}

	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSubject, u.ID)
	}

	return &Identity{ID: id, Email: u.Email}, nil
}
