package session

import "errors"

var (
	ErrMissingToken        = errors.New("session: missing bearer token")
	ErrInvalidToken        = errors.New("session: invalid token")
	ErrExpiredToken        = errors.New("session: token is expired")
	ErrInvalidSubject      = errors.New("session: token subject is not a user id")
	ErrMissingSecret       = errors.New("session: jwt secret is required")
	ErrMissingProviderURL  = errors.New("session: identity provider url is required")
	ErrProviderUnavailable = errors.New("session: identity provider unavailable")
)
