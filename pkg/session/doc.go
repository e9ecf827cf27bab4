// Package session adapts the external identity provider to HTTP handlers.
//
// The provider owns the session lifecycle; this package only answers "who is
// calling?" for a bearer token. Two verifiers are available:
//
//   - JWTVerifier checks HS256 access tokens locally with the provider's JWT
//     secret (audience "authenticated", exp required, subject must be a UUID).
//   - RemoteVerifier resolves the token by calling the provider's
//     /auth/v1/user endpoint, which also catches revoked sessions.
//
// NewVerifier picks one from Config.
//
// # Usage
//
//	v, err := session.NewVerifier(cfg)
//	if err != nil {
//		return err
//	}
//
//	r.With(session.Middleware(v)).Post("/checkout", h.checkout)
//
//	func (h *handler) checkout(w http.ResponseWriter, r *http.Request) {
//		id, _ := session.FromContext(r.Context())
//		// id.ID is the provider's user id
//	}
//
// Middleware answers 401 {"error":"unauthenticated"} when the token is missing
// or invalid. Optional never rejects; it only attaches the identity when one
// can be established, which is what the entitlement gate needs to tell
// "no session" apart from "no access".
package session
