package session

import "time"

// Config holds the identity provider settings.
type Config struct {
	ProviderURL    string        `env:"SUPABASE_URL,required"`
	ServiceRoleKey string        `env:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret      string        `env:"SUPABASE_JWT_SECRET"`
	Audience       string        `env:"SUPABASE_JWT_AUDIENCE" envDefault:"authenticated"`
	Leeway         time.Duration `env:"SUPABASE_JWT_LEEWAY" envDefault:"30s"`
}

// NewVerifier verifies tokens locally when a JWT secret is configured and
// falls back to asking the identity provider otherwise.
func NewVerifier(cfg Config) (Verifier, error) {
	if cfg.JWTSecret != "" {
		return NewJWTVerifier(cfg.JWTSecret,
			WithAudience(cfg.Audience),
			WithLeeway(cfg.Leeway),
		)
	}
	return NewRemoteVerifier(cfg.ProviderURL, cfg.ServiceRoleKey)
}
