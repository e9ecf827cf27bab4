package config

import (
	"net/url"
	"strings"
)

// App holds the settings shared by every command.
type App struct {
	Env            string   `env:"APP_ENV" envDefault:"development"`
	ServiceName    string   `env:"APP_NAME" envDefault:"liberta"`
	LogLevel       string   `env:"LOG_LEVEL"`
	SiteURL        string   `env:"SITE_URL" envDefault:"http://localhost:8080"`
	LoginPath      string   `env:"LOGIN_PATH" envDefault:"/login"`
	PaywallPath    string   `env:"PAYWALL_PATH" envDefault:"/app/paywall"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Site returns SiteURL without a trailing slash.
func (a App) Site() string {
	return strings.TrimRight(a.SiteURL, "/")
}

// SameSite reports whether raw points at the same scheme and host as SiteURL.
func (a App) SameSite(raw string) bool {
	site, err := url.Parse(a.Site())
	if err != nil || site.Host == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, site.Scheme) && strings.EqualFold(u.Host, site.Host)
}
