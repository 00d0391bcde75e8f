package config

import (
	"strings"
	"time"
)

const (
	defaultAPITimeout    = 30 * time.Second
	defaultRedirectDelay = time.Second
)

// APIConfig configures the request gateway.
type APIConfig struct {
	// BaseURL is the ARCO API root every request path is resolved against.
	BaseURL string `env:"URL" envDefault:"http://localhost:3000/api"`

	// Timeout bounds a single request. Zero leaves the gateway default in place.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// RedirectDelay is how long after a 401 the login redirect fires.
	RedirectDelay time.Duration `env:"REDIRECT_DELAY" envDefault:"1s"`

	// DownloadExpiresSession makes a 401 on a file download reset the session
	// the same way a JSON request does.
	DownloadExpiresSession bool `env:"DOWNLOAD_EXPIRES_SESSION" envDefault:"false"`
}

// Sanitize trims the base URL and enforces safe durations.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout < 0 {
		c.Timeout = defaultAPITimeout
	}
	if c.RedirectDelay <= 0 {
		c.RedirectDelay = defaultRedirectDelay
	}
}
