package config

import "fmt"

const (
	// DefaultListen is the default listen address of the dashboard host.
	DefaultListen = ":8080"

	// DefaultRequestsPerMinute is the per-IP limit of the metadata routes
	// when rate limiting is enabled without an explicit value.
	DefaultRequestsPerMinute = 120

	// DefaultRenderRequestsPerMinute is the per-IP limit of the routes that
	// render widgets. Each render reads the document from the source.
	DefaultRenderRequestsPerMinute = 30
)

// APIConfig contains the dashboard host server configuration.
type APIConfig struct {
	Server APIServerConfig `yaml:"server" mapstructure:"server"`
}

// APIServerConfig contains HTTP server settings.
type APIServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting. Public covers health
// and widget listing, Render covers the dashboard and widget fragments.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Public  RateLimitTier `yaml:"public,omitempty" mapstructure:"public"`
	Render  RateLimitTier `yaml:"render,omitempty" mapstructure:"render"`
}

// RateLimitTier defines request limits for a specific tier.
type RateLimitTier struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

func (a *APIConfig) applyDefaults() {
	if a.Server.Listen == "" {
		a.Server.Listen = DefaultListen
	}

	rl := &a.Server.RateLimit
	if !rl.Enabled {
		return
	}

	if rl.Public.RequestsPerMinute == 0 {
		rl.Public.RequestsPerMinute = DefaultRequestsPerMinute
	}

	if rl.Render.RequestsPerMinute == 0 {
		rl.Render.RequestsPerMinute = DefaultRenderRequestsPerMinute
	}
}

// ValidateAPI checks the configuration required to run the dashboard host.
func (c *Config) ValidateAPI() error {
	if c.API == nil {
		return fmt.Errorf("api section is required")
	}

	if c.API.Server.Listen == "" {
		return fmt.Errorf("api.server.listen is required")
	}

	if rl := c.API.Server.RateLimit; rl.Enabled {
		if rl.Public.RequestsPerMinute < 1 {
			return fmt.Errorf(
				"api.server.rate_limit.public.requests_per_minute must be positive",
			)
		}

		if rl.Render.RequestsPerMinute < 1 {
			return fmt.Errorf(
				"api.server.rate_limit.render.requests_per_minute must be positive",
			)
		}
	}

	return c.Validate()
}
