package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // exact path, prefix when ending in "/", or a single "*" wildcard
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	IdleTimeout     time.Duration // buckets unused this long are dropped
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig returns a configuration that limits extraction-triggering
// requests to perMinute per client. perMinute <= 0 disables limiting.
func NewConfig(perMinute int) *Config {
	if perMinute <= 0 {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		IdleTimeout:     time.Hour,
		Whitelist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(perMinute),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations.
// Advancing a session is the only request that calls the model.
func DefaultEndpointConfigs(perMinute int) []EndpointConfig {
	burst := min(perMinute, 5)
	return []EndpointConfig{
		{Path: "/sessions/*/advance", Method: "POST", Limit: perMinute, Window: time.Minute, Burst: burst},
		{Path: "/sessions", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/sessions/", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && matchPath(config.Path, path) {
			return config
		}
	}
	return nil
}

func matchPath(pattern, path string) bool {
	if prefix, suffix, ok := strings.Cut(pattern, "*"); ok {
		return len(path) > len(prefix)+len(suffix) &&
			strings.HasPrefix(path, prefix) &&
			strings.HasSuffix(path, suffix)
	}
	if strings.HasSuffix(pattern, "/") {
		return strings.HasPrefix(path, pattern)
	}
	return pattern == path
}
