package am

import (
	"net/url"

	"github.com/teranos/chronicle/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Endpoint.URL == "" {
		return errors.NewConfigurationError("endpoint.url cannot be empty")
	}
	u, err := url.Parse(c.Endpoint.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewConfigurationError("endpoint.url must be an absolute http(s) URL, got %q", c.Endpoint.URL)
	}

	// Timeout: 0 = wait forever, negative = invalid
	if c.Endpoint.TimeoutSeconds < 0 {
		return errors.NewConfigurationError("endpoint.timeout_seconds must be >= 0, got %d", c.Endpoint.TimeoutSeconds)
	}

	// Rate limit: 0 = unlimited, negative = invalid
	if c.Endpoint.MaxRequestsPerMinute < 0 {
		return errors.NewConfigurationError("endpoint.max_requests_per_minute must be >= 0, got %d", c.Endpoint.MaxRequestsPerMinute)
	}

	switch c.Cache.Backend {
	case CacheBackendJSON, CacheBackendSQLite, CacheBackendBadger:
		if c.Cache.Path == "" {
			return errors.NewConfigurationError("cache.path cannot be empty for the %s backend", c.Cache.Backend)
		}
	case CacheBackendMemory:
	default:
		return errors.WithHint(
			errors.NewConfigurationError("unknown cache.backend %q", c.Cache.Backend),
			"use one of: json, sqlite, badger, memory")
	}

	if c.Output.Path == "" {
		return errors.NewConfigurationError("output.path cannot be empty")
	}

	return nil
}
