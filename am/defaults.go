package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Endpoint defaults
	v.SetDefault("endpoint.url", DefaultEndpointURL)
	v.SetDefault("endpoint.lang", DefaultLang)
	v.SetDefault("endpoint.user_agent", "")
	v.SetDefault("endpoint.timeout_seconds", 0)          // A slow query is still an answer
	v.SetDefault("endpoint.max_requests_per_minute", 30) // Stay well under the WDQS fair-use limits
	v.SetDefault("endpoint.allow_private", false)
	v.SetDefault("endpoint.entity_base_url", DefaultEntityBaseURL)

	// Cache defaults
	v.SetDefault("cache.backend", CacheBackendJSON)
	v.SetDefault("cache.path", DefaultCachePath)
	v.SetDefault("cache.skip", false)

	// Output defaults
	v.SetDefault("output.path", DefaultOutputPath)
	v.SetDefault("output.indent", "\t")

	// Metrics and logging
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")
}
