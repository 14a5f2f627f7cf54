// Package am holds chronicle's core configuration ("I am").
//
// Settings cascade, lowest precedence first: built-in defaults,
// /etc/chronicle/config.toml, ~/.chronicle/am.toml, the nearest project
// chronicle.toml (or am.toml) found walking up from the working directory,
// CHRONICLE_* environment variables, and finally command-line flags bound by
// the CLI.
package am

// Config represents the core chronicle configuration
type Config struct {
	Endpoint EndpointConfig `mapstructure:"endpoint" toml:"endpoint" json:"endpoint" yaml:"endpoint"`
	Cache    CacheConfig    `mapstructure:"cache" toml:"cache" json:"cache" yaml:"cache"`
	Output   OutputConfig   `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
	Metrics  MetricsConfig  `mapstructure:"metrics" toml:"metrics" json:"metrics" yaml:"metrics"`
	Log      LogConfig      `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// EndpointConfig configures the SPARQL query endpoint
type EndpointConfig struct {
	URL string `mapstructure:"url" toml:"url" json:"url" yaml:"url"`
	// Label service languages, e.g. "en,mul"
	Lang string `mapstructure:"lang" toml:"lang" json:"lang" yaml:"lang"`
	// Empty = chronicle/<version>
	UserAgent string `mapstructure:"user_agent" toml:"user_agent" json:"user_agent" yaml:"user_agent"`
	// 0 = no timeout
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
	// 0 = unlimited
	MaxRequestsPerMinute int `mapstructure:"max_requests_per_minute" toml:"max_requests_per_minute" json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	// Permit endpoints on private or loopback addresses (local Wikibase, QLever)
	AllowPrivate  bool   `mapstructure:"allow_private" toml:"allow_private" json:"allow_private" yaml:"allow_private"`
	EntityBaseURL string `mapstructure:"entity_base_url" toml:"entity_base_url" json:"entity_base_url" yaml:"entity_base_url"`
}

// CacheConfig configures the term cache
type CacheConfig struct {
	// json, sqlite, badger or memory
	Backend string `mapstructure:"backend" toml:"backend" json:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	// Bypass lookups for every item; results are still written
	Skip bool `mapstructure:"skip" toml:"skip" json:"skip" yaml:"skip"`
}

// OutputConfig configures the timeline document writer
type OutputConfig struct {
	Path   string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	Indent string `mapstructure:"indent" toml:"indent" json:"indent" yaml:"indent"`
}

// MetricsConfig configures run metrics export
type MetricsConfig struct {
	// node-exporter textfile path, empty = disabled
	Textfile string `mapstructure:"textfile" toml:"textfile" json:"textfile" yaml:"textfile"`
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	// everforest or gruvbox
	Theme string `mapstructure:"theme" toml:"theme" json:"theme" yaml:"theme"`
}

// Cache backends
const (
	CacheBackendJSON   = "json"
	CacheBackendSQLite = "sqlite"
	CacheBackendBadger = "badger"
	CacheBackendMemory = "memory"
)

// Endpoint defaults
const (
	DefaultEndpointURL   = "https://query.wikidata.org/sparql"
	DefaultLang          = "en,mul"
	DefaultEntityBaseURL = "https://www.wikidata.org/wiki/"
	DefaultCachePath     = "intermediate/wikidata-term-cache.json"
	DefaultOutputPath    = "intermediate/timeline.json"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
