package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/chronicle/errors"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance, no user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpointURL, cfg.Endpoint.URL)
	assert.Equal(t, "en,mul", cfg.Endpoint.Lang)
	assert.Equal(t, 0, cfg.Endpoint.TimeoutSeconds)
	assert.Equal(t, CacheBackendJSON, cfg.Cache.Backend)
	assert.Equal(t, "intermediate/wikidata-term-cache.json", cfg.Cache.Path)
	assert.Equal(t, "intermediate/timeline.json", cfg.Output.Path)
	assert.Equal(t, "\t", cfg.Output.Indent)
	assert.False(t, cfg.Cache.Skip)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadWithViper(v)
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero timeout is valid (no timeout)", func(c *Config) { c.Endpoint.TimeoutSeconds = 0 }, false},
		{"negative timeout is invalid", func(c *Config) { c.Endpoint.TimeoutSeconds = -1 }, true},
		{"zero rate limit is valid (unlimited)", func(c *Config) { c.Endpoint.MaxRequestsPerMinute = 0 }, false},
		{"negative rate limit is invalid", func(c *Config) { c.Endpoint.MaxRequestsPerMinute = -5 }, true},
		{"empty endpoint", func(c *Config) { c.Endpoint.URL = "" }, true},
		{"relative endpoint", func(c *Config) { c.Endpoint.URL = "/sparql" }, true},
		{"ftp endpoint", func(c *Config) { c.Endpoint.URL = "ftp://example.org/sparql" }, true},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }, true},
		{"sqlite needs a path", func(c *Config) { c.Cache.Backend = CacheBackendSQLite; c.Cache.Path = "" }, true},
		{"memory needs no path", func(c *Config) { c.Cache.Backend = CacheBackendMemory; c.Cache.Path = "" }, false},
		{"empty output path", func(c *Config) { c.Output.Path = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfigurationError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	chdir := func(t *testing.T, dir string) {
		oldWd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(oldWd) })
	}

	t.Run("prefers chronicle.toml", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test1", "subdir")
		require.NoError(t, os.MkdirAll(subDir, DefaultDirPermissions))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1", "chronicle.toml"), nil, DefaultFilePermissions))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1", "am.toml"), nil, DefaultFilePermissions))
		chdir(t, subDir)

		result := findProjectConfig()
		require.NotEmpty(t, result)
		assert.True(t, filepath.IsAbs(result))
		assert.Equal(t, "chronicle.toml", filepath.Base(result))
	})

	t.Run("falls back to am.toml", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test2", "subdir")
		require.NoError(t, os.MkdirAll(subDir, DefaultDirPermissions))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2", "am.toml"), nil, DefaultFilePermissions))
		chdir(t, subDir)

		assert.Equal(t, "am.toml", filepath.Base(findProjectConfig()))
	})
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.toml")
	content := `
[endpoint]
url = "http://localhost:7001/sparql"
allow_private = true
max_requests_per_minute = 0

[cache]
backend = "sqlite"
path = "cache.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7001/sparql", cfg.Endpoint.URL)
	assert.True(t, cfg.Endpoint.AllowPrivate)
	assert.Equal(t, 0, cfg.Endpoint.MaxRequestsPerMinute)
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, "cache.db", cfg.Cache.Path)
	// Untouched sections keep their defaults
	assert.Equal(t, DefaultOutputPath, cfg.Output.Path)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestSaveRoundTripAndBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "chronicle.toml")

	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	cfg.Cache.Backend = CacheBackendBadger
	require.NoError(t, Save(cfg, path))
	require.NoError(t, Save(cfg, path))

	_, err = os.Stat(path + ".back1")
	assert.NoError(t, err, "second save should back up the first")

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, CacheBackendBadger, loaded.Cache.Backend)
	assert.Equal(t, cfg.Endpoint.URL, loaded.Endpoint.URL)
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := &Config{}
	err := Save(cfg, filepath.Join(t.TempDir(), "x.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}
