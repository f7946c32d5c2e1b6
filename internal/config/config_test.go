package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/hclust"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no hclust.toml is picked up.
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.Address)
	assert.Equal(t, 60, cfg.Server.MinesPerMinute)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "dendrograms", cfg.Store.Dir)
	assert.Equal(t, "hclust.db", cfg.Database.Path)
	assert.Equal(t, 0, cfg.Mining.Workers)
	assert.Equal(t, "euclidean", cfg.Mining.Metric)
	assert.Equal(t, "single", cfg.Mining.Linkage)
	assert.False(t, cfg.Log.JSON)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
[server]
address = "0.0.0.0:9000"
allowed_origins = ["https://example.org"]

[store]
backend = "sqlite"

[database]
path = "/tmp/x.db"

[mining]
workers = 4
metric = "manhattan"
linkage = "average"
max_depth = 50

[log]
json = true
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address)
	assert.Equal(t, []string{"https://example.org"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 4, cfg.Mining.Workers)
	assert.Equal(t, 50, cfg.Mining.MaxDepth)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.IsType(t, hclust.ManhattanMetric{}, cfg.Metric())
	assert.IsType(t, hclust.AverageLink{}, cfg.Linkage())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[mining]
linkage = "single"
`)
	t.Setenv("HCLUST_MINING_LINKAGE", "average")
	t.Setenv("HCLUST_SERVER_ADDRESS", "127.0.0.1:1234")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "average", cfg.Mining.Linkage)
	assert.Equal(t, "127.0.0.1:1234", cfg.Server.Address)
}

func TestLoadSearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("[mining]\nworkers = 3\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Mining.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "[mining\nworkers = ")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Address: "localhost:8080"},
			Database: DatabaseConfig{Path: "hclust.db"},
			Store:    StoreConfig{Backend: BackendFile, Dir: "dendrograms"},
			Mining:   MiningConfig{Metric: "euclidean", Linkage: "single"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"sqlite backend", func(c *Config) { c.Store.Backend = BackendSQLite; c.Store.Dir = "" }, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, "store.backend"},
		{"empty dir", func(c *Config) { c.Store.Dir = "" }, "store.dir"},
		{"empty db path", func(c *Config) { c.Store.Backend = BackendSQLite; c.Database.Path = "" }, "database.path"},
		{"negative workers", func(c *Config) { c.Mining.Workers = -1 }, "mining.workers"},
		{"negative max depth", func(c *Config) { c.Mining.MaxDepth = -2 }, "mining.max_depth"},
		{"unknown metric", func(c *Config) { c.Mining.Metric = "hamming" }, "mining.metric"},
		{"unknown linkage", func(c *Config) { c.Mining.Linkage = "ward" }, "mining.linkage"},
		{"negative mine budget", func(c *Config) { c.Server.MinesPerMinute = -1 }, "server.mines_per_minute"},
		{"unknown log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
		{"empty address", func(c *Config) { c.Server.Address = "" }, "server.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
