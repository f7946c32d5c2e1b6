// Package config loads hclust settings from TOML files and HCLUST_*
// environment variables using Viper.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/logger"
)

// Config is the full hclust configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" toml:"server" yaml:"server" json:"server"`
	Database DatabaseConfig `mapstructure:"database" toml:"database" yaml:"database" json:"database"`
	Store    StoreConfig    `mapstructure:"store" toml:"store" yaml:"store" json:"store"`
	Mining   MiningConfig   `mapstructure:"mining" toml:"mining" yaml:"mining" json:"mining"`
	Log      LogConfig      `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// ServerConfig configures the session server.
type ServerConfig struct {
	Address        string   `mapstructure:"address" toml:"address" yaml:"address" json:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins"`
	MinesPerMinute int      `mapstructure:"mines_per_minute" toml:"mines_per_minute" yaml:"mines_per_minute" json:"mines_per_minute"` // per session, 0 = unlimited
}

// DatabaseConfig points at the SQLite database holding example tables.
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" yaml:"path" json:"path"`
}

// StoreConfig selects where mined dendrograms are saved.
type StoreConfig struct {
	Backend string `mapstructure:"backend" toml:"backend" yaml:"backend" json:"backend"` // file or sqlite
	Dir     string `mapstructure:"dir" toml:"dir" yaml:"dir" json:"dir"`                 // file backend only
}

// MiningConfig holds engine defaults applied to every run.
type MiningConfig struct {
	Workers  int    `mapstructure:"workers" toml:"workers" yaml:"workers" json:"workers"`         // 0 = runtime.NumCPU()
	Metric   string `mapstructure:"metric" toml:"metric" yaml:"metric" json:"metric"`             // see hclust.MetricByName
	Linkage  string `mapstructure:"linkage" toml:"linkage" yaml:"linkage" json:"linkage"`         // single or average
	MaxDepth int    `mapstructure:"max_depth" toml:"max_depth" yaml:"max_depth" json:"max_depth"` // 0 = unlimited
}

// LogConfig configures the global logger.
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
	Level string `mapstructure:"level" toml:"level" yaml:"level" json:"level"`
}

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// FileName is the config file searched for in the working directory and
// in ~/.hclust.
const FileName = "hclust.toml"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost:8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost", "http://127.0.0.1"})
	v.SetDefault("server.mines_per_minute", 60)

	v.SetDefault("database.path", "hclust.db")

	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.dir", "dendrograms")

	v.SetDefault("mining.workers", 0)
	v.SetDefault("mining.metric", "euclidean")
	v.SetDefault("mining.linkage", "single")
	v.SetDefault("mining.max_depth", 0)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
}

// New returns a Viper instance with defaults, HCLUST_* environment binding
// and, if path is empty, the first hclust.toml found in the working
// directory or ~/.hclust. An explicit path must exist.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("HCLUST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path == "" {
		path = findConfig()
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	return v, nil
}

// Load reads and validates the configuration. See New for path handling.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfig returns the first existing config file, or "".
func findConfig() string {
	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".hclust", FileName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Dir == "" {
			return errors.New("store.dir cannot be empty for the file backend")
		}
	case BackendSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path cannot be empty for the sqlite backend")
		}
	default:
		return errors.Newf("store.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Store.Backend)
	}

	if c.Mining.Workers < 0 {
		return errors.Newf("mining.workers must be >= 0, got %d", c.Mining.Workers)
	}
	if c.Mining.MaxDepth < 0 {
		return errors.Newf("mining.max_depth must be >= 0, got %d", c.Mining.MaxDepth)
	}
	if _, err := hclust.MetricByName(c.Mining.Metric); err != nil {
		return errors.Wrap(err, "mining.metric")
	}
	if _, err := hclust.LinkageByName(c.Mining.Linkage); err != nil {
		return errors.Wrap(err, "mining.linkage")
	}
	if c.Server.MinesPerMinute < 0 {
		return errors.Newf("server.mines_per_minute must be >= 0, got %d", c.Server.MinesPerMinute)
	}
	if c.Server.Address == "" {
		return errors.New("server.address cannot be empty")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log.level %q", c.Log.Level)
	}
	return nil
}

// Metric resolves mining.metric.
func (c *Config) Metric() hclust.DistanceMetric {
	m, err := hclust.MetricByName(c.Mining.Metric)
	if err != nil {
		return hclust.EuclideanMetric{}
	}
	return m
}

// Linkage resolves mining.linkage.
func (c *Config) Linkage() hclust.Linkage {
	l, err := hclust.LinkageByName(c.Mining.Linkage)
	if err != nil {
		return hclust.SingleLink{}
	}
	return l
}
