// Package config loads the optional chaintwin configuration file.
//
// The file lives at $XDG_CONFIG_HOME/chaintwin/config.toml (or the
// platform equivalent) and supplies defaults that command-line flags
// override:
//
//	[studies]
//	dir = "~/supply-chains"
//	strict = true
//
//	[render]
//	formats = ["svg", "png"]
//	output = "out"
//	scale = 2
//
//	[cache]
//	ttl = "24h"
//	redis = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	view_ttl = "30m"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
)

// AppName names the configuration and cache directories.
const AppName = "chaintwin"

// Defaults.
const (
	DefaultFormat        = "svg"
	DefaultScale         = 1.0
	MaxScale             = 8.0
	DefaultCacheTTL      = 24 * time.Hour
	DefaultAddr          = ":8080"
	DefaultViewTTL       = 30 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultMaxViews      = 1000
)

// Config is the decoded configuration file.
type Config struct {
	Studies Studies `toml:"studies"`
	Render  Render  `toml:"render"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`

	validated bool
}

// Studies selects where user case studies come from.
type Studies struct {
	// Dir is overlaid on the builtin studies.
	Dir string `toml:"dir"`
	// Strict rejects routes with steps that have no backing edge.
	Strict bool `toml:"strict"`
}

// Render holds output defaults for the render command.
type Render struct {
	Formats   []string `toml:"formats"`
	Output    string   `toml:"output"`
	Scale     float64  `toml:"scale"`
	NoPanel   bool     `toml:"no_panel"`
	NoLegend  bool     `toml:"no_legend"`
	NoAnimate bool     `toml:"no_animate"`
}

// Cache configures the artifact cache.
type Cache struct {
	Disabled bool     `toml:"disabled"`
	Dir      string   `toml:"dir"`
	TTL      Duration `toml:"ttl"`
	// Redis, when set, selects the Redis backend for the server.
	Redis  string `toml:"redis"`
	Prefix string `toml:"prefix"`
}

// Server configures the HTTP API.
type Server struct {
	Addr          string   `toml:"addr"`
	ViewTTL       Duration `toml:"view_ttl"`
	SweepInterval Duration `toml:"sweep_interval"`
	MaxViews      int      `toml:"max_views"`
	Watch         bool     `toml:"watch"`
	// MountRate limits view mounts per second; zero means unlimited.
	MountRate  float64 `toml:"mount_rate"`
	MountBurst int     `toml:"mount_burst"`
}

// Duration is a time.Duration written as a Go duration string ("30m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// Environment variables that override the file. They are applied after the
// file is decoded and before defaults are filled in.
const (
	EnvStudiesDir = "CHAINTWIN_STUDIES_DIR"
	EnvCacheDir   = "CHAINTWIN_CACHE_DIR"
	EnvRedisURL   = "CHAINTWIN_REDIS_URL"
	EnvAddr       = "CHAINTWIN_ADDR"
	EnvViewTTL    = "CHAINTWIN_VIEW_TTL"
)

// Load reads the file at path and applies environment overrides. A missing
// file yields the defaults. An empty path means the default location.
func Load(path string) (*Config, error) {
	c, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadFile(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return &Config{}, nil
	}
	if os.IsNotExist(err) {
		return nil, cterr.New(cterr.ErrCodeFileNotFound, "config file not found: %s", path)
	}
	if err != nil {
		return nil, cterr.Wrap(cterr.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return decode(data)
}

// Parse decodes a configuration document and applies defaults.
func Parse(data []byte) (*Config, error) {
	c, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := c.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, cterr.Wrap(cterr.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, cterr.New(cterr.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvStudiesDir); v != "" {
		c.Studies.Dir = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Cache.Redis = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvViewTTL); v != "" {
		if err := c.Server.ViewTTL.UnmarshalText([]byte(v)); err != nil {
			return cterr.Wrap(cterr.ErrCodeInvalidConfig, err, "%s", EnvViewTTL)
		}
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	_ = c.ValidateAndSetDefaults()
	return c
}

// ValidateAndSetDefaults checks values and fills in zero fields. It is
// idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}

	if len(c.Render.Formats) == 0 {
		c.Render.Formats = []string{DefaultFormat}
	}
	for i, f := range c.Render.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "svg", "png", "json", "dot":
		default:
			return cterr.New(cterr.ErrCodeInvalidConfig, "render.formats: unknown format %q", f)
		}
		c.Render.Formats[i] = f
	}
	if c.Render.Scale == 0 {
		c.Render.Scale = DefaultScale
	}
	if cterr.ValidateFactor("render.scale", c.Render.Scale, MaxScale) != nil {
		return cterr.New(cterr.ErrCodeInvalidConfig, "render.scale must be in (0, %g], got %g", MaxScale, c.Render.Scale)
	}

	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = DefaultCacheTTL
	}
	if c.Cache.TTL.Duration < 0 {
		return cterr.New(cterr.ErrCodeInvalidConfig, "cache.ttl must be positive")
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = AppName + ":"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ViewTTL.Duration == 0 {
		c.Server.ViewTTL.Duration = DefaultViewTTL
	}
	if c.Server.SweepInterval.Duration == 0 {
		c.Server.SweepInterval.Duration = DefaultSweepInterval
	}
	if c.Server.ViewTTL.Duration < 0 || c.Server.SweepInterval.Duration < 0 {
		return cterr.New(cterr.ErrCodeInvalidConfig, "server durations must be positive")
	}
	if c.Server.MaxViews == 0 {
		c.Server.MaxViews = DefaultMaxViews
	}
	if c.Server.MaxViews < 0 {
		return cterr.New(cterr.ErrCodeInvalidConfig, "server.max_views must be positive")
	}
	if !(c.Server.MountRate >= 0) || c.Server.MountBurst < 0 {
		return cterr.New(cterr.ErrCodeInvalidConfig, "server.mount_rate and server.mount_burst must not be negative")
	}

	c.Studies.Dir = expandHome(c.Studies.Dir)
	c.Cache.Dir = expandHome(c.Cache.Dir)

	c.validated = true
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
