package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
)

func TestDefault(t *testing.T) {
	c := Default()
	if len(c.Render.Formats) != 1 || c.Render.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v", c.Render.Formats)
	}
	if c.Render.Scale != DefaultScale {
		t.Errorf("Scale = %v", c.Render.Scale)
	}
	if c.Cache.TTL.Duration != DefaultCacheTTL {
		t.Errorf("Cache.TTL = %v", c.Cache.TTL)
	}
	if c.Server.Addr != DefaultAddr || c.Server.ViewTTL.Duration != DefaultViewTTL {
		t.Errorf("Server = %+v", c.Server)
	}
	if c.Server.MaxViews != DefaultMaxViews {
		t.Errorf("MaxViews = %d", c.Server.MaxViews)
	}
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
[studies]
dir = "/srv/studies"
strict = true

[render]
formats = ["SVG", " png"]
scale = 2

[cache]
ttl = "1h"
redis = "redis://localhost:6379/0"

[server]
addr = ":9000"
view_ttl = "5m"
watch = true
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Studies.Dir != "/srv/studies" || !c.Studies.Strict {
		t.Errorf("Studies = %+v", c.Studies)
	}
	if got := c.Render.Formats; len(got) != 2 || got[0] != "svg" || got[1] != "png" {
		t.Errorf("Formats = %v", got)
	}
	if c.Render.Scale != 2 {
		t.Errorf("Scale = %v", c.Render.Scale)
	}
	if c.Cache.TTL.Duration != time.Hour {
		t.Errorf("TTL = %v", c.Cache.TTL)
	}
	if c.Server.Addr != ":9000" || c.Server.ViewTTL.Duration != 5*time.Minute || !c.Server.Watch {
		t.Errorf("Server = %+v", c.Server)
	}
	if c.Server.SweepInterval.Duration != DefaultSweepInterval {
		t.Errorf("SweepInterval = %v", c.Server.SweepInterval)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `[render`},
		{"unknown key", "[render]\ncolour = \"red\""},
		{"unknown format", "[render]\nformats = [\"pdf\"]"},
		{"bad duration", "[server]\nview_ttl = \"soon\""},
		{"negative scale", "[render]\nscale = -1"},
		{"negative views", "[server]\nmax_views = -3"},
		{"negative mount rate", "[server]\nmount_rate = -1.0"},
		{"nan scale", "[render]\nscale = nan"},
		{"infinite scale", "[render]\nscale = inf"},
		{"nan mount rate", "[server]\nmount_rate = nan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !cterr.Is(err, cterr.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want INVALID_CONFIG", cterr.GetCode(err))
			}
		})
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	c := &Config{}
	if err := c.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	c.Render.Scale = -1
	if err := c.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load without a file: %v", err)
	}
	if c.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q", c.Server.Addr)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !cterr.Is(err, cterr.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: %v", err)
	}

	path, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, AppName, "config.toml") {
		t.Errorf("Path = %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[server]\naddr = \":7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":7000" {
		t.Errorf("Addr = %q", c.Server.Addr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := "[server]\naddr = \":7000\"\nview_ttl = \"5m\"\n[cache]\nredis = \"redis://file:6379/0\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAddr, ":9000")
	t.Setenv(EnvRedisURL, "redis://env:6379/1")
	t.Setenv(EnvStudiesDir, "~/studies")
	t.Setenv(EnvViewTTL, "")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":9000" {
		t.Errorf("Addr = %q, want the environment value", c.Server.Addr)
	}
	if c.Cache.Redis != "redis://env:6379/1" {
		t.Errorf("Redis = %q", c.Cache.Redis)
	}
	if c.Server.ViewTTL.Duration != 5*time.Minute {
		t.Errorf("ViewTTL = %v, want the file value", c.Server.ViewTTL)
	}
	if strings.HasPrefix(c.Studies.Dir, "~") {
		t.Errorf("Studies.Dir = %q, want ~ expanded", c.Studies.Dir)
	}

	t.Setenv(EnvViewTTL, "soon")
	if _, err := Load(path); !cterr.Is(err, cterr.ErrCodeInvalidConfig) {
		t.Errorf("bad %s: %v", EnvViewTTL, err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/studies"); got != filepath.Join(home, "studies") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("expandHome(/abs) = %q", got)
	}
}
