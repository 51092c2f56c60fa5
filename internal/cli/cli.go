package cli

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chaintwin/pkg/buildinfo"
	"github.com/matzehuels/chaintwin/pkg/cache"
	"github.com/matzehuels/chaintwin/pkg/config"
	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/observability"
	"github.com/matzehuels/chaintwin/pkg/studies"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	studiesDir string
	noCache    bool
	strict     bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Chaintwin explores supply-chain diagrams",
		Long:         `Chaintwin renders supply-chain case studies as node-link diagrams with route highlighting and per-stage detail panels, from the terminal or over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				c.Logger.Warn("ignoring .env", "error", err)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			registerHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/chaintwin/config.toml)")
	flags.StringVar(&c.studiesDir, "studies", "", "directory of extra study files (.toml, .yaml, .json)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the artifact cache")
	flags.BoolVar(&c.strict, "strict", false, "reject routes with steps that have no backing edge")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.studiesCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Resources
// =============================================================================

// config returns the loaded configuration, or the defaults before
// PersistentPreRunE has run.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

func (c *CLI) buildOptions() []flow.BuildOption {
	if c.strict || c.config().Studies.Strict {
		return []flow.BuildOption{flow.RequireRouteEdges()}
	}
	return nil
}

// registry loads the builtin studies and overlays the studies directory.
// Broken user files are reported and skipped.
func (c *CLI) registry() (*studies.Registry, error) {
	reg, err := studies.Builtin(
		studies.WithLogger(c.Logger),
		studies.WithBuildOptions(c.buildOptions()...),
	)
	if err != nil {
		return nil, err
	}
	if dir := c.userStudiesDir(); dir != "" {
		n, err := reg.LoadDir(dir)
		if err != nil {
			c.Logger.Warn("some study files were skipped", "dir", dir, "error", err)
		}
		c.Logger.Debug("loaded user studies", "dir", dir, "count", n)
	}
	return reg, nil
}

func (c *CLI) userStudiesDir() string {
	if c.studiesDir != "" {
		return c.studiesDir
	}
	return c.config().Studies.Dir
}

// newCache opens the file cache unless caching is disabled. A cache that
// cannot be opened degrades to no caching.
func (c *CLI) newCache() cache.Cache {
	if c.noCache || c.config().Cache.Disabled {
		return cache.NewNullCache()
	}
	dir, err := c.fileCacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "error", err)
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// fileCacheDir is the configured cache directory or the XDG default.
func (c *CLI) fileCacheDir() (string, error) {
	if dir := c.config().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/chaintwin/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// registerHooks routes library events to the CLI logger.
func registerHooks(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetRenderHooks(h)
	observability.SetCacheHooks(h)
	observability.SetViewHooks(h)
}
