package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/chaintwin/pkg/buildinfo"
	"github.com/matzehuels/chaintwin/pkg/cache"
	"github.com/matzehuels/chaintwin/pkg/config"
	"github.com/matzehuels/chaintwin/pkg/server"
	"github.com/matzehuels/chaintwin/pkg/studies"
	"github.com/matzehuels/chaintwin/pkg/watch"
)

type serveOpts struct {
	addr      string
	watch     bool
	redis     string
	viewTTL   time.Duration
	maxViews  int
	mountRate float64
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve studies and interactive views over HTTP",
		Long: `Start the HTTP API. Studies are listed and rendered under /api/studies;
interactive views are mounted under /api/views and driven with hover,
click, route and zoom events.`,
		Example: `  chaintwin serve
  chaintwin serve --addr :9000 --studies ./studies --watch
  chaintwin serve --redis redis://localhost:6379/0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config().Server
			if !cmd.Flags().Changed("addr") {
				opts.addr = cfg.Addr
			}
			if !cmd.Flags().Changed("watch") {
				opts.watch = cfg.Watch
			}
			if !cmd.Flags().Changed("redis") {
				opts.redis = c.config().Cache.Redis
			}
			if !cmd.Flags().Changed("view-ttl") {
				opts.viewTTL = cfg.ViewTTL.Duration
			}
			if !cmd.Flags().Changed("max-views") {
				opts.maxViews = cfg.MaxViews
			}
			if !cmd.Flags().Changed("mount-rate") {
				opts.mountRate = cfg.MountRate
			}
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload study files when they change on disk")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis URL for the artifact cache (default: file cache)")
	cmd.Flags().DurationVar(&opts.viewTTL, "view-ttl", server.DefaultViewTTL, "idle time after which a view is unmounted")
	cmd.Flags().IntVar(&opts.maxViews, "max-views", server.DefaultMaxViews, "maximum number of mounted views")
	cmd.Flags().Float64Var(&opts.mountRate, "mount-rate", 0, "view mounts allowed per second (0 = unlimited)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	reg, err := c.registry()
	if err != nil {
		return err
	}

	store, keyer, err := c.serverCache(ctx, opts.redis)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(reg,
		server.WithLogger(logger),
		server.WithCache(store, c.config().Cache.TTL.Duration),
		server.WithKeyer(keyer),
		server.WithViewTTL(opts.viewTTL),
		server.WithMaxViews(opts.maxViews),
		server.WithMountRate(opts.mountRate, c.config().Server.MountBurst),
		server.WithSweepInterval(c.config().Server.SweepInterval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, opts.addr)
	})

	if dir := c.userStudiesDir(); opts.watch && dir != "" {
		w := watch.New(dir, reg,
			watch.WithLogger(logger),
			watch.WithFilter(studies.IsStudyFile),
			watch.WithOnReload(func(path string, changed bool, err error) {
				if err != nil {
					printWarning("Reload failed for %s: %v", path, err)
				} else if changed {
					printInfo("Reloaded %s", path)
				}
			}),
		)
		g.Go(func() error { return w.Run(ctx) })
		logger.Info("watching studies", "dir", dir)
	} else if opts.watch {
		printWarning("--watch needs a studies directory (--studies or [studies] dir)")
	}

	printSuccess("Serving %d studies on %s", reg.Len(), opts.addr)
	return g.Wait()
}

// serverCache picks the artifact store for the server. Redis entries are
// scoped to the build version so that renderer changes never serve stale
// artifacts from a shared instance.
func (c *CLI) serverCache(ctx context.Context, url string) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if url == "" || c.noCache || c.config().Cache.Disabled {
		return c.newCache(), keyer, nil
	}
	rc, err := cache.NewRedisCache(ctx, url, cache.WithKeyPrefix(c.config().Cache.Prefix))
	if err != nil {
		return nil, nil, err
	}
	loggerFromContext(ctx).Info("using redis cache", "prefix", c.config().Cache.Prefix)
	return rc, cache.NewScopedKeyer(keyer, buildinfo.Version), nil
}
