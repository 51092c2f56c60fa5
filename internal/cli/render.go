package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/chaintwin/pkg/cache"
	"github.com/matzehuels/chaintwin/pkg/config"
	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/render"
	"github.com/matzehuels/chaintwin/pkg/studies"
	"github.com/matzehuels/chaintwin/pkg/view"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string          // output directory
	formats   []render.Format // svg, png, json, dot
	all       bool            // render every registered study
	snapshot  view.Snapshot   // route, hovered and selected node, zoom
	scale     float64         // PNG pixel density
	noPanel   bool
	noLegend  bool
	noAnimate bool
	graphviz  bool // also lay out the DOT output with Graphviz
}

// renderResult is one written file.
type renderResult struct {
	path   string
	cached bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		route      string
		hover      string
		selected   string
		opts       renderOpts
	)

	cmd := &cobra.Command{
		Use:   "render [study|file ...]",
		Short: "Render case studies to SVG, PNG, JSON or DOT",
		Long: `Render one or more case studies. Arguments are builtin study names or
paths to study files. The interaction state is given with --route, --hover
and --selected, e.g.

  chaintwin render grain --route export --selected mills -f svg,png`,
		ValidArgsFunction: c.completeStudies,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			formats, err := parseFormats(formatsStr, cfg.Render.Formats)
			if err != nil {
				return err
			}
			opts.formats = formats
			opts.snapshot = view.Snapshot{
				Route:    flow.RouteID(route),
				Hovered:  flow.NodeID(hover),
				Selected: flow.NodeID(selected),
				Zoom:     opts.snapshot.Zoom,
			}
			if !cmd.Flags().Changed("output") && cfg.Render.Output != "" {
				opts.output = cfg.Render.Output
			}
			if !cmd.Flags().Changed("scale") {
				opts.scale = cfg.Render.Scale
			}
			if err := cterr.ValidateFactor("zoom", opts.snapshot.Zoom, 0); err != nil {
				return err
			}
			if err := cterr.ValidateFactor("scale", opts.scale, config.MaxScale); err != nil {
				return err
			}
			opts.noPanel = opts.noPanel || cfg.Render.NoPanel
			opts.noLegend = opts.noLegend || cfg.Render.NoLegend
			opts.noAnimate = opts.noAnimate || cfg.Render.NoAnimate
			if len(args) == 0 && !opts.all {
				return fmt.Errorf("name at least one study, or pass --all")
			}
			return c.runRender(cmd.Context(), args, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", ".", "output directory")
	f.StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, json, dot (comma-separated)")
	f.BoolVar(&opts.all, "all", false, "render every study")
	f.StringVarP(&route, "route", "r", "", "highlight a route")
	f.StringVar(&hover, "hover", "", "show the compact panel of a node")
	f.StringVarP(&selected, "selected", "s", "", "pin a node and show its expanded panel")
	f.Float64Var(&opts.snapshot.Zoom, "zoom", view.DefaultZoom, "zoom factor, snapped to 0.25 steps in [0.5, 2]")
	f.Float64Var(&opts.scale, "scale", 1, "PNG pixel density")
	f.BoolVar(&opts.noPanel, "no-panel", false, "omit the detail panel")
	f.BoolVar(&opts.noLegend, "no-legend", false, "omit the route legend")
	f.BoolVar(&opts.noAnimate, "no-animate", false, "omit the SVG draw-in animation")
	f.BoolVar(&opts.graphviz, "graphviz", false, "also write a Graphviz layout of the DOT output (.graphviz.svg)")

	return cmd
}

// parseFormats parses the --format flag. An empty flag yields defaults.
func parseFormats(s string, defaults []string) ([]render.Format, error) {
	names := defaults
	if s != "" {
		names = strings.Split(s, ",")
	}
	if len(names) == 0 {
		names = []string{string(render.FormatSVG)}
	}
	seen := make(map[render.Format]bool)
	var out []render.Format
	for _, name := range names {
		f, err := render.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// outputName builds "<study>[-<route>][-<node>].<ext>".
func outputName(study string, snap view.Snapshot, ext string) string {
	parts := []string{study}
	if snap.Route != "" {
		parts = append(parts, string(snap.Route))
	}
	if snap.Selected != "" {
		parts = append(parts, string(snap.Selected))
	} else if snap.Hovered != "" {
		parts = append(parts, string(snap.Hovered))
	}
	return strings.Join(parts, "-") + "." + ext
}

func (o *renderOpts) renderOptions() []render.Option {
	var opts []render.Option
	if o.noPanel {
		opts = append(opts, render.WithoutPanel())
	}
	if o.noLegend {
		opts = append(opts, render.WithoutLegend())
	}
	if o.noAnimate {
		opts = append(opts, render.WithoutAnimation())
	}
	if o.scale > 0 {
		opts = append(opts, render.WithScale(o.scale))
	}
	return opts
}

func (o *renderOpts) keyOpts(f render.Format, snap view.Snapshot) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   string(f),
		Route:    string(snap.Route),
		Hovered:  string(snap.Hovered),
		Selected: string(snap.Selected),
		Zoom:     snap.Zoom,
		Scale:    o.scale,
		Panel:    !o.noPanel,
		Legend:   !o.noLegend,
		Animate:  !o.noAnimate,
	}
}

func (c *CLI) runRender(ctx context.Context, args []string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	reg, err := c.registry()
	if err != nil {
		return err
	}
	targets, err := resolveStudies(reg, args, opts.all)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	store := c.newCache()
	defer store.Close()
	keyer := cache.NewDefaultKeyer()
	ttl := c.config().Cache.TTL.Duration

	var (
		results = make(chan renderResult, len(targets)*(len(opts.formats)+1))
		g, gctx = errgroup.WithContext(ctx)
	)
	g.SetLimit(runtime.NumCPU())

	// Resolve every state up front so a bad route or node fails the command
	// before any file is written.
	snaps := make([]view.Snapshot, len(targets))
	for i, st := range targets {
		snap := opts.snapshot
		snap.Study = st.Name()
		v, err := view.FromSnapshot(st.Graph, snap)
		if err != nil {
			return fmt.Errorf("%s: %w", st.Name(), err)
		}
		// Restore snaps the zoom; key on the effective state.
		snaps[i] = v.Snapshot()
	}

	for i, st := range targets {
		snap := snaps[i]

		for _, f := range opts.formats {
			g.Go(func() error {
				// Each job renders its own view; views are not shared across goroutines.
				jv, _ := view.FromSnapshot(st.Graph, snap)
				key := keyer.ArtifactKey(st.Hash, opts.keyOpts(f, snap))
				data, hit, err := cache.GetOrCompute(gctx, store, key, ttl, func() ([]byte, error) {
					return render.Render(gctx, jv, f, opts.renderOptions()...)
				})
				if err != nil {
					return fmt.Errorf("%s %s: %w", st.Name(), f, err)
				}
				path := filepath.Join(opts.output, outputName(st.Name(), snap, f.Ext()))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				results <- renderResult{path: path, cached: hit}
				return nil
			})
		}

		if opts.graphviz {
			g.Go(func() error {
				jv, _ := view.FromSnapshot(st.Graph, snap)
				data, err := render.RenderGraphviz(gctx, render.ToDOT(jv))
				if err != nil {
					return fmt.Errorf("%s graphviz: %w", st.Name(), err)
				}
				path := filepath.Join(opts.output, outputName(st.Name(), snap, "graphviz.svg"))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				results <- renderResult{path: path}
				return nil
			})
		}
	}

	err = g.Wait()
	close(results)
	var written []renderResult
	for r := range results {
		written = append(written, r)
	}
	sort.Slice(written, func(i, j int) bool { return written[i].path < written[j].path })
	for _, r := range written {
		printFile(r.path, r.cached)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d files", len(written)))
	return nil
}

// resolveStudies maps arguments to studies. An argument naming an existing
// study file is loaded into reg first.
func resolveStudies(reg *studies.Registry, args []string, all bool) ([]*studies.Study, error) {
	if all {
		var out []*studies.Study
		for _, name := range reg.Names() {
			st, err := reg.Get(name)
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}
		return out, nil
	}
	out := make([]*studies.Study, 0, len(args))
	for _, arg := range args {
		if studies.IsStudyFile(filepath.Base(arg)) {
			if _, err := os.Stat(arg); err == nil {
				st, err := reg.LoadFile(arg)
				if err != nil {
					return nil, err
				}
				out = append(out, st)
				continue
			}
		}
		st, err := reg.Get(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
