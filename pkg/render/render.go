package render

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/observability"
	"github.com/matzehuels/chaintwin/pkg/view"
)

// Format names an output surface.
type Format string

// Output formats.
const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatSVG, FormatPNG, FormatJSON, FormatDOT}

// ParseFormat validates a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Formats, f) {
		return f, nil
	}
	return "", cterr.New(cterr.ErrCodeInvalidFormat, "unsupported format %q (want svg, png, json or dot)", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

// Ext returns the file extension of the format, without the dot.
func (f Format) Ext() string { return string(f) }

// Option configures rendering.
type Option func(*options)

type options struct {
	theme   Theme
	panel   bool
	legend  bool
	animate bool
	scale   float64
}

func newOptions(opts ...Option) options {
	o := options{theme: DefaultTheme, panel: true, legend: true, animate: true, scale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.scale > 0) || math.IsInf(o.scale, 0) {
		o.scale = 1
	}
	return o
}

// WithTheme overrides the colour theme.
func WithTheme(t Theme) Option { return func(o *options) { o.theme = t } }

// WithoutPanel omits the detail panel overlay.
func WithoutPanel() Option { return func(o *options) { o.panel = false } }

// WithoutLegend omits the route legend.
func WithoutLegend() Option { return func(o *options) { o.legend = false } }

// WithoutAnimation drops the staggered draw-in animation from SVG output.
func WithoutAnimation() Option { return func(o *options) { o.animate = false } }

// WithScale sets the PNG pixel density (default 1, 2 for high-DPI displays).
func WithScale(s float64) Option { return func(o *options) { o.scale = s } }

// Render draws v in the given format. Render hooks observe every call.
func Render(ctx context.Context, v *view.View, f Format, opts ...Option) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	study := v.Graph().Name()
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, study, string(f))
	start := time.Now()

	data, err := render(v, f, opts...)
	hooks.OnRenderComplete(ctx, study, string(f), len(data), time.Since(start), err)
	return data, err
}

func render(v *view.View, f Format, opts ...Option) ([]byte, error) {
	switch f {
	case FormatSVG:
		return RenderSVG(v, opts...), nil
	case FormatPNG:
		return RenderPNG(v, opts...)
	case FormatJSON:
		return RenderJSON(v, opts...)
	case FormatDOT:
		return []byte(ToDOT(v)), nil
	}
	return nil, cterr.New(cterr.ErrCodeInvalidFormat, "unsupported format %q", f)
}
