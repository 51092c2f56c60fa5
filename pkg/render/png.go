package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/chaintwin/pkg/geometry"
	"github.com/matzehuels/chaintwin/pkg/panel"
	"github.com/matzehuels/chaintwin/pkg/view"
)

// RenderPNG rasterizes v. The image size is the scene size times the view's
// zoom times the WithScale factor.
func RenderPNG(v *view.View, opts ...Option) ([]byte, error) {
	o := newOptions(opts...)
	s := BuildScene(v, opts...)
	dc := drawScene(s, o)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawScene(s Scene, o options) *gg.Context {
	t := o.theme
	k := s.Zoom * o.scale
	dc := gg.NewContext(px(s.Width*k), px(s.Height*k))
	dc.Scale(k, k)

	dc.SetColor(t.Background)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(t.Text)
	dc.DrawStringAnchored(s.Title, Margin/2, TitleHeight/2, 0, 0.5)

	for _, e := range s.Edges {
		drawEdge(dc, e, t)
	}
	for _, n := range s.Nodes {
		drawNode(dc, n, t)
	}
	if o.legend && s.LegendY > 0 {
		drawLegend(dc, s, t)
	}
	if s.Panel != nil {
		drawPanel(dc, s.Panel, t)
	}
	return dc
}

func drawEdge(dc *gg.Context, e SceneEdge, t Theme) {
	base := t.Edge
	if e.Emphasis.Highlighted {
		base = t.EdgeActive
	}
	c := fade(base, e.Emphasis.Opacity)

	dc.NewSubPath()
	for _, cmd := range e.Path {
		p := cmd.Points
		switch cmd.Op {
		case geometry.OpMove:
			dc.MoveTo(p[0].X, p[0].Y)
		case geometry.OpLine:
			dc.LineTo(p[0].X, p[0].Y)
		case geometry.OpCubic:
			dc.CubicTo(p[0].X, p[0].Y, p[1].X, p[1].Y, p[2].X, p[2].Y)
		case geometry.OpQuad:
			dc.QuadraticTo(p[0].X, p[0].Y, p[1].X, p[1].Y)
		}
	}
	dc.SetColor(c)
	dc.SetLineWidth(e.Emphasis.StrokeWidth)
	dc.Stroke()

	drawArrowhead(dc, e.Path, c, e.Emphasis.StrokeWidth)

	if e.Waypoint != nil {
		dc.SetColor(fade(t.Waypoint, e.Emphasis.Opacity))
		dc.DrawCircle(e.Waypoint.X, e.Waypoint.Y, WaypointRadius)
		dc.Fill()
	}
}

// drawArrowhead draws a filled triangle at the end of p, pointing along the
// direction of the last segment.
func drawArrowhead(dc *gg.Context, p geometry.Path, c color.Color, width float64) {
	end := p.End()
	last := p[len(p)-1].Points
	from := p.Start()
	if len(last) > 1 {
		from = last[len(last)-2]
	} else if len(p) > 1 {
		prev := p[len(p)-2].Points
		from = prev[len(prev)-1]
	}
	angle := math.Atan2(end.Y-from.Y, end.X-from.X)
	size := 4 + 2*width

	dc.Push()
	dc.Translate(end.X, end.Y)
	dc.Rotate(angle)
	dc.NewSubPath()
	dc.MoveTo(0, 0)
	dc.LineTo(-size, -size/2)
	dc.LineTo(-size, size/2)
	dc.ClosePath()
	dc.SetColor(c)
	dc.Fill()
	dc.Pop()
}

func drawNode(dc *gg.Context, n SceneNode, t Theme) {
	c := n.Center()
	dc.Push()
	if n.Emphasis.Scale != 1 {
		dc.ScaleAbout(n.Emphasis.Scale, n.Emphasis.Scale, c.X, c.Y)
	}

	dc.SetColor(fade(t.CategoryColor(n.Category), n.Emphasis.Opacity))
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 10)
	dc.Fill()

	dc.SetColor(fade(t.Text, n.Emphasis.Opacity))
	lw := 1.0
	if n.Emphasis.Focused {
		lw = 2.5
	}
	dc.SetLineWidth(lw)
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 10)
	dc.Stroke()

	dc.SetColor(fade(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, n.Emphasis.Opacity))
	dc.DrawStringAnchored(initial(n.Label), c.X, c.Y, 0.5, 0.5)
	dc.SetColor(fade(t.Text, n.Emphasis.Opacity))
	dc.DrawStringAnchored(n.Label, c.X, n.Y+n.H+10, 0.5, 0.5)
	dc.Pop()
}

func drawLegend(dc *gg.Context, s Scene, t Theme) {
	for _, r := range s.Routes {
		fill := t.Subtle
		if r.Active {
			fill = t.EdgeActive
		}
		dc.SetColor(fill)
		dc.DrawRoundedRectangle(r.X, s.LegendY-8, 16, 16, 4)
		dc.Fill()
		dc.SetColor(t.Text)
		dc.DrawStringAnchored(r.Label, r.X+22, s.LegendY, 0, 0.5)
	}
}

func drawPanel(dc *gg.Context, p *PanelBox, t Theme) {
	dc.SetColor(t.PanelFill)
	dc.DrawRoundedRectangle(p.X, p.Y, p.W, p.H, 8)
	dc.Fill()
	dc.SetColor(t.PanelEdge)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(p.X, p.Y, p.W, p.H, 8)
	dc.Stroke()

	x := p.X + PanelPadding
	mid := p.X + p.W/2
	for i, row := range p.Rows {
		y := p.Y + PanelPadding + float64(i)*PanelLine + PanelLine/2
		switch row.Kind {
		case RowKPI:
			// basicfont has no triangles; draw the trend as a small shape.
			drawTrend(dc, x+4, y, row, t)
			dc.SetColor(t.Text)
			dc.DrawStringAnchored(row.Text, x+16, y, 0, 0.5)
		case RowMetricLabel, RowBody:
			dc.SetColor(t.Subtle)
			dc.DrawStringAnchored(row.Text, x, y, 0, 0.5)
			dc.DrawStringAnchored(row.Right, mid, y, 0, 0.5)
		case RowHint:
			dc.SetColor(t.EdgeActive)
			dc.DrawStringAnchored(row.Text, x, y, 0, 0.5)
		default:
			dc.SetColor(t.Text)
			dc.DrawStringAnchored(row.Text, x, y, 0, 0.5)
			dc.DrawStringAnchored(row.Right, mid, y, 0, 0.5)
		}
	}
	if p.Content.Closeable {
		dc.SetColor(t.Subtle)
		dc.DrawStringAnchored("x", p.X+p.W-PanelPadding, p.Y+PanelPadding+PanelLine/2, 1, 0.5)
	}
}

func drawTrend(dc *gg.Context, x, y float64, row PanelRow, t Theme) {
	dc.SetColor(t.TrendColor(row.Trend))
	dc.NewSubPath()
	switch row.Glyph {
	case panel.GlyphUp:
		dc.MoveTo(x, y-4)
		dc.LineTo(x+4, y+3)
		dc.LineTo(x-4, y+3)
		dc.ClosePath()
		dc.Fill()
	case panel.GlyphDown:
		dc.MoveTo(x, y+4)
		dc.LineTo(x+4, y-3)
		dc.LineTo(x-4, y-3)
		dc.ClosePath()
		dc.Fill()
	default:
		dc.SetLineWidth(1.5)
		dc.DrawLine(x-4, y, x+4, y)
		dc.Stroke()
	}
}

// fade scales the alpha of c by opacity.
func fade(c color.RGBA, opacity float64) color.NRGBA {
	opacity = math.Max(0, math.Min(1, opacity))
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(float64(c.A) * opacity))}
}
