package render

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/chaintwin/pkg/view"
)

const interactionCSS = `
    .edge { fill: none; transition: opacity 0.2s ease, stroke-width 0.2s ease; }
    .edge.animated { stroke-dasharray: 1200; stroke-dashoffset: 1200; animation: draw 1.2s ease forwards; }
    @keyframes draw { to { stroke-dashoffset: 0; } }
    .node { transition: opacity 0.2s ease, transform 0.2s ease; cursor: pointer; }
    .node.focused .glyph { stroke-width: 2.5; }
    .route { cursor: pointer; }
    .route.active text { font-weight: bold; }`

// RenderSVG draws v as a standalone SVG document.
func RenderSVG(v *view.View, opts ...Option) []byte {
	o := newOptions(opts...)
	return renderSceneSVG(BuildScene(v, opts...), o)
}

func renderSceneSVG(s Scene, o options) []byte {
	t := o.theme
	var buf bytes.Buffer
	canvas := svg.New(&buf)

	canvas.Start(px(s.Width*s.Zoom), px(s.Height*s.Zoom),
		attr("data-study", s.Study), attr("data-mode", s.Mode))
	canvas.Title(s.Title)
	canvas.Style("text/css", interactionCSS)

	canvas.Def()
	arrowMarker(canvas, view.MarkerDefault, Hex(t.Edge))
	arrowMarker(canvas, view.MarkerActive, Hex(t.EdgeActive))
	canvas.DefEnd()

	canvas.Gtransform(fmt.Sprintf("scale(%s)", num(s.Zoom)))
	canvas.Rect(0, 0, px(s.Width), px(s.Height), "fill:"+Hex(t.Background))
	canvas.Text(px(Margin/2), px(TitleHeight-8), s.Title,
		fmt.Sprintf("fill:%s;font-size:14px;font-weight:bold;font-family:%s", Hex(t.Text), t.FontFamily))

	canvas.Group(`class="edges"`)
	for _, e := range s.Edges {
		classes := []string{"edge"}
		colour := t.Edge
		if e.Emphasis.Highlighted {
			classes = append(classes, "highlighted")
			colour = t.EdgeActive
		}
		if e.Emphasis.Dimmed {
			classes = append(classes, "dimmed")
		}
		style := fmt.Sprintf("stroke:%s;stroke-width:%s;opacity:%s", Hex(colour), num(e.Emphasis.StrokeWidth), num(e.Emphasis.Opacity))
		if o.animate {
			classes = append(classes, "animated")
			style += fmt.Sprintf(";animation-delay:%ss", num(e.Delay))
		}
		canvas.Path(e.D,
			attr("class", strings.Join(classes, " ")),
			attr("data-from", string(e.From)),
			attr("data-to", string(e.To)),
			attr("data-style", string(e.Style)),
			attr("marker-end", "url(#"+e.Emphasis.Marker+")"),
			style)
	}
	for _, e := range s.Edges {
		if e.Waypoint == nil {
			continue
		}
		canvas.Circle(px(e.Waypoint.X), px(e.Waypoint.Y), px(WaypointRadius),
			`class="waypoint"`, fmt.Sprintf("fill:%s;opacity:%s", Hex(t.Waypoint), num(e.Emphasis.Opacity)))
	}
	canvas.Gend()

	canvas.Group(`class="nodes"`)
	for _, n := range s.Nodes {
		renderNodeSVG(canvas, n, t)
	}
	canvas.Gend()

	if o.legend && s.LegendY > 0 {
		renderLegendSVG(canvas, s, t)
	}
	if s.Panel != nil {
		renderPanelSVG(canvas, s.Panel, t)
	}

	canvas.Gend()
	canvas.End()
	return buf.Bytes()
}

func arrowMarker(canvas *svg.SVG, id, fill string) {
	canvas.Marker(id, 9, 5, 8, 8, `orient="auto"`, `viewBox="0 0 10 10"`)
	canvas.Path("M 0 0 L 10 5 L 0 10 z", "fill:"+fill)
	canvas.MarkerEnd()
}

func renderNodeSVG(canvas *svg.SVG, n SceneNode, t Theme) {
	classes := []string{"node"}
	if n.Emphasis.Highlighted {
		classes = append(classes, "highlighted")
	}
	if n.Emphasis.Focused {
		classes = append(classes, "focused")
	}
	if n.Emphasis.Dimmed {
		classes = append(classes, "dimmed")
	}
	c := n.Center()
	group := []string{
		attr("id", "node-"+string(n.ID)),
		attr("class", strings.Join(classes, " ")),
		attr("data-category", string(n.Category)),
	}
	if n.Emphasis.Scale != 1 {
		group = append(group, attr("transform", fmt.Sprintf("translate(%s %s) scale(%s) translate(%s %s)",
			num(c.X), num(c.Y), num(n.Emphasis.Scale), num(-c.X), num(-c.Y))))
	}
	group = append(group, "opacity:"+num(n.Emphasis.Opacity))
	canvas.Group(group...)

	canvas.Roundrect(px(n.X), px(n.Y), px(n.W), px(n.H), 10, 10,
		`class="glyph"`, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", Hex(t.CategoryColor(n.Category)), Hex(t.Text)))
	canvas.Text(px(c.X), px(c.Y+6), initial(n.Label),
		fmt.Sprintf("fill:#ffffff;font-size:18px;font-weight:bold;text-anchor:middle;font-family:%s", t.FontFamily))
	canvas.Text(px(c.X), px(n.Y+n.H+14), n.Label,
		fmt.Sprintf("fill:%s;font-size:11px;text-anchor:middle;font-family:%s", Hex(t.Text), t.FontFamily))
	canvas.Gend()
}

func renderLegendSVG(canvas *svg.SVG, s Scene, t Theme) {
	canvas.Group(`class="legend"`)
	for _, r := range s.Routes {
		classes := "route"
		fill := t.Subtle
		if r.Active {
			classes += " active"
			fill = t.EdgeActive
		}
		canvas.Group(attr("class", classes), attr("data-route", string(r.ID)))
		canvas.Roundrect(px(r.X), px(s.LegendY-8), 16, 16, 4, 4, "fill:"+Hex(fill))
		canvas.Text(px(r.X+22), px(s.LegendY+4), r.Label,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:%s", Hex(t.Text), t.FontFamily))
		canvas.Gend()
	}
	canvas.Gend()
}

func renderPanelSVG(canvas *svg.SVG, p *PanelBox, t Theme) {
	canvas.Group(`class="panel"`, attr("data-node", string(p.Content.NodeID)), attr("data-mode", string(p.Content.Mode)))
	canvas.Roundrect(px(p.X), px(p.Y), px(p.W), px(p.H), 8, 8,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", Hex(t.PanelFill), Hex(t.PanelEdge)))

	x := px(p.X + PanelPadding)
	mid := px(p.X + p.W/2)
	for i, row := range p.Rows {
		y := px(p.Y + PanelPadding + float64(i+1)*PanelLine - 4)
		font := fmt.Sprintf("font-size:11px;font-family:%s", t.FontFamily)
		switch row.Kind {
		case RowTitle:
			canvas.Text(x, y, row.Text, fmt.Sprintf("fill:%s;font-size:13px;font-weight:bold;font-family:%s", Hex(t.Text), t.FontFamily))
		case RowBody:
			canvas.Text(x, y, row.Text, "fill:"+Hex(t.Subtle)+";"+font)
		case RowKPI:
			canvas.Text(x, y, row.Glyph, "fill:"+Hex(t.TrendColor(row.Trend))+";"+font)
			canvas.Text(x+16, y, row.Text, "fill:"+Hex(t.Text)+";"+font)
		case RowMetricLabel:
			canvas.Text(x, y, row.Text, "fill:"+Hex(t.Subtle)+";font-size:10px;font-family:"+t.FontFamily)
			canvas.Text(mid, y, row.Right, "fill:"+Hex(t.Subtle)+";font-size:10px;font-family:"+t.FontFamily)
		case RowMetric:
			canvas.Text(x, y, row.Text, "fill:"+Hex(t.Text)+";font-weight:bold;"+font)
			canvas.Text(mid, y, row.Right, "fill:"+Hex(t.Text)+";font-weight:bold;"+font)
		case RowHint:
			canvas.Text(x, y, row.Text, "fill:"+Hex(t.EdgeActive)+";font-style:italic;"+font)
		}
	}
	if p.Content.Closeable {
		canvas.Text(px(p.X+p.W-PanelPadding), px(p.Y+PanelPadding+PanelLine-4), "×",
			`class="close"`, fmt.Sprintf("fill:%s;font-size:14px;text-anchor:end;font-family:%s", Hex(t.Subtle), t.FontFamily))
	}
	canvas.Gend()
}

// attr renders a raw attribute for svgo, which passes strings containing
// "=" through unchanged and wraps everything else in style="...".
func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func px(f float64) int { return int(math.Round(f)) }

// num formats a float without trailing zeros.
func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func initial(label string) string {
	for _, r := range label {
		return strings.ToUpper(string(r))
	}
	return "?"
}
