package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/view"
)

// ToDOT converts the view to Graphviz DOT. Authored positions are passed as
// pinned "pos" attributes (in points, y flipped) so neato reproduces the
// diagram; dot ignores them and lays the chain out left to right. Nodes and
// edges of the active route are drawn in the active colour, the rest grey
// when a route is active.
func ToDOT(v *view.View) string {
	g := v.Graph()
	t := DefaultTheme
	b := g.Bounds()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", g.Name())
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  label=%q;\n", g.Title())
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, fontcolor=white];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		e := v.NodeEmphasis(n.ID)
		attrs := []string{
			fmt.Sprintf("label=%q", n.DisplayLabel()),
			fmt.Sprintf("fillcolor=%q", Hex(t.CategoryColor(n.Category))),
			fmt.Sprintf("pos=\"%s,%s!\"", num(n.Position.X), num(b.MaxY-n.Position.Y)),
		}
		switch {
		case e.Highlighted:
			attrs = append(attrs, "penwidth=3", fmt.Sprintf("color=%q", Hex(t.EdgeActive)))
		case e.Dimmed:
			attrs = append(attrs, "fillcolor=\"#cbd5e1\"", "fontcolor=\"#64748b\"")
		}
		if e.Focused {
			attrs = append(attrs, "peripheries=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		em := v.EdgeEmphasis(e.From, e.To)
		var attrs []string
		switch {
		case em.Highlighted:
			attrs = append(attrs, fmt.Sprintf("color=%q", Hex(t.EdgeActive)), "penwidth=3")
		case em.Dimmed:
			attrs = append(attrs, "color=\"#e2e8f0\"")
		default:
			attrs = append(attrs, fmt.Sprintf("color=%q", Hex(t.Edge)))
		}
		if e.Connector == flow.ConnectorElevated {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderGraphviz lays out a DOT graph with Graphviz and returns SVG.
func RenderGraphviz(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element with one whose size
// matches its viewBox, so the output scales like the native SVG sink.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
