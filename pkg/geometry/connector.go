package geometry

import (
	"math"

	"github.com/matzehuels/chaintwin/pkg/flow"
)

const (
	// CornerRadius is the fixed radius of the rounded corner in elbow connectors.
	CornerRadius = 12.0

	// ElevatedLift is how far above the higher endpoint the control points of
	// an elevated connector are raised, so long same-row skips clear the
	// glyphs they pass over.
	ElevatedLift = 60.0
)

// Anchor names a point on a node glyph's border.
type Anchor int

// Glyph anchors.
const (
	AnchorRight Anchor = iota
	AnchorLeft
	AnchorTop
	AnchorBottom
	AnchorCenter
)

// AnchorPoint returns the given anchor of a glyph whose top-left corner is at
// pos.
func AnchorPoint(pos flow.Position, a Anchor) Point {
	x, y := pos.X, pos.Y
	switch a {
	case AnchorRight:
		return Point{X: x + flow.NodeWidth, Y: y + flow.NodeHeight/2}
	case AnchorLeft:
		return Point{X: x, Y: y + flow.NodeHeight/2}
	case AnchorTop:
		return Point{X: x + flow.NodeWidth/2, Y: y}
	case AnchorBottom:
		return Point{X: x + flow.NodeWidth/2, Y: y + flow.NodeHeight}
	default:
		return Point{X: x + flow.NodeWidth/2, Y: y + flow.NodeHeight/2}
	}
}

// Connector is the computed geometry of one edge.
type Connector struct {
	From     flow.NodeID         `json:"from"`
	To       flow.NodeID         `json:"to"`
	Style    flow.ConnectorStyle `json:"style"`
	Path     Path                `json:"path"`
	Waypoint *Point              `json:"waypoint,omitempty"`
}

// D returns the SVG path data of the connector.
func (c Connector) D() string { return c.Path.String() }

// Connect computes the connector between two glyphs for the given style.
// An empty style is treated as a curve; unknown styles fall back to a curve
// as well, since graphs reject them at build time.
func Connect(from, to flow.Position, style flow.ConnectorStyle) Connector {
	style = style.Normalize()
	c := Connector{Style: style}
	switch style {
	case flow.ConnectorStraight:
		c.Path = straight(from, to)
	case flow.ConnectorBranchDown:
		c.Path = vertical(AnchorPoint(from, AnchorBottom), AnchorPoint(to, AnchorTop))
	case flow.ConnectorBranchUp:
		c.Path = vertical(AnchorPoint(from, AnchorTop), AnchorPoint(to, AnchorBottom))
	case flow.ConnectorElbow:
		c.Path = elbow(from, to)
	case flow.ConnectorElevated:
		c.Path = elevated(from, to)
		w := c.Path.PointAt(0, 0.5)
		c.Waypoint = &w
	default:
		c.Style = flow.ConnectorCurve
		c.Path = curve(AnchorPoint(from, AnchorRight), AnchorPoint(to, AnchorLeft))
	}
	return c
}

// ConnectEdge computes the connector for an edge of g.
// It reports false if either endpoint is missing from g.
func ConnectEdge(g *flow.Graph, e flow.Edge) (Connector, bool) {
	from, ok := g.Node(e.From)
	if !ok {
		return Connector{}, false
	}
	to, ok := g.Node(e.To)
	if !ok {
		return Connector{}, false
	}
	c := Connect(from.Position, to.Position, e.Connector)
	c.From, c.To = e.From, e.To
	return c, true
}

// Layout computes connectors for every edge of g in authoring order.
func Layout(g *flow.Graph) []Connector {
	edges := g.Edges()
	out := make([]Connector, 0, len(edges))
	for _, e := range edges {
		if c, ok := ConnectEdge(g, e); ok {
			out = append(out, c)
		}
	}
	return out
}

// curve is the standard left-to-right S-curve: both control points sit on
// the horizontal midpoint, each sharing its own endpoint's y.
func curve(a, b Point) Path {
	mx := (a.X + b.X) / 2
	return MoveTo(a).CubicTo(Point{X: mx, Y: a.Y}, Point{X: mx, Y: b.Y}, b)
}

// vertical is the tier-to-tier S-curve: control points on the vertical
// midpoint, each sharing its own endpoint's x.
func vertical(a, b Point) Path {
	my := (a.Y + b.Y) / 2
	return MoveTo(a).CubicTo(Point{X: a.X, Y: my}, Point{X: b.X, Y: my}, b)
}

// straight drops a plain line from one tier to the next, leaving the bottom
// of the upper glyph and entering the top of the lower one.
func straight(from, to flow.Position) Path {
	if to.Y >= from.Y {
		return MoveTo(AnchorPoint(from, AnchorBottom)).LineTo(AnchorPoint(to, AnchorTop))
	}
	return MoveTo(AnchorPoint(from, AnchorTop)).LineTo(AnchorPoint(to, AnchorBottom))
}

// elbow leaves the source's right side horizontally, turns a rounded corner
// over the target's center column and enters the target vertically.
func elbow(from, to flow.Position) Path {
	a := AnchorPoint(from, AnchorRight)
	var b Point
	if to.Y >= from.Y {
		b = AnchorPoint(to, AnchorTop)
	} else {
		b = AnchorPoint(to, AnchorBottom)
	}

	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 || dy == 0 {
		return MoveTo(a).LineTo(b)
	}
	sx, sy := math.Copysign(1, dx), math.Copysign(1, dy)
	r := math.Min(CornerRadius, math.Min(math.Abs(dx), math.Abs(dy)))
	corner := Point{X: b.X, Y: a.Y}

	return MoveTo(a).
		LineTo(Point{X: corner.X - sx*r, Y: corner.Y}).
		QuadTo(corner, Point{X: corner.X, Y: corner.Y + sy*r}).
		LineTo(b)
}

// elevated arcs over the row between two glyphs. Control points are a
// quarter of the span in from each end, lifted above the higher endpoint.
func elevated(from, to flow.Position) Path {
	a := AnchorPoint(from, AnchorRight)
	b := AnchorPoint(to, AnchorLeft)
	peak := math.Min(a.Y, b.Y) - ElevatedLift
	quarter := (b.X - a.X) / 4
	return MoveTo(a).CubicTo(Point{X: a.X + quarter, Y: peak}, Point{X: b.X - quarter, Y: peak}, b)
}
