// Package geometry computes connector paths between node glyphs.
//
// A connector is described as a [Path]: an ordered list of absolute
// move/line/curve commands. Paths are plain data, so they can be drawn on any
// 2D vector surface; [Path.String] produces an SVG path "d" attribute and the
// JSON encoding lists each command with its points.
//
// Every function in this package is pure: identical node positions always
// produce identical paths.
package geometry

import (
	"math"
	"strconv"
	"strings"
)

// Point is an absolute coordinate in diagram units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

// Op is a path command.
type Op string

// Path commands. Coordinates are always absolute.
const (
	OpMove  Op = "M" // one point
	OpLine  Op = "L" // one point
	OpCubic Op = "C" // two control points, then the end point
	OpQuad  Op = "Q" // one control point, then the end point
)

// Command is a single path instruction.
type Command struct {
	Op     Op      `json:"op"`
	Points []Point `json:"points"`
}

// Path is a sequence of commands starting with a move.
type Path []Command

// MoveTo starts a new path at p.
func MoveTo(p Point) Path { return Path{{Op: OpMove, Points: []Point{p}}} }

// LineTo appends a straight segment to p.
func (p Path) LineTo(to Point) Path {
	return append(p, Command{Op: OpLine, Points: []Point{to}})
}

// CubicTo appends a cubic Bézier segment.
func (p Path) CubicTo(c1, c2, to Point) Path {
	return append(p, Command{Op: OpCubic, Points: []Point{c1, c2, to}})
}

// QuadTo appends a quadratic Bézier segment.
func (p Path) QuadTo(c, to Point) Path {
	return append(p, Command{Op: OpQuad, Points: []Point{c, to}})
}

// Start returns the first point of the path.
func (p Path) Start() Point {
	if len(p) == 0 || len(p[0].Points) == 0 {
		return Point{}
	}
	return p[0].Points[0]
}

// End returns the last point of the path.
func (p Path) End() Point {
	if len(p) == 0 {
		return Point{}
	}
	pts := p[len(p)-1].Points
	if len(pts) == 0 {
		return Point{}
	}
	return pts[len(pts)-1]
}

// String renders the path as an SVG "d" attribute, e.g.
// "M 88 224 C 134 224 134 84 180 84".
func (p Path) String() string {
	var b strings.Builder
	for i, c := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(c.Op))
		for _, pt := range c.Points {
			b.WriteByte(' ')
			b.WriteString(formatCoord(pt.X))
			b.WriteByte(' ')
			b.WriteString(formatCoord(pt.Y))
		}
	}
	return b.String()
}

// formatCoord prints v with at most two decimals and no trailing zeros.
func formatCoord(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // normalize -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PointAt evaluates the segment with the given index at parameter t in [0,1].
// Segment 0 is the first drawing command after the initial move.
func (p Path) PointAt(segment int, t float64) Point {
	idx := segment + 1
	if idx <= 0 || idx >= len(p) {
		return p.End()
	}
	start := p[idx-1].Points[len(p[idx-1].Points)-1]
	c := p[idx]
	switch c.Op {
	case OpCubic:
		return cubicAt(start, c.Points[0], c.Points[1], c.Points[2], t)
	case OpQuad:
		return quadAt(start, c.Points[0], c.Points[1], t)
	default:
		end := c.Points[len(c.Points)-1]
		return Point{X: start.X + (end.X-start.X)*t, Y: start.Y + (end.Y-start.Y)*t}
	}
}

func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

func quadAt(p0, p1, p2 Point, t float64) Point {
	u := 1 - t
	a, b, c := u*u, 2*u*t, t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y,
	}
}
