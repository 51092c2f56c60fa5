package render

import (
	"math"
	"strings"

	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/geometry"
	"github.com/matzehuels/chaintwin/pkg/panel"
	"github.com/matzehuels/chaintwin/pkg/view"
)

// Layout constants in diagram units.
const (
	Margin         = 40.0
	TitleHeight    = 28.0
	LegendHeight   = 36.0
	LegendItemGap  = 150.0
	PanelWidth     = 230.0
	PanelPadding   = 12.0
	PanelLine      = 16.0
	PanelOffset    = 12.0
	WaypointRadius = 3.0
	// EdgeStagger is the delay between consecutive connectors of the
	// draw-in animation, in seconds.
	EdgeStagger = 0.08
	// panelWrap is the number of characters per description line.
	panelWrap = 34
)

// Scene is a view flattened for drawing. Coordinates are diagram units;
// Zoom is applied by the sinks.
type Scene struct {
	Study    string       `json:"study"`
	Title    string       `json:"title"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Zoom     float64      `json:"zoom"`
	Mode     string       `json:"mode"`
	Route    flow.RouteID `json:"route,omitempty"`
	Hovered  flow.NodeID  `json:"hovered,omitempty"`
	Selected flow.NodeID  `json:"selected,omitempty"`
	Nodes    []SceneNode  `json:"nodes"`
	Edges    []SceneEdge  `json:"edges"`
	Routes   []SceneRoute `json:"routes"`
	Panel    *PanelBox    `json:"panel,omitempty"`
	// LegendY is the baseline of the route legend, zero when omitted.
	LegendY float64 `json:"legend_y,omitempty"`
}

// SceneNode is a positioned glyph.
type SceneNode struct {
	ID       flow.NodeID       `json:"id"`
	Label    string            `json:"label"`
	Category flow.Category     `json:"category"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	W        float64           `json:"w"`
	H        float64           `json:"h"`
	Emphasis view.NodeEmphasis `json:"emphasis"`
}

// Center returns the glyph center.
func (n SceneNode) Center() geometry.Point {
	return geometry.Point{X: n.X + n.W/2, Y: n.Y + n.H/2}
}

// SceneEdge is a computed connector.
type SceneEdge struct {
	From     flow.NodeID         `json:"from"`
	To       flow.NodeID         `json:"to"`
	Style    flow.ConnectorStyle `json:"style"`
	Index    int                 `json:"index"`
	Delay    float64             `json:"delay"`
	D        string              `json:"d"`
	Path     geometry.Path       `json:"path"`
	Waypoint *geometry.Point     `json:"waypoint,omitempty"`
	Emphasis view.EdgeEmphasis   `json:"emphasis"`
}

// SceneRoute is one legend entry.
type SceneRoute struct {
	ID     flow.RouteID  `json:"id"`
	Label  string        `json:"label"`
	Nodes  []flow.NodeID `json:"nodes"`
	Active bool          `json:"active"`
	X      float64       `json:"x"`
}

// PanelBox is the detail panel placed next to its node.
type PanelBox struct {
	Content panel.Panel `json:"content"`
	Rows    []PanelRow  `json:"-"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	W       float64     `json:"w"`
	H       float64     `json:"h"`
}

// PanelRow is one text line of a panel as drawn by the raster and vector
// sinks. Metric rows are split in two columns; Right holds the second.
type PanelRow struct {
	Text  string
	Right string
	Glyph string
	Trend flow.Trend
	Kind  RowKind
}

// RowKind selects the typography of a panel row.
type RowKind int

// Row kinds.
const (
	RowTitle RowKind = iota
	RowBody
	RowKPI
	RowMetricLabel
	RowMetric
	RowHint
)

// BuildScene flattens v for drawing.
func BuildScene(v *view.View, opts ...Option) Scene {
	o := newOptions(opts...)
	g := v.Graph()
	b := g.Bounds()

	s := Scene{
		Study:    g.Name(),
		Title:    g.Title(),
		Width:    math.Max(b.MaxX, 0) + Margin,
		Height:   math.Max(b.MaxY, 0) + Margin,
		Zoom:     v.Zoom(),
		Mode:     v.Mode().String(),
		Route:    v.SelectedRoute(),
		Hovered:  v.Hovered(),
		Selected: v.Selected(),
		Nodes:    make([]SceneNode, 0, g.NodeCount()),
		Edges:    make([]SceneEdge, 0, g.EdgeCount()),
	}

	for _, n := range g.Nodes() {
		s.Nodes = append(s.Nodes, SceneNode{
			ID:       n.ID,
			Label:    n.DisplayLabel(),
			Category: n.Category,
			X:        n.Position.X,
			Y:        n.Position.Y,
			W:        flow.NodeWidth,
			H:        flow.NodeHeight,
			Emphasis: v.NodeEmphasis(n.ID),
		})
	}

	for i, c := range geometry.Layout(g) {
		s.Edges = append(s.Edges, SceneEdge{
			From:     c.From,
			To:       c.To,
			Style:    c.Style,
			Index:    i,
			Delay:    math.Round(float64(i)*EdgeStagger*100) / 100,
			D:        c.D(),
			Path:     c.Path,
			Waypoint: c.Waypoint,
			Emphasis: v.EdgeEmphasis(c.From, c.To),
		})
	}

	for i, r := range g.Routes() {
		s.Routes = append(s.Routes, SceneRoute{
			ID:     r.ID,
			Label:  r.DisplayLabel(),
			Nodes:  r.Nodes,
			Active: r.ID == v.SelectedRoute(),
			X:      Margin + float64(i)*LegendItemGap,
		})
	}
	if o.legend && len(s.Routes) > 0 {
		s.LegendY = s.Height + LegendHeight/2
		s.Height += LegendHeight
		if w := Margin + float64(len(s.Routes))*LegendItemGap; w > s.Width {
			s.Width = w
		}
	}

	if o.panel {
		if p, ok := v.ActivePanel(); ok {
			if n, ok := g.Node(p.NodeID); ok {
				s.Panel = placePanel(p, n.Position, s.Width, s.Height)
			}
		}
	}
	return s
}

// placePanel puts the panel to the right of the glyph, flipping to the left
// when it would leave the canvas, and keeps it inside vertically.
func placePanel(p panel.Panel, at flow.Position, width, height float64) *PanelBox {
	rows := panelRows(p)
	box := &PanelBox{
		Content: p,
		Rows:    rows,
		W:       PanelWidth,
		H:       2*PanelPadding + float64(len(rows))*PanelLine,
		X:       at.X + flow.NodeWidth + PanelOffset,
		Y:       at.Y,
	}
	if box.X+box.W > width {
		box.X = at.X - PanelOffset - box.W
	}
	if box.X < 0 {
		box.X = 0
	}
	if box.Y+box.H > height {
		box.Y = height - box.H
	}
	if box.Y < 0 {
		box.Y = 0
	}
	return box
}

func panelRows(p panel.Panel) []PanelRow {
	rows := []PanelRow{{Text: p.Title, Kind: RowTitle}}
	for _, line := range wrap(p.Description, panelWrap) {
		rows = append(rows, PanelRow{Text: line, Kind: RowBody})
	}
	for _, k := range p.KPIs {
		rows = append(rows, PanelRow{Text: k.Name + ": " + k.Value, Glyph: k.Glyph, Trend: k.Trend, Kind: RowKPI})
	}
	if p.Metrics != nil {
		for _, row := range p.Metrics {
			rows = append(rows,
				PanelRow{Text: row[0].Label, Right: row[1].Label, Kind: RowMetricLabel},
				PanelRow{Text: row[0].Value, Right: row[1].Value, Kind: RowMetric},
			)
		}
	}
	if p.Hint != "" {
		rows = append(rows, PanelRow{Text: p.Hint, Kind: RowHint})
	}
	return rows
}

// wrap breaks s on spaces into lines of at most width runes. Words longer
// than width get a line of their own.
func wrap(s string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	for _, w := range strings.Fields(s) {
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(w)) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
