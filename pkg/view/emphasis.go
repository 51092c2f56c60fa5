package view

import (
	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/panel"
)

// Arrowhead marker ids shared by every renderer.
const (
	MarkerDefault = "arrow"
	MarkerActive  = "arrow-active"
)

// Visual weights applied to connectors and glyphs.
const (
	EdgeStrokeDefault   = 2.0
	EdgeStrokeActive    = 3.0
	EdgeOpacityDefault  = 0.6
	EdgeOpacityDimmed   = 0.2
	EdgeOpacityActive   = 1.0
	NodeOpacityDefault  = 1.0
	NodeOpacityDimmed   = 0.35
	NodeScaleDefault    = 1.0
	NodeScaleEmphasized = 1.1
)

// EdgeEmphasis is how a connector should be drawn in the current state.
type EdgeEmphasis struct {
	Highlighted bool    `json:"highlighted"`
	Dimmed      bool    `json:"dimmed"`
	StrokeWidth float64 `json:"stroke_width"`
	Opacity     float64 `json:"opacity"`
	Marker      string  `json:"marker"`
}

// NodeEmphasis is how a glyph should be drawn in the current state.
type NodeEmphasis struct {
	Highlighted bool    `json:"highlighted"`
	Focused     bool    `json:"focused"`
	Dimmed      bool    `json:"dimmed"`
	Opacity     float64 `json:"opacity"`
	Scale       float64 `json:"scale"`
}

// EdgeEmphasis returns the drawing weights for the edge from→to.
// Highlighted edges are thicker with the active arrowhead; the rest are
// dimmed while a route is active and drawn at default opacity otherwise.
func (v *View) EdgeEmphasis(from, to flow.NodeID) EdgeEmphasis {
	switch {
	case v.IsEdgeHighlighted(from, to):
		return EdgeEmphasis{
			Highlighted: true,
			StrokeWidth: EdgeStrokeActive,
			Opacity:     EdgeOpacityActive,
			Marker:      MarkerActive,
		}
	case v.Mode() == RouteActive:
		return EdgeEmphasis{
			Dimmed:      true,
			StrokeWidth: EdgeStrokeDefault,
			Opacity:     EdgeOpacityDimmed,
			Marker:      MarkerDefault,
		}
	default:
		return EdgeEmphasis{
			StrokeWidth: EdgeStrokeDefault,
			Opacity:     EdgeOpacityDefault,
			Marker:      MarkerDefault,
		}
	}
}

// NodeEmphasis returns the drawing weights for a node glyph.
func (v *View) NodeEmphasis(id flow.NodeID) NodeEmphasis {
	e := NodeEmphasis{
		Highlighted: v.IsNodeHighlighted(id),
		Focused:     v.IsNodeFocused(id),
		Opacity:     NodeOpacityDefault,
		Scale:       NodeScaleDefault,
	}
	if e.Highlighted || e.Focused {
		e.Scale = NodeScaleEmphasized
	}
	if v.Mode() == RouteActive && !e.Highlighted && !e.Focused {
		e.Dimmed = true
		e.Opacity = NodeOpacityDimmed
	}
	return e
}

// ActivePanel returns the detail panel to show: the expanded panel of the
// pinned node if there is one, otherwise the compact panel of the hovered
// node. It reports false when neither exists.
func (v *View) ActivePanel() (panel.Panel, bool) {
	if v.selected != "" {
		if n, ok := v.graph.Node(v.selected); ok {
			return panel.Build(n, panel.Expanded), true
		}
	}
	if v.hovered != "" {
		if n, ok := v.graph.Node(v.hovered); ok {
			return panel.Build(n, panel.Compact), true
		}
	}
	return panel.Panel{}, false
}
