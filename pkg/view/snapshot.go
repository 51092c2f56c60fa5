package view

import (
	"math"

	"github.com/matzehuels/chaintwin/pkg/flow"
)

// Snapshot is the serializable interaction state of a view. It is exposed to
// surrounding code (breadcrumbs, report export) and lets stateless callers
// such as the HTTP render endpoint rebuild a view from query parameters.
type Snapshot struct {
	Study    string       `json:"study"`
	Hovered  flow.NodeID  `json:"hovered,omitempty"`
	Selected flow.NodeID  `json:"selected,omitempty"`
	Route    flow.RouteID `json:"route,omitempty"`
	Zoom     float64      `json:"zoom,omitempty"`
}

// Snapshot captures the current state.
func (v *View) Snapshot() Snapshot {
	return Snapshot{
		Study:    v.graph.Name(),
		Hovered:  v.hovered,
		Selected: v.selected,
		Route:    v.route,
		Zoom:     v.zoom,
	}
}

// Restore replaces the state with s, validating every reference against the
// graph. Zoom is clamped and snapped to the nearest step; zero and
// non-finite values mean default.
// On error the view is left unchanged.
func (v *View) Restore(s Snapshot) error {
	next := New(v.graph)
	if s.Route != "" {
		if err := next.SelectRoute(s.Route); err != nil {
			return err
		}
	}
	if s.Hovered != "" {
		if err := next.HoverEnter(s.Hovered); err != nil {
			return err
		}
	}
	if s.Selected != "" {
		if err := next.Click(s.Selected); err != nil {
			return err
		}
	}
	if s.Zoom != 0 {
		next.setZoom(math.Round(s.Zoom/ZoomStep) * ZoomStep)
	}
	*v = *next
	return nil
}

// FromSnapshot mounts a view over g and restores s into it.
func FromSnapshot(g *flow.Graph, s Snapshot) (*View, error) {
	v := New(g)
	if err := v.Restore(s); err != nil {
		return nil, err
	}
	return v, nil
}
