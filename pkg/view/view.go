// Package view implements the per-diagram interaction state and the
// highlight predicates derived from it.
//
// A [View] is created when a diagram is mounted, mutated only by pointer
// events (hover, leave, click, route selection) and dropped on unmount. Route
// selection and node focus are tracked independently: hovering or pinning a
// node never changes the active route, and selecting a route never moves
// focus.
//
// Route state is a two-state machine:
//
//	Idle --SelectRoute(r)--> RouteActive(r)
//	RouteActive(r) --SelectRoute(r)--> Idle
//	RouteActive(r1) --SelectRoute(r2)--> RouteActive(r2)
//
// A View is owned by a single goroutine and is not safe for concurrent use.
package view

import (
	"fmt"
	"math"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/flow"
)

// Zoom bounds. Only whole steps between the bounds are reachable.
const (
	MinZoom     = 0.5
	MaxZoom     = 2.0
	ZoomStep    = 0.25
	DefaultZoom = 1.0
)

// Mode is the route state of a view.
type Mode int

const (
	// Idle means no route is selected; nothing is highlighted.
	Idle Mode = iota
	// RouteActive means one route is selected.
	RouteActive
)

func (m Mode) String() string {
	if m == RouteActive {
		return "route-active"
	}
	return "idle"
}

// View is the ephemeral interaction state of one diagram.
// The zero value is not usable; use New.
type View struct {
	graph    *flow.Graph
	hovered  flow.NodeID
	selected flow.NodeID
	route    flow.RouteID
	active   flow.Route
	zoom     float64
}

// New mounts a view over g with every field cleared.
func New(g *flow.Graph) *View {
	return &View{graph: g, zoom: DefaultZoom}
}

// Graph returns the graph the view was mounted on.
func (v *View) Graph() *flow.Graph { return v.graph }

// Mode returns Idle or RouteActive.
func (v *View) Mode() Mode {
	if v.route == "" {
		return Idle
	}
	return RouteActive
}

// Hovered returns the hovered node id, or "" if none.
func (v *View) Hovered() flow.NodeID { return v.hovered }

// Selected returns the pinned node id, or "" if none.
func (v *View) Selected() flow.NodeID { return v.selected }

// SelectedRoute returns the active route id, or "" when idle.
func (v *View) SelectedRoute() flow.RouteID { return v.route }

// ActiveRoute returns the active route, if any.
func (v *View) ActiveRoute() (flow.Route, bool) {
	if v.route == "" {
		return flow.Route{}, false
	}
	return v.active, true
}

// Zoom returns the current zoom factor.
func (v *View) Zoom() float64 { return v.zoom }

// =============================================================================
// Events
// =============================================================================

// SelectRoute handles a click on a route selector. Selecting the active route
// toggles back to Idle; selecting another route replaces it directly.
// An unknown id leaves the state untouched and returns a NOT_FOUND error.
func (v *View) SelectRoute(id flow.RouteID) error {
	r, ok := v.graph.Route(id)
	if !ok {
		return cterr.New(cterr.ErrCodeNotFound, "unknown route %q in %s", id, v.graph.Name())
	}
	if v.route == id {
		v.ClearRoute()
		return nil
	}
	v.route, v.active = id, r
	return nil
}

// ClearRoute returns the view to Idle.
func (v *View) ClearRoute() {
	v.route, v.active = "", flow.Route{}
}

// HoverEnter records the pointer entering a node.
func (v *View) HoverEnter(id flow.NodeID) error {
	if err := v.requireNode(id); err != nil {
		return err
	}
	v.hovered = id
	return nil
}

// HoverLeave records the pointer leaving the hovered node. A pinned node
// stays focused through its pin.
func (v *View) HoverLeave() {
	v.hovered = ""
}

// Click toggles the pin on a node: clicking the pinned node clears the pin,
// clicking any other node moves it.
func (v *View) Click(id flow.NodeID) error {
	if err := v.requireNode(id); err != nil {
		return err
	}
	if v.selected == id {
		v.selected = ""
		return nil
	}
	v.selected = id
	return nil
}

// Unpin clears the pinned node, as done by the panel's close affordance.
func (v *View) Unpin() { v.selected = "" }

// ZoomIn increases the zoom by one step, up to MaxZoom.
func (v *View) ZoomIn() { v.setZoom(v.zoom + ZoomStep) }

// ZoomOut decreases the zoom by one step, down to MinZoom.
func (v *View) ZoomOut() { v.setZoom(v.zoom - ZoomStep) }

// ResetZoom restores DefaultZoom.
func (v *View) ResetZoom() { v.zoom = DefaultZoom }

func (v *View) setZoom(z float64) {
	switch {
	case math.IsNaN(z) || math.IsInf(z, 0):
		z = DefaultZoom
	case z < MinZoom:
		z = MinZoom
	case z > MaxZoom:
		z = MaxZoom
	}
	v.zoom = z
}

func (v *View) requireNode(id flow.NodeID) error {
	if !v.graph.HasNode(id) {
		return cterr.New(cterr.ErrCodeNotFound, "unknown node %q in %s", id, v.graph.Name())
	}
	return nil
}

// =============================================================================
// Predicates
// =============================================================================

// IsNodeHighlighted reports whether id is a member of the active route.
// Always false when idle.
func (v *View) IsNodeHighlighted(id flow.NodeID) bool {
	if v.route == "" {
		return false
	}
	return v.active.Contains(id)
}

// IsEdgeHighlighted reports whether from and to are consecutive in the active
// route, in either order. Two members that are both on the route but not next
// to each other do not highlight the edge between them.
func (v *View) IsEdgeHighlighted(from, to flow.NodeID) bool {
	if v.route == "" {
		return false
	}
	return v.active.Adjacent(from, to)
}

// IsNodeFocused reports whether id is hovered or pinned.
func (v *View) IsNodeFocused(id flow.NodeID) bool {
	return id != "" && (v.hovered == id || v.selected == id)
}

// HighlightedNodes returns the highlighted node ids in graph authoring order.
func (v *View) HighlightedNodes() []flow.NodeID {
	var out []flow.NodeID
	for _, n := range v.graph.Nodes() {
		if v.IsNodeHighlighted(n.ID) {
			out = append(out, n.ID)
		}
	}
	return out
}

// HighlightedEdges returns the highlighted edges in authoring order.
func (v *View) HighlightedEdges() []flow.Edge {
	var out []flow.Edge
	for _, e := range v.graph.Edges() {
		if v.IsEdgeHighlighted(e.From, e.To) {
			out = append(out, e)
		}
	}
	return out
}

// String summarizes the state for logs.
func (v *View) String() string {
	return fmt.Sprintf("view{%s mode=%s route=%q hovered=%q selected=%q zoom=%.2f}",
		v.graph.Name(), v.Mode(), v.route, v.hovered, v.selected, v.zoom)
}
