package flow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Builder.Build] when a node id is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Builder.Build] when two nodes share an id.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateRouteID is returned by [Builder.Build] when two routes share an id.
	ErrDuplicateRouteID = errors.New("duplicate route ID")

	// ErrEmptyRoute is returned by [Builder.Build] for a route without members
	// or without an id.
	ErrEmptyRoute = errors.New("route must have an ID and at least one node")

	// ErrUnknownNode is returned by [Builder.Build] when an edge or a route
	// references a node id absent from the node set.
	ErrUnknownNode = errors.New("unknown node reference")

	// ErrInvalidConnector is returned by [Builder.Build] for an edge whose
	// connector tag is not one of the known styles.
	ErrInvalidConnector = errors.New("invalid connector style")

	// ErrPhantomRouteStep is returned by [Builder.Build] with
	// [RequireRouteEdges] when two consecutive route members have no edge
	// between them.
	ErrPhantomRouteStep = errors.New("route step has no backing edge")
)

// NodeID uniquely identifies a stage within one graph.
type NodeID string

// RouteID identifies a named route ("export", "domestic", "feed").
type RouteID string

// Category classifies a stage. Unknown categories are kept verbatim and
// rendered with the neutral theme colour.
type Category string

// Known stage categories.
const (
	CategoryProduction   Category = "production"
	CategoryTransport    Category = "transport"
	CategoryStorage      Category = "storage"
	CategoryProcessing   Category = "processing"
	CategoryDistribution Category = "distribution"
	CategoryRetail       Category = "retail"
	CategoryConsumer     Category = "consumer"
	CategoryExport       Category = "export"
	CategoryByproduct    Category = "byproduct"
)

// Trend is the authored direction indicator attached to a KPI.
type Trend string

// KPI trends.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ParseTrend converts a document value into a Trend.
// An empty string means stable.
func ParseTrend(s string) (Trend, error) {
	switch Trend(strings.ToLower(strings.TrimSpace(s))) {
	case TrendUp:
		return TrendUp, nil
	case TrendDown:
		return TrendDown, nil
	case TrendStable, "":
		return TrendStable, nil
	}
	return "", fmt.Errorf("invalid trend %q (want up, down or stable)", s)
}

// ConnectorStyle selects the geometry used to draw an edge.
type ConnectorStyle string

// Connector styles. The zero value is treated as [ConnectorCurve].
const (
	ConnectorCurve      ConnectorStyle = "curve"
	ConnectorStraight   ConnectorStyle = "straight"
	ConnectorBranchUp   ConnectorStyle = "branch-up"
	ConnectorBranchDown ConnectorStyle = "branch-down"
	ConnectorElevated   ConnectorStyle = "elevated"
	ConnectorElbow      ConnectorStyle = "elbow"
)

// ConnectorStyles lists every known connector style.
var ConnectorStyles = []ConnectorStyle{
	ConnectorCurve,
	ConnectorStraight,
	ConnectorBranchUp,
	ConnectorBranchDown,
	ConnectorElevated,
	ConnectorElbow,
}

// Valid reports whether s is a known style or empty.
func (s ConnectorStyle) Valid() bool {
	if s == "" {
		return true
	}
	for _, known := range ConnectorStyles {
		if s == known {
			return true
		}
	}
	return false
}

// Normalize returns s, or [ConnectorCurve] for the zero value.
func (s ConnectorStyle) Normalize() ConnectorStyle {
	if s == "" {
		return ConnectorCurve
	}
	return s
}

// Position is the authored top-left anchor of a node glyph, in diagram-local
// pixel units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// KPI is one authored indicator shown in a node's detail panel.
type KPI struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Trend Trend  `json:"trend"`
}

// Metrics is the optional operational summary of a stage. Values are
// pre-formatted strings.
type Metrics struct {
	Throughput string `json:"throughput"`
	Efficiency string `json:"efficiency"`
	Quality    string `json:"quality"`
	Cost       string `json:"cost"`
}

// Node is a labelled stage of the chain.
type Node struct {
	ID          NodeID   `json:"id"`
	Label       string   `json:"label"`
	Category    Category `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Position    Position `json:"position"`
	KPIs        []KPI    `json:"kpis,omitempty"`
	Metrics     *Metrics `json:"metrics,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return string(n.ID)
}

// HasMetrics reports whether the node carries the optional metrics block.
func (n Node) HasMetrics() bool { return n.Metrics != nil }

func (n Node) clone() Node {
	if n.KPIs != nil {
		kpis := make([]KPI, len(n.KPIs))
		copy(kpis, n.KPIs)
		n.KPIs = kpis
	}
	if n.Metrics != nil {
		m := *n.Metrics
		n.Metrics = &m
	}
	return n
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From      NodeID         `json:"from"`
	To        NodeID         `json:"to"`
	Connector ConnectorStyle `json:"connector,omitempty"`
}

// Key returns a stable "from->to" identifier for the edge.
func (e Edge) Key() string { return string(e.From) + "->" + string(e.To) }

// Route is a named, ordered subsequence of node ids.
type Route struct {
	ID    RouteID  `json:"id"`
	Label string   `json:"label,omitempty"`
	Nodes []NodeID `json:"nodes"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (r Route) DisplayLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return string(r.ID)
}

// Contains reports whether id is a member of the route.
func (r Route) Contains(id NodeID) bool {
	return r.Index(id) >= 0
}

// Index returns the first position of id in the route, or -1.
func (r Route) Index(id NodeID) int {
	for i, n := range r.Nodes {
		if n == id {
			return i
		}
	}
	return -1
}

// Adjacent reports whether a and b occur at positions differing by exactly
// one, in either order. Membership alone is not enough.
func (r Route) Adjacent(a, b NodeID) bool {
	for i := 0; i+1 < len(r.Nodes); i++ {
		x, y := r.Nodes[i], r.Nodes[i+1]
		if (x == a && y == b) || (x == b && y == a) {
			return true
		}
	}
	return false
}

// Steps returns the consecutive member pairs of the route.
func (r Route) Steps() []Edge {
	if len(r.Nodes) < 2 {
		return nil
	}
	steps := make([]Edge, 0, len(r.Nodes)-1)
	for i := 0; i+1 < len(r.Nodes); i++ {
		steps = append(steps, Edge{From: r.Nodes[i], To: r.Nodes[i+1]})
	}
	return steps
}

func (r Route) clone() Route {
	nodes := make([]NodeID, len(r.Nodes))
	copy(nodes, r.Nodes)
	r.Nodes = nodes
	return r
}
