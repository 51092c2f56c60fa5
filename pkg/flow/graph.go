package flow

import (
	"math"
	"slices"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
)

// NodeWidth and NodeHeight are the fixed glyph size, in diagram units.
const (
	NodeWidth  = 48.0
	NodeHeight = 48.0
)

// Graph is an immutable case-study graph. Use [NewBuilder] to create one.
// All accessors return copies, so a Graph is safe for concurrent reads.
type Graph struct {
	name    string
	title   string
	nodes   []Node
	index   map[NodeID]int
	edges   []Edge
	routes  []Route
	byRoute map[RouteID]int
	edgeAt  map[string]int
}

// Name returns the case-study identifier ("grain", "fish", ...).
func (g *Graph) Name() string { return g.name }

// Title returns the human readable case-study title.
func (g *Graph) Title() string { return g.title }

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i].clone(), true
}

// HasNode reports whether id exists in the graph.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.index[id]
	return ok
}

// Nodes returns all nodes in authoring order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.clone()
	}
	return out
}

// Edges returns all edges in authoring order. The order carries no meaning
// beyond a deterministic render and animation stagger.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EdgeIndex returns the authoring position of the edge from→to, or -1.
func (g *Graph) EdgeIndex(from, to NodeID) int {
	if i, ok := g.edgeAt[Edge{From: from, To: to}.Key()]; ok {
		return i
	}
	return -1
}

// HasEdge reports whether a directed edge from→to was authored.
func (g *Graph) HasEdge(from, to NodeID) bool { return g.EdgeIndex(from, to) >= 0 }

// Route returns the route with the given id.
func (g *Graph) Route(id RouteID) (Route, bool) {
	i, ok := g.byRoute[id]
	if !ok {
		return Route{}, false
	}
	return g.routes[i].clone(), true
}

// Routes returns all routes in authoring order.
func (g *Graph) Routes() []Route {
	out := make([]Route, len(g.routes))
	for i, r := range g.routes {
		out[i] = r.clone()
	}
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// PhantomSteps returns, per route, the consecutive member pairs that are not
// backed by an authored edge in either direction. Routes without phantom
// steps are omitted.
func (g *Graph) PhantomSteps() map[RouteID][]Edge {
	out := make(map[RouteID][]Edge)
	for _, r := range g.routes {
		for _, s := range r.Steps() {
			if g.HasEdge(s.From, s.To) || g.HasEdge(s.To, s.From) {
				continue
			}
			out[r.ID] = append(out[r.ID], s)
		}
	}
	return out
}

// Rect is an axis-aligned rectangle in diagram units.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Bounds returns the smallest rectangle enclosing every node glyph.
// An empty graph has zero bounds.
func (g *Graph) Bounds() Rect {
	if len(g.nodes) == 0 {
		return Rect{}
	}
	r := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, n := range g.nodes {
		r.MinX = math.Min(r.MinX, n.Position.X)
		r.MinY = math.Min(r.MinY, n.Position.Y)
		r.MaxX = math.Max(r.MaxX, n.Position.X+NodeWidth)
		r.MaxY = math.Max(r.MaxY, n.Position.Y+NodeHeight)
	}
	return r
}

// =============================================================================
// Builder
// =============================================================================

// BuildOption configures validation performed by [Builder.Build].
type BuildOption func(*buildConfig)

type buildConfig struct {
	requireRouteEdges bool
}

// RequireRouteEdges makes Build reject routes whose consecutive members are
// not joined by an authored edge (in either direction).
func RequireRouteEdges() BuildOption {
	return func(c *buildConfig) { c.requireRouteEdges = true }
}

// Builder accumulates nodes, edges and routes. It performs no validation
// until [Builder.Build] is called, so documents can be added in any order.
// The zero value is not usable; use NewBuilder.
type Builder struct {
	name   string
	title  string
	nodes  []Node
	edges  []Edge
	routes []Route
}

// NewBuilder starts a graph for the named case study.
func NewBuilder(name, title string) *Builder {
	return &Builder{name: name, title: title}
}

// AddNode appends a node.
func (b *Builder) AddNode(n Node) *Builder {
	b.nodes = append(b.nodes, n.clone())
	return b
}

// AddEdge appends a directed edge.
func (b *Builder) AddEdge(e Edge) *Builder {
	b.edges = append(b.edges, e)
	return b
}

// AddRoute appends a named route.
func (b *Builder) AddRoute(r Route) *Builder {
	b.routes = append(b.routes, r.clone())
	return b
}

// Build validates the accumulated document and returns an immutable Graph.
// The first defect found is returned; node problems are reported before
// edge problems, and edge problems before route problems.
func (b *Builder) Build(opts ...BuildOption) (*Graph, error) {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Graph{
		name:    b.name,
		title:   b.title,
		nodes:   make([]Node, 0, len(b.nodes)),
		index:   make(map[NodeID]int, len(b.nodes)),
		edges:   make([]Edge, 0, len(b.edges)),
		routes:  make([]Route, 0, len(b.routes)),
		byRoute: make(map[RouteID]int, len(b.routes)),
		edgeAt:  make(map[string]int, len(b.edges)),
	}

	for _, n := range b.nodes {
		if n.ID == "" {
			return nil, cterr.Wrap(cterr.ErrCodeInvalidInput, ErrInvalidNodeID, "%s: node with label %q", b.name, n.Label)
		}
		if _, dup := g.index[n.ID]; dup {
			return nil, cterr.Wrap(cterr.ErrCodeDuplicateID, ErrDuplicateNodeID, "%s: node %q", b.name, n.ID)
		}
		n = n.clone()
		if n.KPIs == nil {
			n.KPIs = []KPI{}
		}
		for i := range n.KPIs {
			if n.KPIs[i].Trend == "" {
				n.KPIs[i].Trend = TrendStable
			}
		}
		g.index[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}

	for _, e := range b.edges {
		if !e.Connector.Valid() {
			return nil, cterr.Wrap(cterr.ErrCodeInvalidConnector, ErrInvalidConnector,
				"%s: edge %s uses connector %q", b.name, e.Key(), e.Connector)
		}
		for _, id := range []NodeID{e.From, e.To} {
			if !g.HasNode(id) {
				return nil, cterr.Wrap(cterr.ErrCodeUnknownNodeReference, ErrUnknownNode,
					"%s: edge %s references missing node %q", b.name, e.Key(), id)
			}
		}
		e.Connector = e.Connector.Normalize()
		if _, dup := g.edgeAt[e.Key()]; !dup {
			g.edgeAt[e.Key()] = len(g.edges)
		}
		g.edges = append(g.edges, e)
	}

	for _, r := range b.routes {
		if r.ID == "" || len(r.Nodes) == 0 {
			return nil, cterr.Wrap(cterr.ErrCodeInvalidInput, ErrEmptyRoute, "%s: route %q", b.name, r.ID)
		}
		if _, dup := g.byRoute[r.ID]; dup {
			return nil, cterr.Wrap(cterr.ErrCodeDuplicateID, ErrDuplicateRouteID, "%s: route %q", b.name, r.ID)
		}
		for _, id := range r.Nodes {
			if !g.HasNode(id) {
				return nil, cterr.Wrap(cterr.ErrCodeUnknownNodeReference, ErrUnknownNode,
					"%s: route %q references missing node %q", b.name, r.ID, id)
			}
		}
		g.byRoute[r.ID] = len(g.routes)
		g.routes = append(g.routes, r)
	}

	if cfg.requireRouteEdges {
		for _, r := range g.routes {
			for _, s := range r.Steps() {
				if !g.HasEdge(s.From, s.To) && !g.HasEdge(s.To, s.From) {
					return nil, cterr.Wrap(cterr.ErrCodePhantomRouteStep, ErrPhantomRouteStep,
						"%s: route %q step %s", b.name, r.ID, s.Key())
				}
			}
		}
	}

	return g, nil
}
