package flow

import (
	"errors"
	"testing"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
)

func grainBuilder() *Builder {
	b := NewBuilder("grain", "Grain")
	for i, id := range []NodeID{
		"farm", "logistics", "elevator-sea", "ship", "foreign",
		"elevator-field", "mills", "packaging", "distribution", "retailer", "consumer",
		"feed-mills", "livestock",
	} {
		b.AddNode(Node{ID: id, Label: string(id), Position: Position{X: float64(i) * 100, Y: 200}})
	}
	for _, e := range [][2]NodeID{
		{"farm", "logistics"},
		{"logistics", "elevator-sea"},
		{"logistics", "elevator-field"},
		{"elevator-sea", "ship"},
		{"ship", "foreign"},
		{"elevator-field", "mills"},
		{"mills", "packaging"},
		{"packaging", "distribution"},
		{"distribution", "retailer"},
		{"retailer", "consumer"},
		{"mills", "feed-mills"},
		{"feed-mills", "livestock"},
	} {
		b.AddEdge(Edge{From: e[0], To: e[1]})
	}
	b.AddRoute(Route{ID: "export", Nodes: []NodeID{"farm", "logistics", "elevator-sea", "ship", "foreign"}})
	b.AddRoute(Route{ID: "domestic", Nodes: []NodeID{"farm", "logistics", "elevator-field", "mills", "packaging", "distribution", "retailer", "consumer"}})
	b.AddRoute(Route{ID: "feed", Nodes: []NodeID{"farm", "logistics", "elevator-field", "mills", "feed-mills", "livestock"}})
	return b
}

func TestBuild(t *testing.T) {
	g, err := grainBuilder().Build(RequireRouteEdges())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if g.NodeCount() != 13 {
		t.Errorf("NodeCount() = %d, want 13", g.NodeCount())
	}
	if g.EdgeCount() != 12 {
		t.Errorf("EdgeCount() = %d, want 12", g.EdgeCount())
	}
	if g.Name() != "grain" {
		t.Errorf("Name() = %q, want grain", g.Name())
	}

	n, ok := g.Node("mills")
	if !ok {
		t.Fatal("Node(mills) not found")
	}
	if n.Label != "mills" {
		t.Errorf("Label = %q, want mills", n.Label)
	}
	if _, ok := g.Node("nowhere"); ok {
		t.Error("Node(nowhere) should not be found")
	}

	r, ok := g.Route("export")
	if !ok {
		t.Fatal("Route(export) not found")
	}
	if len(r.Nodes) != 5 {
		t.Errorf("export has %d nodes, want 5", len(r.Nodes))
	}
	if _, ok := g.Route("air"); ok {
		t.Error("Route(air) should not be found")
	}
}

func TestEdgesAuthoringOrder(t *testing.T) {
	g, err := grainBuilder().Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	edges := g.Edges()
	if edges[0].Key() != "farm->logistics" {
		t.Errorf("edges[0] = %s, want farm->logistics", edges[0].Key())
	}
	if edges[len(edges)-1].Key() != "feed-mills->livestock" {
		t.Errorf("last edge = %s, want feed-mills->livestock", edges[len(edges)-1].Key())
	}
	if got := g.EdgeIndex("logistics", "elevator-field"); got != 2 {
		t.Errorf("EdgeIndex(logistics, elevator-field) = %d, want 2", got)
	}
	if got := g.EdgeIndex("livestock", "feed-mills"); got != -1 {
		t.Errorf("EdgeIndex of reversed edge = %d, want -1", got)
	}
	for _, e := range edges {
		if e.Connector != ConnectorCurve {
			t.Errorf("edge %s connector = %q, want curve default", e.Key(), e.Connector)
		}
	}
}

func TestGraphImmutable(t *testing.T) {
	b := NewBuilder("t", "")
	b.AddNode(Node{ID: "a", KPIs: []KPI{{Name: "Yield", Value: "1", Trend: TrendUp}}, Metrics: &Metrics{Cost: "$1"}})
	b.AddNode(Node{ID: "b"})
	b.AddEdge(Edge{From: "a", To: "b"})
	b.AddRoute(Route{ID: "r", Nodes: []NodeID{"a", "b"}})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	n, _ := g.Node("a")
	n.KPIs[0].Value = "changed"
	n.Metrics.Cost = "changed"
	r, _ := g.Route("r")
	r.Nodes[0] = "b"
	edges := g.Edges()
	edges[0].From = "b"

	n2, _ := g.Node("a")
	if n2.KPIs[0].Value != "1" || n2.Metrics.Cost != "$1" {
		t.Error("mutating a returned node changed the graph")
	}
	r2, _ := g.Route("r")
	if r2.Nodes[0] != "a" {
		t.Error("mutating a returned route changed the graph")
	}
	if g.Edges()[0].From != "a" {
		t.Error("mutating returned edges changed the graph")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Builder
		sentinel error
		code     cterr.Code
	}{
		{
			name: "empty node id",
			build: func() *Builder {
				return NewBuilder("t", "").AddNode(Node{Label: "nameless"})
			},
			sentinel: ErrInvalidNodeID,
			code:     cterr.ErrCodeInvalidInput,
		},
		{
			name: "duplicate node",
			build: func() *Builder {
				return NewBuilder("t", "").AddNode(Node{ID: "a"}).AddNode(Node{ID: "a"})
			},
			sentinel: ErrDuplicateNodeID,
			code:     cterr.ErrCodeDuplicateID,
		},
		{
			name: "edge to missing node",
			build: func() *Builder {
				return NewBuilder("t", "").AddNode(Node{ID: "a"}).AddEdge(Edge{From: "a", To: "ghost"})
			},
			sentinel: ErrUnknownNode,
			code:     cterr.ErrCodeUnknownNodeReference,
		},
		{
			name: "edge from missing node",
			build: func() *Builder {
				return NewBuilder("t", "").AddNode(Node{ID: "a"}).AddEdge(Edge{From: "ghost", To: "a"})
			},
			sentinel: ErrUnknownNode,
			code:     cterr.ErrCodeUnknownNodeReference,
		},
		{
			name: "route with missing node",
			build: func() *Builder {
				return NewBuilder("t", "").AddNode(Node{ID: "a"}).AddRoute(Route{ID: "r", Nodes: []NodeID{"a", "ghost"}})
			},
			sentinel: ErrUnknownNode,
			code:     cterr.ErrCodeUnknownNodeReference,
		},
		{
			name: "empty route",
			build: func() *Builder {
				return NewBuilder("t", "").AddNode(Node{ID: "a"}).AddRoute(Route{ID: "r"})
			},
			sentinel: ErrEmptyRoute,
			code:     cterr.ErrCodeInvalidInput,
		},
		{
			name: "duplicate route",
			build: func() *Builder {
				return NewBuilder("t", "").AddNode(Node{ID: "a"}).
					AddRoute(Route{ID: "r", Nodes: []NodeID{"a"}}).
					AddRoute(Route{ID: "r", Nodes: []NodeID{"a"}})
			},
			sentinel: ErrDuplicateRouteID,
			code:     cterr.ErrCodeDuplicateID,
		},
		{
			name: "unknown connector",
			build: func() *Builder {
				return NewBuilder("t", "").AddNode(Node{ID: "a"}).AddNode(Node{ID: "b"}).
					AddEdge(Edge{From: "a", To: "b", Connector: "zigzag"})
			},
			sentinel: ErrInvalidConnector,
			code:     cterr.ErrCodeInvalidConnector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			if err == nil {
				t.Fatal("Build() error = nil, want error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(err, %v) = false; err = %v", tt.sentinel, err)
			}
			if !cterr.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", cterr.GetCode(err), tt.code)
			}
		})
	}
}

func TestUnknownNodeErrorNamesID(t *testing.T) {
	_, err := NewBuilder("grain", "").AddNode(Node{ID: "farm"}).
		AddRoute(Route{ID: "export", Nodes: []NodeID{"farm", "harbour"}}).Build()
	if err == nil {
		t.Fatal("Build() error = nil")
	}
	want := `grain: route "export" references missing node "harbour"`
	if got := cterr.UserMessage(err); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestPhantomSteps(t *testing.T) {
	b := NewBuilder("t", "").
		AddNode(Node{ID: "a"}).AddNode(Node{ID: "b"}).AddNode(Node{ID: "c"}).
		AddEdge(Edge{From: "a", To: "b"}).
		AddRoute(Route{ID: "ok", Nodes: []NodeID{"b", "a"}}).
		AddRoute(Route{ID: "jump", Nodes: []NodeID{"a", "b", "c"}})

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	phantoms := g.PhantomSteps()
	if _, ok := phantoms["ok"]; ok {
		t.Error("route ok should have no phantom steps (reverse edge counts)")
	}
	steps := phantoms["jump"]
	if len(steps) != 1 || steps[0].Key() != "b->c" {
		t.Errorf("phantoms[jump] = %v, want [b->c]", steps)
	}

	_, err = b.Build(RequireRouteEdges())
	if !errors.Is(err, ErrPhantomRouteStep) {
		t.Errorf("strict Build() error = %v, want ErrPhantomRouteStep", err)
	}
}

func TestRouteAdjacency(t *testing.T) {
	r := Route{ID: "export", Nodes: []NodeID{"farm", "logistics", "elevator-sea", "ship", "foreign"}}

	tests := []struct {
		a, b NodeID
		want bool
	}{
		{"farm", "logistics", true},
		{"logistics", "farm", true},
		{"ship", "foreign", true},
		{"farm", "elevator-sea", false},
		{"logistics", "elevator-field", false},
		{"farm", "farm", false},
	}
	for _, tt := range tests {
		if got := r.Adjacent(tt.a, tt.b); got != tt.want {
			t.Errorf("Adjacent(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
	if !r.Contains("ship") || r.Contains("mills") {
		t.Error("Contains() returned wrong membership")
	}
	if got := len(r.Steps()); got != 4 {
		t.Errorf("len(Steps()) = %d, want 4", got)
	}
}

func TestBounds(t *testing.T) {
	g, err := NewBuilder("t", "").
		AddNode(Node{ID: "a", Position: Position{X: 10, Y: 20}}).
		AddNode(Node{ID: "b", Position: Position{X: 110, Y: 0}}).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := Rect{MinX: 10, MinY: 0, MaxX: 158, MaxY: 68}
	if got := g.Bounds(); got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}

	empty, _ := NewBuilder("e", "").Build()
	if got := empty.Bounds(); got != (Rect{}) {
		t.Errorf("empty Bounds() = %+v, want zero", got)
	}
}

func TestParseTrend(t *testing.T) {
	tests := []struct {
		in      string
		want    Trend
		wantErr bool
	}{
		{"up", TrendUp, false},
		{"DOWN", TrendDown, false},
		{" stable ", TrendStable, false},
		{"", TrendStable, false},
		{"sideways", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTrend(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTrend(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTrend(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKPITrendDefaultsToStable(t *testing.T) {
	g, err := NewBuilder("t", "").AddNode(Node{ID: "a", KPIs: []KPI{{Name: "x", Value: "1"}}}).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	n, _ := g.Node("a")
	if n.KPIs[0].Trend != TrendStable {
		t.Errorf("Trend = %q, want stable", n.KPIs[0].Trend)
	}
}
