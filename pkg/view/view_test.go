package view_test

import (
	"math"
	"slices"
	"testing"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/panel"
	"github.com/matzehuels/chaintwin/pkg/studies"
	"github.com/matzehuels/chaintwin/pkg/view"
)

func grain(t *testing.T) *flow.Graph {
	t.Helper()
	s, err := studies.MustBuiltin().Get(studies.Grain)
	if err != nil {
		t.Fatal(err)
	}
	return s.Graph
}

func TestNewIsIdle(t *testing.T) {
	v := view.New(grain(t))
	if v.Mode() != view.Idle {
		t.Errorf("Mode = %s, want idle", v.Mode())
	}
	if v.Hovered() != "" || v.Selected() != "" || v.SelectedRoute() != "" {
		t.Errorf("new view not cleared: %s", v)
	}
	if v.Zoom() != view.DefaultZoom {
		t.Errorf("Zoom = %v", v.Zoom())
	}
	for _, n := range v.Graph().Nodes() {
		if v.IsNodeHighlighted(n.ID) {
			t.Errorf("%s highlighted while idle", n.ID)
		}
	}
	for _, e := range v.Graph().Edges() {
		if v.IsEdgeHighlighted(e.From, e.To) {
			t.Errorf("%s highlighted while idle", e.Key())
		}
	}
}

func TestSelectRouteTransitions(t *testing.T) {
	v := view.New(grain(t))

	if err := v.SelectRoute("export"); err != nil {
		t.Fatal(err)
	}
	if v.Mode() != view.RouteActive || v.SelectedRoute() != "export" {
		t.Fatalf("after export: %s", v)
	}

	// Direct replacement, no intermediate idle.
	if err := v.SelectRoute("feed"); err != nil {
		t.Fatal(err)
	}
	if v.SelectedRoute() != "feed" {
		t.Fatalf("after feed: %s", v)
	}
	if r, ok := v.ActiveRoute(); !ok || r.ID != "feed" {
		t.Errorf("ActiveRoute = %v, %v", r.ID, ok)
	}

	// Toggle off.
	if err := v.SelectRoute("feed"); err != nil {
		t.Fatal(err)
	}
	if v.Mode() != view.Idle || v.SelectedRoute() != "" {
		t.Fatalf("after toggle: %s", v)
	}
	if _, ok := v.ActiveRoute(); ok {
		t.Error("ActiveRoute should report false when idle")
	}
}

func TestSelectRouteUnknown(t *testing.T) {
	v := view.New(grain(t))
	_ = v.SelectRoute("export")

	err := v.SelectRoute("organic")
	if !cterr.Is(err, cterr.ErrCodeNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
	if v.SelectedRoute() != "export" {
		t.Errorf("unknown route changed state: %s", v)
	}
}

func TestGrainExportScenario(t *testing.T) {
	v := view.New(grain(t))
	if err := v.SelectRoute("export"); err != nil {
		t.Fatal(err)
	}

	want := []flow.NodeID{"farm", "logistics", "elevator-sea", "ship", "foreign"}
	got := v.HighlightedNodes()
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("HighlightedNodes = %v, want %v", got, want)
	}

	edges := v.HighlightedEdges()
	if len(edges) != 4 {
		t.Errorf("HighlightedEdges = %v, want 4", edges)
	}
	if !v.IsEdgeHighlighted("farm", "logistics") {
		t.Error("farm->logistics should be highlighted")
	}
	if v.IsEdgeHighlighted("logistics", "elevator-field") {
		t.Error("logistics->elevator-field should not be highlighted")
	}
}

func TestAdjacencyNotMembership(t *testing.T) {
	v := view.New(grain(t))
	_ = v.SelectRoute("domestic")

	// farm and elevator-field are both on the domestic route, but not next
	// to each other, so the elevated skip edge stays dark.
	if !v.IsNodeHighlighted("farm") || !v.IsNodeHighlighted("elevator-field") {
		t.Fatal("both endpoints should be highlighted")
	}
	if v.IsEdgeHighlighted("farm", "elevator-field") {
		t.Error("non-consecutive members must not highlight their edge")
	}
	// Either direction.
	if !v.IsEdgeHighlighted("logistics", "farm") {
		t.Error("adjacency is direction independent")
	}
}

func TestHoverIdleScenario(t *testing.T) {
	v := view.New(grain(t))
	if err := v.HoverEnter("mills"); err != nil {
		t.Fatal(err)
	}
	if !v.IsNodeFocused("mills") {
		t.Error("mills should be focused")
	}
	if v.IsNodeHighlighted("mills") {
		t.Error("mills should not be highlighted while idle")
	}
	if v.Mode() != view.Idle {
		t.Error("hover must not change route state")
	}

	v.HoverLeave()
	if v.IsNodeFocused("mills") {
		t.Error("mills should lose focus on leave")
	}
}

func TestHoverUnknownNode(t *testing.T) {
	v := view.New(grain(t))
	_ = v.HoverEnter("farm")
	if err := v.HoverEnter("barn"); !cterr.Is(err, cterr.ErrCodeNotFound) {
		t.Errorf("HoverEnter(barn) error = %v", err)
	}
	if v.Hovered() != "farm" {
		t.Errorf("Hovered = %q, want unchanged", v.Hovered())
	}
	if err := v.Click("barn"); !cterr.Is(err, cterr.ErrCodeNotFound) {
		t.Errorf("Click(barn) error = %v", err)
	}
}

func TestPinToggle(t *testing.T) {
	v := view.New(grain(t))

	_ = v.Click("ship")
	if v.Selected() != "ship" {
		t.Fatalf("Selected = %q, want ship", v.Selected())
	}
	_ = v.Click("mills")
	if v.Selected() != "mills" {
		t.Fatalf("Selected = %q, want mills", v.Selected())
	}
	_ = v.Click("mills")
	if v.Selected() != "" {
		t.Fatalf("Selected = %q, want cleared", v.Selected())
	}

	// A pinned node stays focused after the pointer leaves.
	_ = v.HoverEnter("ship")
	_ = v.Click("ship")
	v.HoverLeave()
	if !v.IsNodeFocused("ship") {
		t.Error("pinned node should stay focused after leave")
	}
	v.Unpin()
	if v.IsNodeFocused("ship") {
		t.Error("Unpin should clear focus")
	}
}

func TestFocusIndependentOfRoute(t *testing.T) {
	v := view.New(grain(t))
	_ = v.Click("livestock")
	_ = v.SelectRoute("export")
	if v.Selected() != "livestock" {
		t.Error("route selection moved the pin")
	}
	if !v.IsNodeFocused("livestock") || v.IsNodeHighlighted("livestock") {
		t.Error("livestock should be focused but not highlighted")
	}
	_ = v.SelectRoute("export")
	if v.Selected() != "livestock" {
		t.Error("route toggle cleared the pin")
	}
}

func TestZoom(t *testing.T) {
	v := view.New(grain(t))
	for range 10 {
		v.ZoomIn()
	}
	if v.Zoom() != view.MaxZoom {
		t.Errorf("Zoom = %v, want max", v.Zoom())
	}
	for range 10 {
		v.ZoomOut()
	}
	if v.Zoom() != view.MinZoom {
		t.Errorf("Zoom = %v, want min", v.Zoom())
	}
	v.ResetZoom()
	if v.Zoom() != view.DefaultZoom {
		t.Errorf("Zoom = %v, want default", v.Zoom())
	}
}

func TestEmphasis(t *testing.T) {
	v := view.New(grain(t))

	e := v.EdgeEmphasis("farm", "logistics")
	if e.Dimmed || e.Highlighted || e.Opacity != view.EdgeOpacityDefault || e.Marker != view.MarkerDefault {
		t.Errorf("idle edge = %+v", e)
	}

	_ = v.SelectRoute("export")
	e = v.EdgeEmphasis("farm", "logistics")
	if !e.Highlighted || e.StrokeWidth != view.EdgeStrokeActive || e.Marker != view.MarkerActive {
		t.Errorf("route edge = %+v", e)
	}
	e = v.EdgeEmphasis("mills", "packaging")
	if !e.Dimmed || e.Opacity != view.EdgeOpacityDimmed {
		t.Errorf("off-route edge = %+v", e)
	}

	n := v.NodeEmphasis("ship")
	if !n.Highlighted || n.Scale != view.NodeScaleEmphasized || n.Dimmed {
		t.Errorf("route node = %+v", n)
	}
	n = v.NodeEmphasis("mills")
	if !n.Dimmed || n.Opacity != view.NodeOpacityDimmed {
		t.Errorf("off-route node = %+v", n)
	}
	_ = v.HoverEnter("mills")
	n = v.NodeEmphasis("mills")
	if n.Dimmed || !n.Focused || n.Scale != view.NodeScaleEmphasized {
		t.Errorf("focused off-route node = %+v", n)
	}
}

func TestActivePanel(t *testing.T) {
	v := view.New(grain(t))
	if _, ok := v.ActivePanel(); ok {
		t.Error("no panel expected without focus")
	}

	_ = v.HoverEnter("mills")
	p, ok := v.ActivePanel()
	if !ok || p.Mode != panel.Compact || p.NodeID != "mills" {
		t.Errorf("hover panel = %+v, %v", p, ok)
	}

	_ = v.Click("farm")
	p, _ = v.ActivePanel()
	if p.Mode != panel.Expanded || p.NodeID != "farm" {
		t.Errorf("pinned panel should win: %+v", p)
	}
	if p.Metrics == nil {
		t.Error("farm carries metrics")
	}
}

func TestSnapshotRestore(t *testing.T) {
	g := grain(t)
	v := view.New(g)
	_ = v.SelectRoute("feed")
	_ = v.HoverEnter("mills")
	_ = v.Click("livestock")
	v.ZoomIn()

	s := v.Snapshot()
	if s.Study != "grain" || s.Route != "feed" || s.Hovered != "mills" || s.Selected != "livestock" || s.Zoom != 1.25 {
		t.Errorf("Snapshot = %+v", s)
	}

	w, err := view.FromSnapshot(g, s)
	if err != nil {
		t.Fatal(err)
	}
	if w.Snapshot() != s {
		t.Errorf("restored = %+v, want %+v", w.Snapshot(), s)
	}

	// Zoom snaps to a step and clamps.
	w, _ = view.FromSnapshot(g, view.Snapshot{Zoom: 1.3})
	if w.Zoom() != 1.25 {
		t.Errorf("Zoom = %v, want 1.25", w.Zoom())
	}
	w, _ = view.FromSnapshot(g, view.Snapshot{Zoom: 9})
	if w.Zoom() != view.MaxZoom {
		t.Errorf("Zoom = %v, want max", w.Zoom())
	}
}

func TestRestoreNonFiniteZoom(t *testing.T) {
	g := grain(t)
	for _, z := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		v, err := view.FromSnapshot(g, view.Snapshot{Route: "export", Zoom: z})
		if err != nil {
			t.Fatalf("FromSnapshot(zoom=%v) error = %v", z, err)
		}
		if v.Zoom() != view.DefaultZoom {
			t.Errorf("zoom %v restored as %v, want default", z, v.Zoom())
		}
		if v.SelectedRoute() != "export" {
			t.Errorf("route = %q, want export", v.SelectedRoute())
		}
	}
}

func TestRestoreInvalidLeavesViewUnchanged(t *testing.T) {
	v := view.New(grain(t))
	_ = v.SelectRoute("export")
	before := v.Snapshot()

	err := v.Restore(view.Snapshot{Route: "domestic", Selected: "barn"})
	if !cterr.Is(err, cterr.ErrCodeNotFound) {
		t.Fatalf("Restore error = %v", err)
	}
	if v.Snapshot() != before {
		t.Errorf("state changed on failed restore: %+v", v.Snapshot())
	}
}
