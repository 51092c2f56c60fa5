// Package flow provides the static graph model behind a supply-chain case
// study diagram.
//
// A [Graph] is a fixed set of named stages ([Node]) joined by directed
// connections ([Edge]), plus a set of named [Route] declarations. A route is
// an ordered subsequence of node ids describing one coherent journey through
// the chain, for example the export path of grain versus its domestic path.
//
// # Construction
//
// Graphs are assembled with a [Builder] and frozen by [Builder.Build], which
// validates the whole document once:
//
//	b := flow.NewBuilder("grain", "Grain supply chain")
//	b.AddNode(flow.Node{ID: "farm", Label: "Farm", Position: flow.Position{X: 40, Y: 200}})
//	b.AddNode(flow.Node{ID: "logistics", Label: "Logistics", Position: flow.Position{X: 160, Y: 200}})
//	b.AddEdge(flow.Edge{From: "farm", To: "logistics"})
//	b.AddRoute(flow.Route{ID: "export", Nodes: []flow.NodeID{"farm", "logistics"}})
//	g, err := b.Build()
//
// Build fails fast on authoring defects: empty or duplicate ids, edges or
// routes that reference a node that does not exist ([ErrUnknownNode]), and
// unknown connector tags. Errors carry the offending id and the structured
// code UNKNOWN_NODE_REFERENCE from pkg/errors.
//
// # Immutability
//
// A built Graph has no mutation operations. All accessors return copies, so a
// Graph can be shared freely between views and goroutines.
//
// # Route steps
//
// Consecutive route members are expected, but not required, to be joined by
// an authored edge. [Graph.PhantomSteps] lists the steps that are not, and
// [RequireRouteEdges] makes Build reject them.
package flow
