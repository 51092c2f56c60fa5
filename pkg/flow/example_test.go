package flow_test

import (
	"fmt"

	"github.com/matzehuels/chaintwin/pkg/flow"
)

func ExampleBuilder() {
	b := flow.NewBuilder("grain", "Grain supply chain")
	b.AddNode(flow.Node{ID: "farm", Label: "Farm", Category: flow.CategoryProduction})
	b.AddNode(flow.Node{ID: "logistics", Label: "Logistics", Category: flow.CategoryTransport, Position: flow.Position{X: 120}})
	b.AddNode(flow.Node{ID: "elevator-sea", Label: "Port Elevator", Category: flow.CategoryStorage, Position: flow.Position{X: 240}})
	b.AddEdge(flow.Edge{From: "farm", To: "logistics"})
	b.AddEdge(flow.Edge{From: "logistics", To: "elevator-sea", Connector: flow.ConnectorElbow})
	b.AddRoute(flow.Route{ID: "export", Nodes: []flow.NodeID{"farm", "logistics", "elevator-sea"}})

	g, err := b.Build()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	for _, e := range g.Edges() {
		fmt.Println(e.Key(), e.Connector)
	}
	export, _ := g.Route("export")
	fmt.Println(export.Adjacent("logistics", "farm"), export.Adjacent("farm", "elevator-sea"))
	// Output:
	// farm->logistics curve
	// logistics->elevator-sea elbow
	// true false
}

func ExampleBuilder_unknownNode() {
	_, err := flow.NewBuilder("fish", "").
		AddNode(flow.Node{ID: "vessel"}).
		AddEdge(flow.Edge{From: "vessel", To: "auction"}).
		Build()
	fmt.Println(err)
	// Output:
	// UNKNOWN_NODE_REFERENCE: fish: edge vessel->auction references missing node "auction": unknown node reference
}
