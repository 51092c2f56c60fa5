package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/panel"
	"github.com/matzehuels/chaintwin/pkg/studies"
	"github.com/matzehuels/chaintwin/pkg/view"
)

func (c *CLI) inspectCommand() *cobra.Command {
	var (
		route    string
		node     string
		expanded bool
	)
	cmd := &cobra.Command{
		Use:               "inspect <study>",
		Short:             "Print the nodes, routes and detail panels of a study",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeStudy,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			sts, err := resolveStudies(reg, args, false)
			if err != nil {
				return err
			}
			st := sts[0]
			v := view.New(st.Graph)
			if route != "" {
				if err := v.SelectRoute(flow.RouteID(route)); err != nil {
					return err
				}
			}
			if node != "" {
				if _, ok := st.Graph.Node(flow.NodeID(node)); !ok {
					return fmt.Errorf("unknown node %q in %s", node, st.Name())
				}
			}
			printStudy(st, v)
			if node != "" {
				n, _ := st.Graph.Node(flow.NodeID(node))
				mode := panel.Compact
				if expanded {
					mode = panel.Expanded
				}
				fmt.Println()
				fmt.Println(renderPanel(panel.Build(n, mode)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&route, "route", "r", "", "mark the members of a route")
	cmd.Flags().StringVarP(&node, "node", "n", "", "show the detail panel of a node")
	cmd.Flags().BoolVarP(&expanded, "expanded", "e", false, "show the expanded panel instead of the compact one")
	return cmd
}

func printStudy(st *studies.Study, v *view.View) {
	g := st.Graph
	fmt.Println(StyleTitle.Render(g.Title()))
	printKeyValue("study", g.Name())
	printKeyValue("source", st.Source)
	printKeyValue("hash", st.Hash[:12])
	fmt.Println()

	fmt.Println(nodeTable(g, v))
	fmt.Println()

	for _, r := range g.Routes() {
		marker := " "
		style := StyleValue
		if r.ID == v.SelectedRoute() {
			marker, style = "●", StyleActive
		}
		members := make([]string, len(r.Nodes))
		for i, id := range r.Nodes {
			members[i] = string(id)
		}
		fmt.Printf("%s %s %s\n", style.Render(marker), style.Render(r.DisplayLabel()), StyleDim.Render(strings.Join(members, " → ")))
	}
	if phantom := g.PhantomSteps(); len(phantom) > 0 {
		fmt.Println()
		for id, steps := range phantom {
			for _, e := range steps {
				printWarning("route %s: %s has no edge", id, e.Key())
			}
		}
	}
}

func nodeTable(g *flow.Graph, v *view.View) string {
	var rows [][]string
	nodes := g.Nodes()
	for _, n := range nodes {
		metrics := ""
		if n.HasMetrics() {
			metrics = "✓"
		}
		rows = append(rows, []string{
			string(n.ID),
			n.DisplayLabel(),
			string(n.Category),
			fmt.Sprintf("%g,%g", n.Position.X, n.Position.Y),
			fmt.Sprint(len(n.KPIs)),
			metrics,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Label", "Category", "Position", "KPIs", "Metrics").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(nodes) {
				return base
			}
			n := nodes[row]
			switch {
			case v.IsNodeHighlighted(n.ID):
				return base.Inherit(StyleActive)
			case col == 2:
				return base.Inherit(categoryStyle(n.Category))
			case v.Mode() == view.RouteActive:
				return base.Foreground(colorDim)
			}
			return base
		}).
		String()
}

// headerRow is the row index lipgloss tables pass to StyleFunc for headers.
const headerRow = -1
