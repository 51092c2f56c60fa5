package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chaintwin/pkg/studies"
)

func (c *CLI) studiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studies",
		Short: "List case studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			fmt.Println(studiesTable(reg))
			printNextStep("Render one", appName+" render "+reg.Names()[0]+" --route <route>")
			return nil
		},
	}
	cmd.AddCommand(c.studiesExportCommand())
	return cmd
}

func studiesTable(reg *studies.Registry) string {
	var rows [][]string
	for _, name := range reg.Names() {
		st, err := reg.Get(name)
		if err != nil {
			continue
		}
		g := st.Graph
		rows = append(rows, []string{
			g.Name(),
			g.Title(),
			fmt.Sprint(g.NodeCount()),
			fmt.Sprint(g.EdgeCount()),
			fmt.Sprint(len(g.Routes())),
			st.Source,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Study", "Title", "Nodes", "Edges", "Routes", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == headerRow:
				return styleHeader.Padding(0, 1)
			case col == 0:
				return base.Inherit(StyleHighlight)
			case col == 5:
				return base.Foreground(colorDim)
			}
			return base
		}).
		String()
}

func (c *CLI) studiesExportCommand() *cobra.Command {
	var (
		to     string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <study>",
		Short: "Write a study as TOML, YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			sts, err := resolveStudies(reg, args, false)
			if err != nil {
				return err
			}
			if output != "" && !cmd.Flags().Changed("to") {
				if f, err := studies.FormatFromPath(output); err == nil {
					to = f
				}
			}
			data, err := studies.Encode(studies.FromGraph(sts[0].Graph), to)
			if err != nil {
				return err
			}
			if output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Exported %s", sts[0].Name())
			printFile(output, false)
			return nil
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", studies.FormatTOML, "format: toml, yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout; format inferred from the extension)")
	return cmd
}
