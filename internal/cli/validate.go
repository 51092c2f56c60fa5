package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/studies"
)

func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file ...]",
		Short: "Check study files for authoring defects",
		Long: `Validate study documents. Without arguments every registered study is
checked. Route steps without a backing edge are reported as warnings, or as
errors with --strict.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return c.validateRegistered()
			}
			return c.validateFiles(args)
		},
	}
}

func (c *CLI) validateRegistered() error {
	reg, err := c.registry()
	if err != nil {
		return err
	}
	failed := 0
	for _, name := range reg.Names() {
		st, err := reg.Get(name)
		if err != nil {
			return err
		}
		if !c.reportStudy(st.Name(), st.Graph) {
			failed++
		}
	}
	return validationResult(failed)
}

func (c *CLI) validateFiles(paths []string) error {
	failed := 0
	for _, path := range paths {
		g, err := parseStudyFile(path)
		if err != nil {
			printError("%s: %s", path, err)
			failed++
			continue
		}
		if !c.reportStudy(path, g) {
			failed++
		}
	}
	return validationResult(failed)
}

// parseStudyFile builds a study file without registering it. Phantom route
// steps are checked separately so they can be reported as warnings.
func parseStudyFile(path string) (*flow.Graph, error) {
	if err := cterr.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := studies.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st, err := studies.Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	return st.Graph, nil
}

// reportStudy prints the outcome for one study and reports whether it passed.
func (c *CLI) reportStudy(label string, g *flow.Graph) bool {
	phantom := g.PhantomSteps()
	strict := c.strict || c.config().Studies.Strict
	if len(phantom) > 0 && strict {
		printError("%s: %d route(s) with steps that have no backing edge", label, len(phantom))
	} else {
		printSuccess("%s %s", label, StyleDim.Render(fmt.Sprintf("(%d nodes, %d edges, %d routes)", g.NodeCount(), g.EdgeCount(), len(g.Routes()))))
	}
	for _, r := range g.Routes() {
		for _, e := range phantom[r.ID] {
			if strict {
				printDetail("route %s: %s has no edge", r.ID, e.Key())
			} else {
				printWarning("route %s: %s has no edge", r.ID, e.Key())
			}
		}
	}
	return len(phantom) == 0 || !strict
}

func validationResult(failed int) error {
	if failed > 0 {
		return fmt.Errorf("%d study file(s) failed validation", failed)
	}
	return nil
}
