package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand writes shell completion scripts. Study names complete
// through the render, inspect and explore commands' ValidArgsFunction.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for your shell, e.g.

  source <(chaintwin completion bash)
  chaintwin completion zsh > "${fpath[1]}/_chaintwin"
  chaintwin completion fish > ~/.config/fish/completions/chaintwin.fish
  chaintwin completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeStudies offers study names and falls back to file completion, for
// commands that also take study files.
func (c *CLI) completeStudies(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	reg, err := c.registry()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return reg.Names(), cobra.ShellCompDirectiveDefault
}

// completeStudy offers study names for the single study argument.
func (c *CLI) completeStudy(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, dir := c.completeStudies(cmd, args, toComplete)
	if dir == cobra.ShellCompDirectiveError {
		return nil, dir
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
