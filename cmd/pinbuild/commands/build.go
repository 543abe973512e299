package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pinbuild/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the package set of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noCache, _ := cmd.Flags().GetBool("no-cache")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			watch, _ := cmd.Flags().GetBool("watch")

			return c.app.Build(cmd.Context(), app.BuildOptions{
				NoCache: noCache,
				DryRun:  dryRun,
				Watch:   watch,
			})
		},
	}
	cmd.Flags().BoolP("no-cache", "n", false, "Recompile local units and verify them against the store")
	cmd.Flags().Bool("dry-run", false, "Print the build plan without compiling")
	cmd.Flags().BoolP("watch", "w", false, "Rebuild when local sources change")
	return cmd
}
