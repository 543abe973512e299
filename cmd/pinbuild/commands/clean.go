package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pinbuild/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the artifact store and caches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, _ := cmd.Flags().GetBool("cache")
			all, _ := cmd.Flags().GetBool("all")

			return c.app.Clean(cmd.Context(), app.CleanOptions{
				Cache: cache,
				All:   all,
			})
		},
	}

	cmd.Flags().BoolP("cache", "c", false, "Clean toolchain and environment caches")
	cmd.Flags().BoolP("all", "a", false, "Remove all pinbuild data of the project")

	return cmd
}
