package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "run [unit]",
		Short:             "Build and launch the app binary of a unit",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeUnits,
		RunE: func(cmd *cobra.Command, args []string) error {
			unit := ""
			if len(args) == 1 {
				unit = args[0]
			}
			return c.app.Run(cmd.Context(), unit)
		},
	}
}

func (c *CLI) newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "select <unit>",
		Short:             "Build a unit and print its app description as JSON",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeUnits,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Select(cmd.Context(), args[0])
		},
	}
}
