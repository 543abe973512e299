package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pinbuild/internal/app"
)

func (c *CLI) newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell [-- command...]",
		Short: "Enter the development environment of the project",
		Long: "Enter the development environment of the project.\n\n" +
			"Without a command an interactive shell is started. Arguments after --\n" +
			"are run inside the environment instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printEnv, _ := cmd.Flags().GetBool("print")
			return c.app.Shell(cmd.Context(), app.ShellOptions{
				Print:   printEnv,
				Command: args,
			})
		},
	}
	cmd.Flags().Bool("print", false, "Print the environment as shell exports instead of entering it")
	return cmd
}
