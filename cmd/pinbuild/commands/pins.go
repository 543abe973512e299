package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newPinsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pins",
		Short: "Manage pinned sources",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the pins of the lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.PinsList(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "add <name> <locator> <rev>",
		Short:   "Fetch a source and record its hash in the lock",
		Example: "  pinbuild pins add nixpkgs github:NixOS/nixpkgs 057f9aecfb71c4437d2b27d3323df7f93c010b7e",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.PinsAdd(cmd.Context(), args[0], args[1], args[2])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify [names...]",
		Short: "Re-fetch pins and check them against their recorded hash",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.PinsVerify(cmd.Context(), args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a pin from the lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.PinsRemove(cmd.Context(), args[0])
		},
	})

	return cmd
}
