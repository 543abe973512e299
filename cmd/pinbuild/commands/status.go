package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newToolchainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolchain",
		Short: "Inspect the Rust toolchain",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "resolve",
		Short: "Resolve the requested toolchain to an exact release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.ToolchainResolve(cmd.Context())
		},
	})
	return cmd
}

func (c *CLI) newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Manage the package graph",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Regenerate the package graph from Cargo.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.GraphGenerate(cmd.Context())
		},
	})
	return cmd
}

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the cache state of local units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Status(cmd.Context())
		},
	}
}
