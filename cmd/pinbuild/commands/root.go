// Package commands implements the CLI commands for the pinbuild build tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/pinbuild/internal/app"
	"go.trai.ch/pinbuild/internal/build"
)

// CLI represents the command line interface for pinbuild.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	SetPinsOverride(path string)
	SetJSONLogs(enable bool)

	Build(ctx context.Context, opts app.BuildOptions) error
	Select(ctx context.Context, unit string) error
	Run(ctx context.Context, unit string) error
	Units() []string
	Shell(ctx context.Context, opts app.ShellOptions) error

	PinsList(ctx context.Context) error
	PinsAdd(ctx context.Context, name, locator, rev string) error
	PinsVerify(ctx context.Context, names []string) error
	PinsRemove(ctx context.Context, name string) error

	ToolchainResolve(ctx context.Context) error
	GraphGenerate(ctx context.Context) error
	Status(ctx context.Context) error
	Clean(ctx context.Context, options app.CleanOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pinbuild",
		Short:         "Reproducible Rust builds from pinned sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().String("pins-override", "", "Path to a pin overrides file (JSON with comments)")
	rootCmd.PersistentFlags().Bool("json", false, "Emit logs as JSON")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		override, _ := cmd.Flags().GetString("pins-override")
		jsonLogs, _ := cmd.Flags().GetBool("json")
		a.SetPinsOverride(override)
		a.SetJSONLogs(jsonLogs)
	}

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newSelectCmd())
	rootCmd.AddCommand(c.newShellCmd())
	rootCmd.AddCommand(c.newPinsCmd())
	rootCmd.AddCommand(c.newToolchainCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// completeUnits offers the buildable units of the project as the first argument.
func (c *CLI) completeUnits(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return c.app.Units(), cobra.ShellCompDirectiveNoFileComp
}
