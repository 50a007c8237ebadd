// Package commands implements the CLI commands for ripple.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/ripple/internal/app"
	"go.trai.ch/ripple/internal/build"
)

// CLI represents the command line interface for ripple.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	ConfigureLogging(verbose, json bool)
	Plan(ctx context.Context, opts app.PlanOptions) error
	Mark(ctx context.Context, opts app.MarkOptions) error
	Externals(ctx context.Context, opts app.ExternalsOptions) error
	Dot(ctx context.Context, opts app.DotOptions) error
	Verify(ctx context.Context) error
	Watch(ctx context.Context, opts app.PlanOptions) error
	Clean(ctx context.Context) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:           "ripple",
		Short:         "Incremental recompilation planner driven by dependency facts",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			logJSON, _ := cmd.Flags().GetBool("log-json")
			c.app.ConfigureLogging(verbose, logJSON)
		},
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

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write log messages as JSON")

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newMarkCmd())
	rootCmd.AddCommand(c.newExternalsCmd())
	rootCmd.AddCommand(c.newDotCmd())
	rootCmd.AddCommand(c.newVerifyCmd())
	rootCmd.AddCommand(c.newWatchCmd())
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
