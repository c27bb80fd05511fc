// Package commands implements the CLI commands for the kiln build tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/ports"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	logger  ports.Logger
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, opts app.BuildOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
	Targets(ctx context.Context, opts app.TargetsOptions) error
	ServeCache(ctx context.Context, opts app.ServeOptions) error
}

// New creates a new CLI instance with the given app. The logger is configured by the
// global flags when it supports them.
func New(a Application, logger ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "An incremental build tool with rule keys and artifact caching",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))

	// Persistent flags first: the version flag only claims -v when it is still free.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Log as JSON")

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		logger:  logger,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRun = c.configureLogger

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newTargetsCmd())
	rootCmd.AddCommand(c.newCacheServerCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// configureLogger applies the logging flags that were set explicitly, leaving
// environment defaults in place otherwise.
func (c *CLI) configureLogger(cmd *cobra.Command, _ []string) {
	flags := cmd.Flags()
	if l, ok := c.logger.(interface{ SetVerbose(bool) }); ok && flags.Changed("verbose") {
		verbose, _ := flags.GetBool("verbose")
		l.SetVerbose(verbose)
	}
	if l, ok := c.logger.(interface{ SetJSON(bool) }); ok && flags.Changed("json") {
		asJSON, _ := flags.GetBool("json")
		l.SetJSON(asJSON)
	}
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
