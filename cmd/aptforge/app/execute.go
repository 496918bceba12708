package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Execute runs the aptforge CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	// Create root command with app context
	rootCmd := a.createRootCommand()

	// Set arguments
	rootCmd.SetArgs(args)

	// Execute with context
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "aptforge",
		Short:   "Debian package publication for git-hosted APT repositories",
		Version: a.version,
		Long: `Aptforge publishes Debian packages to a git-hosted APT repository.

Each run reconstructs the published state of one channel/distribution pair
from the hosting branch, merges the new packages for a single component,
republishes the full component union through aptly, and syncs the result
back. Retention commands scan the published pool and remove packages that
have outlived their channel's policy.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "publish",
		Title: "Publishing Commands:",
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "retention",
		Title: "Retention Commands:",
	})

	// Add global flags. Defaults come from the loaded configuration so
	// environment and config file values survive flag registration.
	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.aptforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	// Customize version output to match version subcommand
	rootCmd.SetVersionTemplate("aptforge {{.Version}}\n")

	// Register all commands
	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs. Global flags are bound
// directly into the config, so by now the config reflects the full
// precedence chain and the logger can be built from it.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	logger := NewLogger(a.config)
	a.logger = &logger

	// Library code falls back to the package default logger when no
	// logger travels in the context.
	logging.SetDefault(logger)

	return nil
}

// ExitOnError is a helper that prints an error and exits with a non-zero
// status. This is meant to be used in main.go for top-level error handling.
// Interrupts exit with the conventional 130.
func ExitOnError(err error) {
	if err == nil {
		return
	}

	if errors.IsCanceled(err) {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString("Interrupted\n")
		os.Exit(130)
	}

	//nolint:errcheck // Ignoring write error since we're exiting anyway
	_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
	os.Exit(1)
}
