package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/cmd/aptforge/cmd/clean"
	"github.com/feelpp/aptforge/cmd/aptforge/cmd/deps"
	"github.com/feelpp/aptforge/cmd/aptforge/cmd/publish"
)

// registerCommands registers all subcommands with the root command.
// This is where we wire up all the command handlers.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Publishing commands
	rootCmd.AddCommand(a.CreatePublishCommand())

	// Retention commands
	rootCmd.AddCommand(a.CreateCleanupCommand())
	rootCmd.AddCommand(a.CreateAnalyzeCommand())
	rootCmd.AddCommand(a.CreateInitPolicyCommand())

	// Utility commands
	rootCmd.AddCommand(a.CreateDepsCommand())
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// CreatePublishCommand creates the publish command with app dependencies.
func (a *App) CreatePublishCommand() *cobra.Command {
	return publish.NewCommand(a)
}

// CreateCleanupCommand creates the cleanup command with app dependencies.
func (a *App) CreateCleanupCommand() *cobra.Command {
	return clean.NewCleanupCommand(a)
}

// CreateAnalyzeCommand creates the analyze command with app dependencies.
func (a *App) CreateAnalyzeCommand() *cobra.Command {
	return clean.NewAnalyzeCommand(a)
}

// CreateInitPolicyCommand creates the init-policy command with app dependencies.
func (a *App) CreateInitPolicyCommand() *cobra.Command {
	return clean.NewInitPolicyCommand(a)
}

// CreateDepsCommand creates the deps command with app dependencies.
func (a *App) CreateDepsCommand() *cobra.Command {
	return deps.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("aptforge %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s\n", runtime.Version())
				cmd.Printf("  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
