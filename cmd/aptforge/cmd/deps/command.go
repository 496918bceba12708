package deps

import (
	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/cmd/application"
)

// NewCommand creates the deps command with app dependencies.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Manage the external tools publish runs depend on",
		Long: `Publish runs shell out to aptly for repository construction and to gpg
when signing is enabled. This command reports whether those tools are
installed and how to install whichever is missing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	// Add subcommands
	cmd.AddCommand(NewCheckCommand(app))

	return cmd
}
