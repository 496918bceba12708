package clean

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/cmd/application"
	"github.com/feelpp/aptforge/pkg/retention"
)

// NewInitPolicyCommand creates the init-policy command with app dependencies.
func NewInitPolicyCommand(_ application.Application) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:     "init-policy",
		GroupID: "retention",
		Short:   "Write a default retention policy file",
		Long: `Init-policy writes the default retention policy as JSON so it can be
versioned alongside the repository and tuned. Point cleanup and analyze
at it with --policy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInitPolicy(cmd, outputPath)
		},
	}

	cmd.Flags().StringVar(&outputPath, "output", "retention-policy.json", "where to write the policy file")

	return cmd
}

func runInitPolicy(cmd *cobra.Command, path string) error {
	if err := retention.DefaultPolicy().Save(path); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created retention policy configuration: %s\n", path)
	fmt.Fprintln(w, "\nEdit this file to customize cleanup behavior.")
	return nil
}
