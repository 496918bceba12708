package clean

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/cmd/application"
	"github.com/feelpp/aptforge/internal/cmd/output"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
	"github.com/feelpp/aptforge/pkg/retention"
)

// NewCleanupCommand creates the cleanup command with app dependencies.
func NewCleanupCommand(app application.Application) *cobra.Command {
	f := &retentionFlags{}
	var dryRun bool
	var execute bool

	cmd := &cobra.Command{
		Use:     "cleanup",
		GroupID: "retention",
		Short:   "Remove published packages that exceed the retention policy",
		Long: `Cleanup scans the pool trees of a hosting checkout and removes packages
the retention policy no longer wants: pre-releases past their age limit
and excess versions beyond the per-channel cap.

Runs are dry by default. Pass --execute to delete. Cleanup only touches
the pool; run publish afterwards to rebuild the index metadata.`,
		Example: `  # See what would be removed
  aptforge cleanup --repo-path ./apt-checkout

  # Delete, keeping at most two versions per package everywhere
  aptforge cleanup --repo-path ./apt-checkout --max-versions 2 --execute

  # Apply a versioned policy file to the pr channel only
  aptforge cleanup --repo-path ./apt-checkout --policy retention-policy.json --channels pr --execute`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if execute && cmd.Flags().Changed("dry-run") && dryRun {
				return errors.NewValidationError("execute", true, "--execute conflicts with an explicit --dry-run=true")
			}
			return runCleanup(cmd, app, f, !execute)
		},
	}

	addRetentionFlags(cmd, f)
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "only report what would be deleted")
	cmd.Flags().BoolVar(&execute, "execute", false, "actually delete the candidates")

	return cmd
}

func runCleanup(cmd *cobra.Command, app application.Application, f *retentionFlags, dryRun bool) error {
	ctx := logging.WithLogger(cmd.Context(), app.Logger())

	cleaner, err := f.newCleaner()
	if err != nil {
		return err
	}

	packages, err := cleaner.Scan(ctx, f.channelList())
	if err != nil {
		return err
	}

	cands, err := cleaner.Candidates(ctx, packages)
	if err != nil {
		return err
	}

	result := cleaner.Cleanup(ctx, cands, dryRun)

	if format, structured := structuredFormat(app, f); structured {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), result)
	}
	return printCleanup(cmd.OutOrStdout(), f, cands, result)
}

// structuredFormat reports whether the run asked for machine-readable
// output, either through --json or an explicit --format.
func structuredFormat(app application.Application, f *retentionFlags) (output.Format, bool) {
	if f.jsonOut {
		return output.FormatJSON, true
	}
	switch format := output.Format(app.OutputFormat()); format {
	case output.FormatJSON, output.FormatYAML:
		return format, true
	default:
		return "", false
	}
}

// printCleanup renders the human-readable cleanup outcome.
func printCleanup(w io.Writer, f *retentionFlags, cands retention.Candidates, result retention.CleanupResult) error {
	mode := "execute"
	if result.DryRun {
		mode = "dry run"
	}

	fmt.Fprintf(w, "Repository cleanup (%s)\n", mode)
	fmt.Fprintf(w, "  repository: %s\n", f.repoPath)
	fmt.Fprintf(w, "  channels:   %s\n\n", channelLabel(f))

	all := cands.All()
	if len(all) == 0 {
		fmt.Fprintln(w, "Nothing to clean up.")
		return nil
	}

	if err := writeCandidateTable(w, all); err != nil {
		return err
	}

	freed := sizeOfPaths(all, result.Deleted)
	if result.DryRun {
		fmt.Fprintf(w, "\nWould delete %d packages (%s). Re-run with --execute to delete.\n", result.DeletedCount, humanSize(freed))
		return nil
	}

	fmt.Fprintf(w, "\nDeleted %d packages (%s).\n", result.DeletedCount, humanSize(freed))
	if result.FailedCount > 0 {
		fmt.Fprintf(w, "Failed to delete %d packages:\n", result.FailedCount)
		for _, failure := range result.Failed {
			fmt.Fprintf(w, "  %s: %s\n", failure.Path, failure.Error)
		}
	}
	return nil
}
