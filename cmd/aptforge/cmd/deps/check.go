// Package deps provides commands for checking the external tools a
// publish run shells out to.
package deps

import (
	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/cmd/application"
	"github.com/feelpp/aptforge/internal/deps"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// NewCheckCommand creates the deps check subcommand using app context.
func NewCheckCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check availability of the external tools",
		Long: `Check verifies that the external binaries publish runs shell out to are
installed and accessible in PATH. For each tool it shows the detected
version, its path, and installation instructions when missing.`,
		Example: `  aptforge deps check                # human-readable status
  aptforge deps check --format json  # JSON for automation`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, app)
		},
	}
}

// ToolStatus pairs one dependency with its check outcome.
type ToolStatus struct {
	Dependency deps.Dependency       `json:"dependency" yaml:"dependency"`
	Status     deps.DependencyStatus `json:"status" yaml:"status"`
}

// CheckResults aggregates the statuses of every known tool.
type CheckResults struct {
	Tools     []ToolStatus `json:"tools" yaml:"tools"`
	Total     int          `json:"total" yaml:"total"`
	Available int          `json:"available" yaml:"available"`
	Missing   int          `json:"missing" yaml:"missing"`
}

// runCheck executes the dependency check command.
func runCheck(cmd *cobra.Command, app application.Application) error {
	ctx := logging.WithLogger(cmd.Context(), app.Logger())

	known := deps.Known()
	statuses := deps.CheckAll(ctx, known)

	results := &CheckResults{Tools: make([]ToolStatus, 0, len(known))}
	for _, dep := range known {
		status := statuses[dep.Name]
		results.Tools = append(results.Tools, ToolStatus{Dependency: dep, Status: status})

		results.Total++
		if status.Available {
			results.Available++
		} else {
			results.Missing++
		}
	}

	if err := displayResults(cmd, app, results); err != nil {
		return err
	}

	// A missing required tool fails the check so CI can gate on it.
	for _, tool := range results.Tools {
		if tool.Dependency.Required && !tool.Status.Available {
			return errors.NewValidationError("dependencies", tool.Dependency.Name, "required dependencies are missing")
		}
	}
	return nil
}
