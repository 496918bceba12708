package deps

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/cmd/application"
	"github.com/feelpp/aptforge/internal/cmd/emoji"
	"github.com/feelpp/aptforge/internal/cmd/output"
	"github.com/feelpp/aptforge/internal/deps"
)

// displayResults shows dependency check results in the requested format.
func displayResults(cmd *cobra.Command, app application.Application, results *CheckResults) error {
	format := output.DetectFormat(app.OutputFormat())
	if format == output.FormatJSON || format == output.FormatYAML {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), results)
	}
	return displayTable(cmd, results)
}

// displayTable renders the status table with install hints for anything
// missing.
func displayTable(cmd *cobra.Command, results *CheckResults) error {
	w := cmd.OutOrStdout()

	if results.Missing == 0 {
		fmt.Fprintf(w, "%s All %d tools available.\n\n", emoji.Success, results.Total)
	} else {
		fmt.Fprintf(w, "%s %d of %d tools missing.\n\n", emoji.Error, results.Missing, results.Total)
	}

	rows := make([][]string, 0, len(results.Tools))
	for _, tool := range results.Tools {
		status := emoji.Success + " available"
		if !tool.Status.Available {
			status = emoji.Error + " missing"
		}

		version := "-"
		if tool.Status.Version != "" {
			version = tool.Status.Version
		}

		path := "-"
		if tool.Status.Path != "" {
			path = tool.Status.Path
		}

		needed := "optional"
		if tool.Dependency.Required {
			needed = "required"
		}

		rows = append(rows, []string{
			tool.Dependency.DisplayName,
			status,
			version,
			path,
			needed,
		})
	}

	err := output.NewFormatter(output.FormatTable).Format(w, output.Data{
		Headers: []string{"Tool", "Status", "Version", "Path", "Needed"},
		Rows:    rows,
	})
	if err != nil {
		return err
	}

	for _, tool := range results.Tools {
		if !tool.Status.Available {
			fmt.Fprintln(w)
			deps.ShowInstallInstructions(w, tool.Dependency)
		}
	}
	return nil
}
