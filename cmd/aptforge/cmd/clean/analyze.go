package clean

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/cmd/application"
	"github.com/feelpp/aptforge/internal/cmd/output"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
	"github.com/feelpp/aptforge/pkg/retention"
)

// analysis is the machine-facing analysis document CI workflows consume.
type analysis struct {
	Summary                analysisSummary `json:"summary"`
	CleanupCandidates      []ageEntry      `json:"cleanup_candidates"`
	VersionLimitCandidates []versionEntry  `json:"version_limit_candidates"`
	Config                 analysisConfig  `json:"config"`
}

type analysisSummary struct {
	TotalPackages          int     `json:"total_packages"`
	TotalSizeMB            float64 `json:"total_size_mb"`
	CleanupCandidates      int     `json:"cleanup_candidates"`
	CleanupSizeMB          float64 `json:"cleanup_size_mb"`
	VersionLimitCandidates int     `json:"version_limit_candidates"`
}

// ageEntry describes one pre-release past its age limit.
type ageEntry struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"arch"`
	Channel      string `json:"channel"`
	Component    string `json:"component"`
	Size         int64  `json:"size"`
	AgeDays      int    `json:"age_days"`
	Prerelease   bool   `json:"is_prerelease"`
	Path         string `json:"path"`
}

// versionEntry describes one excess version beyond the channel's cap.
type versionEntry struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"arch"`
	Channel      string `json:"channel"`
	Component    string `json:"component"`
	Size         int64  `json:"size"`
	AgeDays      int    `json:"age_days"`
	Path         string `json:"path"`
}

type analysisConfig struct {
	MaxAgeDays               int      `json:"max_age_days"`
	Channels                 []string `json:"channels"`
	IncludeStablePrereleases bool     `json:"include_stable_prereleases"`
	MaxVersions              int      `json:"max_versions"`
}

// NewAnalyzeCommand creates the analyze command with app dependencies.
func NewAnalyzeCommand(app application.Application) *cobra.Command {
	f := &retentionFlags{}
	var reportPath string
	var githubOutput bool

	cmd := &cobra.Command{
		Use:     "analyze",
		GroupID: "retention",
		Short:   "Report what a cleanup with the same flags would remove",
		Long: `Analyze scans the pool trees of a hosting checkout and reports every
package the retention policy would remove, without deleting anything.
The JSON document it emits is stable, so CI workflows can gate scheduled
cleanups on its numbers.`,
		Example: `  # Human-readable report
  aptforge analyze --repo-path ./apt-checkout

  # JSON for automation, saved to a file as well
  aptforge analyze --repo-path ./apt-checkout --json --output report.json

  # Export summary numbers to a GitHub Actions step
  aptforge analyze --repo-path ./apt-checkout --github-output`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, app, f, reportPath, githubOutput)
		},
	}

	addRetentionFlags(cmd, f)
	cmd.Flags().StringVar(&reportPath, "output", "", "also write the JSON report to this file")
	cmd.Flags().BoolVar(&githubOutput, "github-output", false, "append summary values to the file named by GITHUB_OUTPUT")

	return cmd
}

func runAnalyze(cmd *cobra.Command, app application.Application, f *retentionFlags, reportPath string, githubOutput bool) error {
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

	doc := buildAnalysis(f, packages, cands)

	if reportPath != "" {
		if err := saveAnalysis(doc, reportPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", reportPath)
	}

	if githubOutput {
		if err := writeGitHubOutput(doc); err != nil {
			return err
		}
	}

	if format, structured := structuredFormat(app, f); structured {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), doc)
	}
	return printAnalysis(cmd.OutOrStdout(), f, doc, cands)
}

// buildAnalysis aggregates the scan and candidate selection into the
// analysis document. Sizes are rounded to two decimals in megabytes, and
// the cleanup size counts the age-expired pre-releases only.
func buildAnalysis(f *retentionFlags, packages []retention.Package, cands retention.Candidates) analysis {
	var totalSize, cleanupSize int64
	for _, pkg := range packages {
		totalSize += pkg.Size
	}

	ages := make([]ageEntry, 0, len(cands.Prerelease))
	for _, pkg := range cands.Prerelease {
		cleanupSize += pkg.Size
		ages = append(ages, ageEntry{
			Name:         pkg.Name,
			Version:      pkg.Version,
			Architecture: pkg.Architecture,
			Channel:      pkg.Channel,
			Component:    pkg.Component,
			Size:         pkg.Size,
			AgeDays:      pkg.AgeDays,
			Prerelease:   pkg.Prerelease,
			Path:         pkg.Path,
		})
	}

	versions := make([]versionEntry, 0, len(cands.VersionLimit))
	for _, pkg := range cands.VersionLimit {
		versions = append(versions, versionEntry{
			Name:         pkg.Name,
			Version:      pkg.Version,
			Architecture: pkg.Architecture,
			Channel:      pkg.Channel,
			Component:    pkg.Component,
			Size:         pkg.Size,
			AgeDays:      pkg.AgeDays,
			Path:         pkg.Path,
		})
	}

	return analysis{
		Summary: analysisSummary{
			TotalPackages:          len(packages),
			TotalSizeMB:            roundMB(totalSize),
			CleanupCandidates:      len(ages),
			CleanupSizeMB:          roundMB(cleanupSize),
			VersionLimitCandidates: len(versions),
		},
		CleanupCandidates:      ages,
		VersionLimitCandidates: versions,
		Config: analysisConfig{
			MaxAgeDays:               f.maxAgeDays,
			Channels:                 f.effectiveChannels(),
			IncludeStablePrereleases: f.includeStablePrereleases,
			MaxVersions:              f.maxVersions,
		},
	}
}

// saveAnalysis writes the report document as indented JSON.
func saveAnalysis(doc analysis, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, append(data, '\n'), constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// writeGitHubOutput appends the summary numbers to the GitHub Actions
// output file so later workflow steps can read them.
func writeGitHubOutput(doc analysis) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return errors.NewValidationError("github-output", "", "GITHUB_OUTPUT is not set")
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer file.Close()

	_, err = fmt.Fprintf(file,
		"total_packages=%d\ncleanup_count=%d\ncleanup_size_mb=%.2f\nversion_limit_count=%d\n",
		doc.Summary.TotalPackages,
		doc.Summary.CleanupCandidates,
		doc.Summary.CleanupSizeMB,
		doc.Summary.VersionLimitCandidates,
	)
	if err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// roundMB converts bytes to megabytes rounded to two decimals.
func roundMB(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024)*100) / 100
}
