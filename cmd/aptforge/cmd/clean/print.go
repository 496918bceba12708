package clean

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/feelpp/aptforge/internal/cmd/output"
	"github.com/feelpp/aptforge/pkg/retention"
)

// channelLabel names the scanned channel set for display.
func channelLabel(f *retentionFlags) string {
	return strings.Join(f.effectiveChannels(), ", ")
}

// writeCandidateTable renders cleanup candidates as a table in pool order.
func writeCandidateTable(w io.Writer, candidates []retention.Package) error {
	rows := make([][]string, 0, len(candidates))
	for _, pkg := range candidates {
		rows = append(rows, []string{
			pkg.Channel,
			pkg.Component,
			pkg.Name,
			pkg.Version,
			pkg.Architecture,
			strconv.Itoa(pkg.AgeDays),
			humanSize(pkg.Size),
		})
	}

	formatter := &output.TableFormatter{}
	return formatter.Format(w, output.Data{
		Headers: []string{"Channel", "Component", "Package", "Version", "Arch", "Age (days)", "Size"},
		Rows:    rows,
		ColumnAlignment: []output.Align{
			output.AlignLeft,
			output.AlignLeft,
			output.AlignLeft,
			output.AlignLeft,
			output.AlignLeft,
			output.AlignRight,
			output.AlignRight,
		},
	})
}

// printAnalysis renders the human-readable analysis report.
func printAnalysis(w io.Writer, f *retentionFlags, doc analysis, cands retention.Candidates) error {
	fmt.Fprintln(w, "Repository analysis")
	fmt.Fprintf(w, "  repository:   %s\n", f.repoPath)
	fmt.Fprintf(w, "  channels:     %s\n", channelLabel(f))
	fmt.Fprintf(w, "  max age:      %d days (pre-releases)\n", f.maxAgeDays)
	if f.maxVersions > 0 {
		fmt.Fprintf(w, "  max versions: %d\n", f.maxVersions)
	} else {
		fmt.Fprintf(w, "  max versions: channel defaults\n")
	}
	fmt.Fprintf(w, "\nScanned %d packages (%.2f MB).\n", doc.Summary.TotalPackages, doc.Summary.TotalSizeMB)

	if len(cands.Prerelease) == 0 && len(cands.VersionLimit) == 0 {
		fmt.Fprintln(w, "\nNo cleanup candidates.")
		return nil
	}

	if len(cands.Prerelease) > 0 {
		fmt.Fprintf(w, "\nPre-releases past their age limit: %d (%.2f MB)\n", doc.Summary.CleanupCandidates, doc.Summary.CleanupSizeMB)
		if err := writeCandidateTable(w, cands.Prerelease); err != nil {
			return err
		}
	}

	if len(cands.VersionLimit) > 0 {
		fmt.Fprintf(w, "\nExcess versions beyond the channel cap: %d\n", doc.Summary.VersionLimitCandidates)
		if err := writeCandidateTable(w, cands.VersionLimit); err != nil {
			return err
		}
	}

	return nil
}

// sizeOfPaths sums the sizes of the packages whose paths appear in paths.
func sizeOfPaths(packages []retention.Package, paths []string) int64 {
	sizes := make(map[string]int64, len(packages))
	for _, pkg := range packages {
		sizes[pkg.Path] = pkg.Size
	}

	var total int64
	for _, path := range paths {
		total += sizes[path]
	}
	return total
}

// humanSize renders a byte count the way a person reads one.
func humanSize(bytes int64) string {
	const unit = 1024
	switch {
	case bytes >= unit*unit*unit:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(unit*unit*unit))
	case bytes >= unit*unit:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(unit*unit))
	case bytes >= unit:
		return fmt.Sprintf("%.1f KB", float64(bytes)/unit)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
