package retention

import (
	"math"

	"github.com/agentstation/utc"
)

// ReportEntry describes one cleanup candidate in a Report.
type ReportEntry struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"arch"`
	Component    string `json:"component"`
	Size         int64  `json:"size"`
	AgeDays      int    `json:"age_days"`
	Prerelease   bool   `json:"is_prerelease"`
	Path         string `json:"path"`
}

// Summary aggregates a Report's counts and reclaimable space.
type Summary struct {
	TotalCandidates        int     `json:"total_candidates"`
	PrereleaseCandidates   int     `json:"prerelease_candidates"`
	VersionLimitCandidates int     `json:"version_limit_candidates"`
	TotalSizeBytes         int64   `json:"total_size_bytes"`
	TotalSizeMB            float64 `json:"total_size_mb"`
}

// Report is the analysis output of one cleanup run: what would be removed,
// grouped by channel, under which policy.
type Report struct {
	Summary     Summary                  `json:"summary"`
	ByChannel   map[string][]ReportEntry `json:"by_channel"`
	Policy      Policy                   `json:"policy"`
	GeneratedAt utc.Time                 `json:"generated_at"`
}

// Report builds the analysis report for the given candidates.
func (c *Cleaner) Report(cands Candidates) Report {
	all := cands.All()

	var totalSize int64
	byChannel := make(map[string][]ReportEntry)
	for _, pkg := range all {
		totalSize += pkg.Size
		byChannel[pkg.Channel] = append(byChannel[pkg.Channel], ReportEntry{
			Name:         pkg.Name,
			Version:      pkg.Version,
			Architecture: pkg.Architecture,
			Component:    pkg.Component,
			Size:         pkg.Size,
			AgeDays:      pkg.AgeDays,
			Prerelease:   pkg.Prerelease,
			Path:         pkg.Path,
		})
	}

	return Report{
		Summary: Summary{
			TotalCandidates:        len(all),
			PrereleaseCandidates:   len(cands.Prerelease),
			VersionLimitCandidates: len(cands.VersionLimit),
			TotalSizeBytes:         totalSize,
			TotalSizeMB:            math.Round(float64(totalSize)/(1024*1024)*100) / 100,
		},
		ByChannel:   byChannel,
		Policy:      c.policy,
		GeneratedAt: utc.Now(),
	}
}
