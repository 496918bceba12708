// Package clean implements the retention commands: cleanup, analyze, and
// init-policy. Cleanup and analyze share one flag surface and one policy
// construction path, so an analysis always sees exactly what a cleanup
// with the same flags would do.
package clean

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/retention"
)

// retentionFlags holds the flag values shared by cleanup and analyze.
type retentionFlags struct {
	repoPath                 string
	maxAgeDays               int
	maxVersions              int
	channels                 string
	includeStablePrereleases bool
	policyFile               string
	jsonOut                  bool
}

// addRetentionFlags registers the shared scanning and policy flags.
func addRetentionFlags(cmd *cobra.Command, f *retentionFlags) {
	cmd.Flags().StringVar(&f.repoPath, "repo-path", "", "path to the hosting checkout to scan")
	_ = cmd.MarkFlagRequired("repo-path")
	cmd.Flags().IntVar(&f.maxAgeDays, "max-age-days", 90, "age in days beyond which pre-releases become candidates")
	cmd.Flags().IntVar(&f.maxVersions, "max-versions", 0, "versions kept per package (0 uses the per-channel defaults)")
	cmd.Flags().StringVar(&f.channels, "channels", "", "comma-separated channels to scan (default: all)")
	cmd.Flags().BoolVar(&f.includeStablePrereleases, "include-stable-prereleases", false, "age out pre-releases in the stable channel too")
	cmd.Flags().StringVar(&f.policyFile, "policy", "", "retention policy JSON file (overrides the policy flags)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "output JSON")
}

// policy loads the policy file when one was named, otherwise builds a
// policy from the flags: stable keeps pre-releases unless told otherwise,
// testing and pr fall back to their usual version caps when --max-versions
// is unset, and pr builds additionally age out after 30 days.
func (f *retentionFlags) policy() (retention.Policy, error) {
	if f.policyFile != "" {
		return retention.LoadPolicy(f.policyFile)
	}

	testingMax, prMax := 5, 3
	if f.maxVersions > 0 {
		testingMax = f.maxVersions
		prMax = f.maxVersions
	}

	return retention.Policy{
		PrereleaseMaxAgeDays:  f.maxAgeDays,
		MaxVersionsPerPackage: f.maxVersions,
		ChannelPolicies: map[string]retention.ChannelPolicy{
			constants.ChannelStable:  {KeepPrereleases: !f.includeStablePrereleases},
			constants.ChannelTesting: {MaxVersions: testingMax},
			constants.ChannelPR:      {MaxVersions: prMax, MaxAgeDays: 30},
		},
		ProtectedComponents: []string{},
		ProtectedPackages:   []string{},
	}, nil
}

// channelList splits --channels, empty meaning every channel.
func (f *retentionFlags) channelList() []string {
	if f.channels == "" {
		return nil
	}

	var channels []string
	for _, part := range strings.Split(f.channels, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			channels = append(channels, trimmed)
		}
	}
	return channels
}

// effectiveChannels is the channel set a scan with these flags covers.
func (f *retentionFlags) effectiveChannels() []string {
	if channels := f.channelList(); channels != nil {
		return channels
	}
	return constants.Channels
}

// newCleaner validates the repository path and builds the cleaner for it.
func (f *retentionFlags) newCleaner() (*retention.Cleaner, error) {
	info, err := os.Stat(f.repoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewValidationError("repo-path", f.repoPath, "repository path does not exist")
		}
		return nil, errors.WrapIO("stat", f.repoPath, err)
	}
	if !info.IsDir() {
		return nil, errors.NewValidationError("repo-path", f.repoPath, "repository path is not a directory")
	}

	policy, err := f.policy()
	if err != nil {
		return nil, err
	}
	return retention.NewCleaner(f.repoPath, retention.WithPolicy(policy)), nil
}
