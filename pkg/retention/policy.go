package retention

import (
	"encoding/json"
	"os"

	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
)

// ChannelPolicy sets the retention limits for one channel. A channel entry
// stands on its own: omitted fields take their zero-value meaning, they do
// not inherit the global limits.
type ChannelPolicy struct {
	// KeepPrereleases exempts pre-release versions in this channel from
	// age-based cleanup.
	KeepPrereleases bool `json:"keep_prereleases"`

	// MaxVersions bounds how many versions of each package the channel
	// keeps. Zero keeps them all.
	MaxVersions int `json:"max_versions"`

	// MaxAgeDays overrides the global pre-release age limit for this
	// channel. Zero inherits the global limit.
	MaxAgeDays int `json:"max_age_days,omitempty"`
}

// Policy is the retention configuration a cleanup run applies. The zero
// value cleans nothing useful; start from DefaultPolicy.
type Policy struct {
	// PrereleaseMaxAgeDays is how long pre-release versions live before
	// they become cleanup candidates, unless a channel sets its own limit.
	PrereleaseMaxAgeDays int `json:"prerelease_max_age_days"`

	// MaxVersionsPerPackage bounds versions kept per package in channels
	// without a policy of their own. Zero keeps them all.
	MaxVersionsPerPackage int `json:"max_versions_per_package"`

	// ChannelPolicies holds per channel limits. A channel with no entry
	// keeps its pre-releases and falls back to the global limits.
	ChannelPolicies map[string]ChannelPolicy `json:"channel_policies"`

	// ProtectedComponents are never cleaned. Names match exactly.
	ProtectedComponents []string `json:"protected_components"`

	// ProtectedPackages are regular expressions matched against the start
	// of package names; matching packages are never cleaned.
	ProtectedPackages []string `json:"protected_packages"`
}

// DefaultPolicy returns the retention policy applied when no policy file is
// given: stable keeps everything, testing keeps five versions and expires
// pre-releases after ninety days, pr keeps three versions and expires
// pre-releases after thirty.
func DefaultPolicy() Policy {
	return Policy{
		PrereleaseMaxAgeDays:  90,
		MaxVersionsPerPackage: 0,
		ChannelPolicies: map[string]ChannelPolicy{
			constants.ChannelStable:  {KeepPrereleases: true, MaxVersions: 0},
			constants.ChannelTesting: {KeepPrereleases: false, MaxVersions: 5},
			constants.ChannelPR:      {KeepPrereleases: false, MaxVersions: 3, MaxAgeDays: 30},
		},
		ProtectedComponents: []string{},
		ProtectedPackages:   []string{},
	}
}

// LoadPolicy reads a policy file, layering it over DefaultPolicy: top-level
// fields in the file win, and channels the file does not mention keep their
// default policy.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errors.WrapIO("read", path, err)
	}
	policy := DefaultPolicy()
	if err := json.Unmarshal(data, &policy); err != nil {
		return Policy{}, errors.NewParseError("json", path, "retention policy is not valid JSON", err)
	}
	return policy, nil
}

// Save writes the policy as indented JSON.
func (p Policy) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.NewParseError("json", path, "retention policy cannot be encoded", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// effective resolves the limits for one channel. Channels without a policy
// entry keep their pre-releases and take the global version and age limits;
// channels with one take that entry, inheriting only the age limit when the
// entry leaves it unset.
func (p Policy) effective(channel string) (keepPrereleases bool, maxVersions, maxAgeDays int) {
	cp, ok := p.ChannelPolicies[channel]
	if !ok {
		return true, p.MaxVersionsPerPackage, p.PrereleaseMaxAgeDays
	}
	maxAge := cp.MaxAgeDays
	if maxAge == 0 {
		maxAge = p.PrereleaseMaxAgeDays
	}
	return cp.KeepPrereleases, cp.MaxVersions, maxAge
}
