package retention

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Candidates partitions cleanup-eligible packages by why they are eligible.
// A package condemned as a stale pre-release is not repeated in the
// version-limit list.
type Candidates struct {
	Prerelease   []Package
	VersionLimit []Package
}

// All returns every candidate exactly once, pre-release candidates first.
func (c Candidates) All() []Package {
	all := make([]Package, 0, len(c.Prerelease)+len(c.VersionLimit))
	seen := make(map[string]bool, cap(all))
	for _, list := range [][]Package{c.Prerelease, c.VersionLimit} {
		for _, pkg := range list {
			if seen[pkg.Path] {
				continue
			}
			seen[pkg.Path] = true
			all = append(all, pkg)
		}
	}
	return all
}

// Candidates applies the retention policy to a package inventory. Packages
// are grouped per channel, component, name, and architecture; each group is
// checked for expired pre-releases and for versions beyond the channel's
// limit, newest versions kept. Protected components and package name
// patterns exempt their whole group.
func (c *Cleaner) Candidates(ctx context.Context, packages []Package) (Candidates, error) {
	protected, err := compileProtected(c.policy.ProtectedPackages)
	if err != nil {
		return Candidates{}, err
	}
	protectedComponents := make(map[string]bool, len(c.policy.ProtectedComponents))
	for _, name := range c.policy.ProtectedComponents {
		protectedComponents[name] = true
	}

	type groupKey struct {
		channel, component, name, arch string
	}
	groups := make(map[groupKey][]Package)
	keys := make([]groupKey, 0)
	for _, pkg := range packages {
		key := groupKey{pkg.Channel, pkg.Component, pkg.Name, pkg.Architecture}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], pkg)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.channel != b.channel {
			return a.channel < b.channel
		}
		if a.component != b.component {
			return a.component < b.component
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.arch < b.arch
	})

	log := logging.FromContext(ctx)
	var cands Candidates
	for _, key := range keys {
		group := groups[key]
		keepPrereleases, maxVersions, maxAgeDays := c.policy.effective(key.channel)

		if protectedComponents[key.component] {
			log.Debug().Str("component", key.component).Msg("Skipping protected component")
			continue
		}
		if matchesAny(protected, key.name) {
			log.Debug().Str("package", key.name).Msg("Skipping protected package")
			continue
		}

		condemned := make(map[string]bool)
		if !keepPrereleases {
			for _, pkg := range group {
				if pkg.Prerelease && pkg.AgeDays > maxAgeDays {
					cands.Prerelease = append(cands.Prerelease, pkg)
					condemned[pkg.Path] = true
					log.Debug().
						Str("package", pkg.Name).
						Str("version", pkg.Version).
						Int("age_days", pkg.AgeDays).
						Msg("Pre-release cleanup candidate")
				}
			}
		}

		if maxVersions > 0 && len(group) > maxVersions {
			sorted := make([]Package, len(group))
			copy(sorted, group)
			sort.SliceStable(sorted, func(i, j int) bool {
				return apt.CompareVersions(sorted[i].Version, sorted[j].Version) > 0
			})
			for _, pkg := range sorted[maxVersions:] {
				if condemned[pkg.Path] {
					continue
				}
				cands.VersionLimit = append(cands.VersionLimit, pkg)
				log.Debug().
					Str("package", pkg.Name).
					Str("version", pkg.Version).
					Int("keeping", maxVersions).
					Msg("Version limit cleanup candidate")
			}
		}
	}

	log.Info().
		Int("prerelease", len(cands.Prerelease)).
		Int("version_limit", len(cands.VersionLimit)).
		Msg("Found cleanup candidates")
	return cands, nil
}

// prVersion matches a pull request number encoded in a version such as
// 1.0.0~pr123.
var prVersion = regexp.MustCompile(`(?i)pr(\d+)`)

// PRCleanupCandidates finds pr channel packages whose encoded pull request
// has closed or whose age exceeds maxAgeDays. Packages without an encoded
// number stay until they age out.
func (c *Cleaner) PRCleanupCandidates(ctx context.Context, closed []int, maxAgeDays int) ([]Package, error) {
	packages, err := c.Scan(ctx, []string{constants.ChannelPR})
	if err != nil {
		return nil, err
	}

	closedSet := make(map[int]bool, len(closed))
	for _, n := range closed {
		closedSet[n] = true
	}

	var candidates []Package
	for _, pkg := range packages {
		if pkg.AgeDays > maxAgeDays {
			candidates = append(candidates, pkg)
			continue
		}
		m := prVersion.FindStringSubmatch(pkg.Version)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if closedSet[n] {
			candidates = append(candidates, pkg)
		}
	}
	return candidates, nil
}

// compileProtected compiles protected package patterns, each anchored to
// the start of the name.
func compileProtected(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, errors.NewValidationError("protected_packages", pattern, "invalid pattern: "+err.Error())
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
