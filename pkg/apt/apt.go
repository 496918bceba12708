// Package apt models the on-disk structure of a published APT repository:
// component names, Debian versions, package artifacts, and the Release and
// Packages control files that describe them.
//
// The parsers are deliberately defensive. Published metadata is the only
// record of what a repository contains, so a file that cannot be parsed is
// reported as an error rather than skipped: acting on a partial read would
// silently drop components from the next publication.
package apt

import (
	"path"
	"slices"
)

// Artifact is one .deb file belonging to a component, either already
// published or about to be. Identity within a component is the base
// Filename; content identity is the SHA256 checksum.
type Artifact struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size,omitempty"`
	SHA256       string `json:"sha256,omitempty"`

	// PoolPath is the repository-relative pool location from the package
	// index, e.g. "pool/mmg/m/mmg/mmg_5.8.0_amd64.deb".
	PoolPath string `json:"pool_path,omitempty"`

	// LocalPath is the absolute path of a retrievable local copy, set once
	// the artifact has been resolved on disk or fetched.
	LocalPath string `json:"-"`
}

// Component is a named set of artifacts inside one publication.
type Component struct {
	Name      string     `json:"name"`
	Artifacts []Artifact `json:"artifacts"`
}

// Filenames returns the base filenames of the component's artifacts, sorted.
func (c *Component) Filenames() []string {
	names := make([]string, 0, len(c.Artifacts))
	for _, a := range c.Artifacts {
		names = append(names, path.Base(a.Filename))
	}
	slices.Sort(names)
	return names
}

// Publication identifies one published channel and distribution pair. All
// repository-relative paths hang off this identity.
type Publication struct {
	Channel      string `json:"channel"`
	Distribution string `json:"distribution"`
}

// String renders the publication as "channel/distribution".
func (p Publication) String() string {
	return p.Channel + "/" + p.Distribution
}

// DistsPath is the repository-relative metadata directory of the publication.
func (p Publication) DistsPath() string {
	return path.Join(p.Channel, "dists", p.Distribution)
}

// ReleasePath is the repository-relative path of the unsigned manifest.
func (p Publication) ReleasePath() string {
	return path.Join(p.DistsPath(), "Release")
}

// InReleasePath is the repository-relative path of the clearsigned manifest.
func (p Publication) InReleasePath() string {
	return path.Join(p.DistsPath(), "InRelease")
}

// PackagesDir is the repository-relative directory holding a component's
// package index for one architecture.
func (p Publication) PackagesDir(component, arch string) string {
	return path.Join(p.DistsPath(), component, "binary-"+arch)
}

// PoolPath is the repository-relative artifact directory of the publication.
// Pool contents are shared across components under the channel prefix.
func (p Publication) PoolPath() string {
	return path.Join(p.Channel, "pool")
}
