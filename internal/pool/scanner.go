// Package pool rebuilds the component contents of a publication from its
// published tree: the Release manifest names the components, the per
// architecture Packages indexes name the artifacts, and the pool holds the
// artifact bytes. Publishing destroys and recreates the dists metadata, so
// everything the next publication must carry forward is reconstructed here
// and verified to be retrievable first.
package pool

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Scanner reads published component state out of a hosting tree.
type Scanner struct {
	root        string
	downloadDir string
	baseURL     string
	fetcher     *Fetcher
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRemoteFallback lets the scanner download pool artifacts from the
// published site when the local tree is missing them. baseURL is the root
// the channel prefixes hang off, e.g. "https://feelpp.github.io/apt".
func WithRemoteFallback(baseURL string) Option {
	return func(s *Scanner) {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithDownloadDir sets where fetched artifacts are stored. Defaults to the
// system temp directory.
func WithDownloadDir(dir string) Option {
	return func(s *Scanner) {
		s.downloadDir = dir
	}
}

// NewScanner returns a Scanner over the tree rooted at root.
func NewScanner(root string, opts ...Option) *Scanner {
	s := &Scanner{
		root:        root,
		downloadDir: os.TempDir(),
		fetcher:     NewFetcher(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reconstructs every published component of pub from its manifest.
// Each artifact is resolved to a retrievable local file; an artifact that
// is neither in the local pool nor fetchable fails the scan, because a
// publication rebuilt without it would silently drop the package.
func (s *Scanner) Scan(ctx context.Context, pub apt.Publication, rel *apt.Release) ([]apt.Component, error) {
	components := make([]apt.Component, 0, len(rel.Components))
	for _, name := range rel.Components {
		artifacts, err := s.scanComponent(ctx, pub, name, rel.Architectures)
		if err != nil {
			return nil, err
		}
		logging.FromContext(ctx).Debug().
			Str("component", name).
			Int("artifacts", len(artifacts)).
			Msg("Reconstructed component")
		components = append(components, apt.Component{Name: name, Artifacts: artifacts})
	}
	return components, nil
}

// scanComponent merges the component's per architecture indexes into one
// artifact list, deduplicated by filename. Architecture independent
// packages appear in every index; their entries must agree.
func (s *Scanner) scanComponent(ctx context.Context, pub apt.Publication, component string, architectures []string) ([]apt.Artifact, error) {
	if len(architectures) == 0 {
		// Older manifests omit Architectures; the index directories on
		// disk are the next best record.
		var err error
		architectures, err = s.discoverArchitectures(pub, component)
		if err != nil {
			return nil, err
		}
	}

	byName := make(map[string]apt.Artifact)

	for _, arch := range architectures {
		dir := filepath.Join(s.root, filepath.FromSlash(pub.PackagesDir(component, arch)))
		data, err := ReadIndex(dir)
		if errors.IsNotFound(err) {
			return nil, errors.NewMetadataError(pub.Channel, pub.Distribution,
				pub.PackagesDir(component, arch),
				"manifest lists architecture "+arch+" but its package index is missing", err)
		}
		if err != nil {
			return nil, err
		}

		artifacts, err := apt.ParsePackages(data)
		if err != nil {
			return nil, errors.NewMetadataError(pub.Channel, pub.Distribution,
				pub.PackagesDir(component, arch), "package index is unreadable", err)
		}

		for _, artifact := range artifacts {
			name := path.Base(artifact.Filename)
			if existing, ok := byName[name]; ok {
				if existing.SHA256 != artifact.SHA256 {
					return nil, errors.NewMetadataError(pub.Channel, pub.Distribution,
						pub.PackagesDir(component, arch),
						"package indexes disagree about "+name, nil)
				}
				continue
			}
			resolved, err := s.resolve(ctx, pub, component, artifact)
			if err != nil {
				return nil, err
			}
			byName[name] = resolved
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	artifacts := make([]apt.Artifact, 0, len(names))
	for _, name := range names {
		artifacts = append(artifacts, byName[name])
	}
	return artifacts, nil
}

// discoverArchitectures lists the component's on-disk binary-* index
// directories. A component without any is empty, which is what a bootstrap
// publish leaves behind; only a real read failure is an error.
func (s *Scanner) discoverArchitectures(pub apt.Publication, component string) ([]string, error) {
	relDir := path.Join(pub.DistsPath(), component)
	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(relDir)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", relDir, err)
	}

	var archs []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), constants.BinaryDirPrefix) {
			archs = append(archs, strings.TrimPrefix(entry.Name(), constants.BinaryDirPrefix))
		}
	}
	sort.Strings(archs)
	return archs, nil
}

// resolve locates the artifact's bytes: the local pool first, the
// published site second. The returned artifact has LocalPath set.
func (s *Scanner) resolve(ctx context.Context, pub apt.Publication, component string, artifact apt.Artifact) (apt.Artifact, error) {
	name := path.Base(artifact.Filename)
	local := filepath.Join(s.root, pub.Channel, filepath.FromSlash(artifact.PoolPath))

	info, err := os.Stat(local)
	if err == nil && (artifact.Size == 0 || info.Size() == artifact.Size) {
		artifact.LocalPath = local
		return artifact, nil
	}

	if s.baseURL == "" {
		reason := errors.ErrArtifactUnavailable
		if err == nil {
			reason = errors.New("pool file size does not match its index entry")
		}
		return apt.Artifact{}, errors.NewArtifactError(component, name, local, reason)
	}

	url := s.baseURL + "/" + path.Join(pub.Channel, artifact.PoolPath)
	dest := filepath.Join(s.downloadDir, component, name)
	if err := s.fetcher.Fetch(ctx, url, dest, artifact.SHA256); err != nil {
		return apt.Artifact{}, errors.NewArtifactError(component, name, url, err)
	}

	logging.FromContext(ctx).Info().
		Str("component", component).
		Str("artifact", name).
		Msg("Recovered artifact from published site")
	artifact.LocalPath = dest
	return artifact, nil
}
