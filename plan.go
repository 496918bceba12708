package aptforge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/feelpp/aptforge/internal/pages"
	"github.com/feelpp/aptforge/internal/pool"
	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Plan is the reconciliation decision for one publish run: which components
// the next publication carries, in what order, and where each component's
// artifacts come from.
type Plan struct {
	// Target is the normalized component being published.
	Target string `json:"target"`

	// Introduced is true when Target is not in the published manifest.
	Introduced bool `json:"introduced"`

	// Existing are the components the published manifest lists.
	Existing []string `json:"existing"`

	// Components is the sorted union of Existing and Target. This is the
	// publication order; it never shrinks relative to Existing.
	Components []string `json:"components"`

	// CarryForward holds the reconstructed artifacts of every published
	// component other than the target.
	CarryForward []apt.Component `json:"carry_forward"`

	// Prior holds the target component's already-published artifacts.
	Prior []apt.Artifact `json:"prior"`

	// Incoming holds the new artifacts read from the artifact directory.
	Incoming []apt.Artifact `json:"incoming"`
}

// CarriedCount returns the number of artifacts carried forward from the
// previous publication, the target's own prior artifacts included.
func (p *Plan) CarriedCount() int {
	count := len(p.Prior)
	for _, c := range p.CarryForward {
		count += len(c.Artifacts)
	}
	return count
}

// Plan computes the reconciliation decision for the request without staging
// or publishing anything. The hosting branch is cloned into a throwaway
// directory and read; no aptly state is created.
func (p *publisher) Plan(ctx context.Context, req Request) (*Plan, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	component, pub, err := p.resolveRequest(&req)
	if err != nil {
		return nil, err
	}

	incoming, err := readArtifactDir(req.ArtifactDir)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "aptforge-plan-")
	if err != nil {
		return nil, errors.WrapIO("create", "plan workspace", err)
	}
	defer os.RemoveAll(dir)

	checkout, err := pages.Clone(ctx, dir, pages.Options{
		URL:    p.config.repoURL,
		Branch: p.config.branch,
		Token:  p.config.token,
	})
	if err != nil {
		return nil, err
	}

	release, scanned, err := p.loadPublishedState(ctx, checkout.Path(), pub)
	if err != nil {
		return nil, err
	}

	return buildPlan(component, release, scanned, incoming), nil
}

// loadPublishedState reads the published manifest under root and
// reconstructs every component it lists. A tree without the publication is
// a first publish: nil release, no components.
func (p *publisher) loadPublishedState(ctx context.Context, root string, pub apt.Publication) (*apt.Release, []apt.Component, error) {
	release, err := pool.ReadRelease(root, pub)
	if errors.IsNotFound(err) {
		logging.FromContext(ctx).Info().Msg("No existing publication, starting fresh")
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	scanned, err := p.scanner(root, "").Scan(ctx, pub, release)
	if err != nil {
		return nil, nil, err
	}
	return release, scanned, nil
}

// buildPlan merges the published state with the incoming artifacts into the
// publication decision.
func buildPlan(target string, release *apt.Release, scanned []apt.Component, incoming []apt.Artifact) *Plan {
	plan := &Plan{
		Target:     target,
		Introduced: true,
		Incoming:   incoming,
	}

	if release != nil {
		plan.Existing = slices.Clone(release.Components)
		plan.Introduced = !slices.Contains(release.Components, target)
	}

	union := make([]string, 0, len(plan.Existing)+1)
	union = append(union, plan.Existing...)
	if plan.Introduced {
		union = append(union, target)
	}
	slices.Sort(union)
	plan.Components = slices.Compact(union)

	for _, component := range scanned {
		if component.Name == target {
			plan.Prior = component.Artifacts
			continue
		}
		plan.CarryForward = append(plan.CarryForward, component)
	}

	return plan
}

// readArtifactDir collects the .deb files to publish. An empty dir argument
// is a bootstrap publish and yields no artifacts; a named directory must
// exist and contain at least one package.
func readArtifactDir(dir string) ([]apt.Artifact, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewValidationError("artifact-dir", dir, "artifact directory does not exist")
		}
		return nil, errors.WrapIO("read", dir, err)
	}

	var artifacts []apt.Artifact
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".deb") {
			continue
		}

		deb, err := apt.ParseDebFilename(name)
		if err != nil {
			return nil, err
		}

		full := filepath.Join(dir, name)
		sum, size, err := fileSHA256(full)
		if err != nil {
			return nil, err
		}

		artifacts = append(artifacts, apt.Artifact{
			Name:         deb.Name,
			Version:      deb.Version,
			Architecture: deb.Architecture,
			Filename:     name,
			Size:         size,
			SHA256:       sum,
			LocalPath:    full,
		})
	}

	if len(artifacts) == 0 {
		return nil, errors.NewValidationError("artifact-dir", dir, "artifact directory contains no .deb files")
	}

	slices.SortFunc(artifacts, func(a, b apt.Artifact) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	return artifacts, nil
}

// fileSHA256 hashes a file and reports its size.
func fileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.WrapIO("read", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
