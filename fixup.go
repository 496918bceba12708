package aptforge

import (
	"context"
	"os"
	"path/filepath"

	"github.com/feelpp/aptforge/internal/pool"
	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// fixupManifests reconciles the signed and unsigned forms of the freshly
// published manifest. The unsigned Release is authoritative. When signing
// was skipped, a stale or damaged InRelease is rewritten from the Release;
// when signing was enabled, any disagreement means the signature does not
// cover what the repository serves, which is never repaired locally.
// Returns whether a repair was written.
func (p *publisher) fixupManifests(ctx context.Context, publicDir string, pub apt.Publication, signed bool) (bool, error) {
	release, err := pool.ReadRelease(publicDir, pub)
	if err != nil {
		// The publish step just wrote this manifest.
		return false, err
	}

	inRelease, inErr := pool.ReadInRelease(publicDir, pub)
	switch {
	case errors.IsNotFound(inErr):
		if signed {
			return false, errors.NewSignatureError(pub.Channel, pub.Distribution,
				"signed publication produced no InRelease")
		}
		// Unsigned publications carry the one manifest form.
		return false, nil

	case inErr == nil && release.ComponentsEqual(inRelease) && release.ChecksumsEqual(inRelease):
		return false, nil
	}

	if signed {
		detail := "signed and unsigned manifest contents disagree"
		if inErr != nil {
			detail = "InRelease is unreadable: " + inErr.Error()
		}
		return false, errors.NewSignatureError(pub.Channel, pub.Distribution, detail)
	}

	logging.FromContext(ctx).Warn().Msg("InRelease disagrees with Release, rewriting from the unsigned form")

	data, err := os.ReadFile(filepath.Join(publicDir, filepath.FromSlash(pub.ReleasePath())))
	if err != nil {
		return false, errors.WrapIO("read", pub.ReleasePath(), err)
	}
	target := filepath.Join(publicDir, filepath.FromSlash(pub.InReleasePath()))
	if err := os.WriteFile(target, data, constants.FilePermissions); err != nil {
		return false, errors.WrapIO("write", pub.InReleasePath(), err)
	}
	return true, nil
}
