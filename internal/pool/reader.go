package pool

import (
	"os"
	"path/filepath"

	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
)

// ReadRelease loads the manifest of a publication from the tree below root.
//
// The unsigned Release file is authoritative. A tree carrying only the
// clearsigned InRelease has lost part of its metadata and is reported as
// corrupt rather than read: the two are written together, and trusting the
// survivor risks republishing from a half-destroyed state. A tree with
// neither file is a fresh publication and returns a not found error.
func ReadRelease(root string, pub apt.Publication) (*apt.Release, error) {
	releasePath := filepath.Join(root, filepath.FromSlash(pub.ReleasePath()))
	inReleasePath := filepath.Join(root, filepath.FromSlash(pub.InReleasePath()))

	data, err := os.ReadFile(releasePath)
	switch {
	case err == nil:
		rel, parseErr := apt.ParseRelease(data)
		if parseErr != nil {
			return nil, errors.NewMetadataError(pub.Channel, pub.Distribution,
				pub.ReleasePath(), "manifest is unreadable", parseErr)
		}
		if !rel.Has("Components") {
			return nil, errors.NewMetadataError(pub.Channel, pub.Distribution,
				pub.ReleasePath(), "manifest lists no components", nil)
		}
		return rel, nil
	case os.IsNotExist(err):
		// Check for an orphaned signed manifest below.
	default:
		return nil, errors.WrapIO("read", releasePath, err)
	}

	if _, statErr := os.Stat(inReleasePath); statErr == nil {
		return nil, errors.NewMetadataError(pub.Channel, pub.Distribution,
			pub.InReleasePath(), "signed manifest present but unsigned Release missing", nil)
	}
	return nil, errors.NewNotFoundError("publication", pub.String())
}

// ReadInRelease loads the clearsigned manifest when present. Callers use it
// to compare the signed and unsigned views of a publication; absence is a
// not found error, not corruption.
func ReadInRelease(root string, pub apt.Publication) (*apt.Release, error) {
	path := filepath.Join(root, filepath.FromSlash(pub.InReleasePath()))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("signed manifest", pub.String())
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	rel, parseErr := apt.ParseRelease(data)
	if parseErr != nil {
		return nil, errors.NewMetadataError(pub.Channel, pub.Distribution,
			pub.InReleasePath(), "signed manifest is unreadable", parseErr)
	}
	return rel, nil
}

// HasPublication reports whether the tree carries any manifest for pub.
func HasPublication(root string, pub apt.Publication) bool {
	for _, name := range []string{constants.ReleaseFile, constants.InReleaseFile} {
		path := filepath.Join(root, filepath.FromSlash(pub.DistsPath()), name)
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}
