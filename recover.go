package aptforge

import (
	"context"
	"os"
	"path/filepath"

	"github.com/feelpp/aptforge/internal/treesync"
	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// gitDirName is the checkout metadata directory that must never travel
// through the aptly staging area.
const gitDirName = ".git"

// recoverState rebuilds local aptly state from the hosting checkout before
// any other step runs: the published tree is mirrored into aptly's public
// directory, and when a prior publication exists there, the package
// database is recovered so aptly agrees with the tree it is about to
// replace. Idempotent; the remote is never touched.
func (p *publisher) recoverState(ctx context.Context, ws *workspace, pub apt.Publication) error {
	logger := logging.FromContext(ctx)

	err := treesync.Mirror(ctx, ws.checkout.Path(), ws.setup.PublicDir, treesync.Options{
		Preserve: []string{gitDirName},
	})
	if err != nil {
		return errors.NewRecoveryError("seeding public tree", err)
	}

	release := filepath.Join(ws.setup.PublicDir, filepath.FromSlash(pub.ReleasePath()))
	if _, err := os.Stat(release); err != nil {
		logger.Debug().Msg("No published manifest, skipping database recovery")
		return nil
	}

	logger.Info().Msg("Recovering package database from published tree")
	if err := ws.client.DBRecover(ctx); err != nil {
		return errors.NewRecoveryError("database recovery", err)
	}
	return nil
}
