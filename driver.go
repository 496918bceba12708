package aptforge

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/feelpp/aptforge/internal/aptly"
	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// publishStaged replaces the live publication with the staged snapshots.
// Everything destructive is deferred to this step: the old publication is
// dropped only after every snapshot exists, and the new one is created in a
// single call. A failure from the drop onward is a publication window
// failure; the pool is intact and a retry rebuilds the publication.
func (p *publisher) publishStaged(ctx context.Context, client *aptly.Client, publicDir string, pub apt.Publication, results []staged, sign aptly.SignConfig) error {
	logger := logging.FromContext(ctx)

	components := make([]string, 0, len(results))
	snapshots := make([]string, 0, len(results))
	for _, s := range results {
		components = append(components, s.component)
		snapshots = append(snapshots, s.snapshot)
	}

	if err := p.dropLive(ctx, client, publicDir, pub); err != nil {
		return err
	}

	err := client.PublishSnapshots(ctx, aptly.PublishRequest{
		Prefix:         pub.Channel,
		Distribution:   pub.Distribution,
		Components:     components,
		Snapshots:      snapshots,
		Sign:           sign,
		ForceOverwrite: true,
	})
	if err != nil {
		return errors.NewWindowError(pub.Channel, pub.Distribution, err)
	}

	logger.Info().
		Strs("components", components).
		Msg("Publication recreated")
	return nil
}

// dropLive removes the existing publication. The database knows the
// publication only when it was created by this database, which a fresh
// workspace's never was; the recovered database cannot re-register old
// publishes, so the fallback clears the distribution's metadata tree
// directly and leaves the pool for the publish step to reconcile.
func (p *publisher) dropLive(ctx context.Context, client *aptly.Client, publicDir string, pub apt.Publication) error {
	logger := logging.FromContext(ctx)
	dists := filepath.Join(publicDir, filepath.FromSlash(pub.DistsPath()))

	if client.PublicationExists(ctx, pub.Distribution, pub.Channel) {
		logger.Info().Msg("Dropping live publication")
		if err := client.DropPublication(ctx, pub.Distribution, pub.Channel); err == nil {
			return nil
		} else if rmErr := os.RemoveAll(dists); rmErr != nil {
			return errors.NewWindowError(pub.Channel, pub.Distribution, stderrors.Join(err, rmErr))
		}
		return nil
	}

	if _, err := os.Lstat(dists); err != nil {
		// Nothing published yet.
		return nil
	}

	logger.Info().Msg("Publication tree exists without a database record, clearing its metadata")
	if err := os.RemoveAll(dists); err != nil {
		return errors.NewWindowError(pub.Channel, pub.Distribution, err)
	}
	return nil
}
