package retention

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/feelpp/aptforge/pkg/logging"
)

// CleanupFailure records one deletion that did not succeed.
type CleanupFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// CleanupResult reports what a cleanup run deleted, or with DryRun set,
// what it would have deleted.
type CleanupResult struct {
	DryRun       bool             `json:"dry_run"`
	DeletedCount int              `json:"deleted_count"`
	FailedCount  int              `json:"failed_count"`
	Deleted      []string         `json:"deleted"`
	Failed       []CleanupFailure `json:"failed"`
}

// Cleanup removes the candidate packages from the pool. With dryRun set
// nothing is touched and the result lists what would go. A failed deletion
// is recorded and the run continues; after each successful one, empty
// parent directories are pruned up to the checkout root.
func (c *Cleaner) Cleanup(ctx context.Context, cands Candidates, dryRun bool) CleanupResult {
	log := logging.FromContext(ctx)
	result := CleanupResult{
		DryRun:  dryRun,
		Deleted: []string{},
		Failed:  []CleanupFailure{},
	}

	for _, pkg := range cands.All() {
		if dryRun {
			log.Info().Str("path", pkg.Path).Msg("Would delete")
			result.Deleted = append(result.Deleted, pkg.Path)
			continue
		}

		if err := os.Remove(pkg.Path); err != nil {
			log.Error().Err(err).Str("path", pkg.Path).Msg("Failed to delete package")
			result.Failed = append(result.Failed, CleanupFailure{Path: pkg.Path, Error: err.Error()})
			continue
		}
		log.Info().Str("path", pkg.Path).Msg("Deleted package")
		result.Deleted = append(result.Deleted, pkg.Path)
		c.pruneEmptyParents(ctx, filepath.Dir(pkg.Path))
	}

	result.DeletedCount = len(result.Deleted)
	result.FailedCount = len(result.Failed)
	return result
}

// pruneEmptyParents removes empty directories above a deleted file, walking
// up until the checkout root or the first non-empty directory.
func (c *Cleaner) pruneEmptyParents(ctx context.Context, dir string) {
	root := filepath.Clean(c.root)
	for {
		dir = filepath.Clean(dir)
		if dir == root || !strings.HasPrefix(dir, root+string(filepath.Separator)) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		logging.FromContext(ctx).Debug().Str("dir", dir).Msg("Removed empty pool directory")
		dir = filepath.Dir(dir)
	}
}
