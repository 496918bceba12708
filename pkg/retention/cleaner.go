// Package retention removes published packages that have outlived their
// usefulness. It scans the pool trees of a hosting checkout, applies a
// Policy to decide which packages are expendable, and deletes them in
// place. Cleanup only touches the pool; the next publish run rebuilds the
// dists metadata so the indexes stop referring to removed files.
package retention

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karrick/godirwalk"

	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Package is one .deb file found in a channel's pool tree.
type Package struct {
	Name         string
	Version      string
	Architecture string
	Filename     string
	Path         string
	Channel      string
	Component    string
	Size         int64
	AgeDays      int
	Prerelease   bool
}

// Cleaner applies a retention policy to the pool trees under one hosting
// checkout root.
type Cleaner struct {
	root   string
	policy Policy
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithPolicy replaces the default retention policy.
func WithPolicy(policy Policy) Option {
	return func(c *Cleaner) {
		c.policy = policy
	}
}

// NewCleaner returns a Cleaner over the checkout rooted at root.
func NewCleaner(root string, opts ...Option) *Cleaner {
	c := &Cleaner{
		root:   root,
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the retention policy the cleaner applies.
func (c *Cleaner) Policy() Policy {
	return c.policy
}

// Scan inventories every package in the given channels' pool trees. An
// empty channel list scans all publication channels. Pool files that do not
// parse as package filenames are logged and skipped; a channel without a
// pool directory is simply empty.
func (c *Cleaner) Scan(ctx context.Context, channels []string) ([]Package, error) {
	if len(channels) == 0 {
		channels = constants.Channels
	}
	log := logging.FromContext(ctx)

	var packages []Package
	for _, channel := range channels {
		poolDir := filepath.Join(c.root, channel, constants.PoolDir)
		if _, err := os.Stat(poolDir); os.IsNotExist(err) {
			log.Debug().Str("channel", channel).Msg("Channel has no pool directory")
			continue
		} else if err != nil {
			return nil, errors.WrapIO("scan", poolDir, err)
		}

		err := godirwalk.Walk(poolDir, &godirwalk.Options{
			Callback: func(pathname string, de *godirwalk.Dirent) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if de.IsDir() || !strings.HasSuffix(pathname, ".deb") {
					return nil
				}

				base := filepath.Base(pathname)
				deb, err := apt.ParseDebFilename(base)
				if err != nil {
					log.Warn().Str("file", base).Msg("Skipping pool file with unparseable name")
					return nil
				}

				rel, err := filepath.Rel(poolDir, pathname)
				if err != nil {
					return err
				}
				info, err := os.Stat(pathname)
				if err != nil {
					return err
				}

				packages = append(packages, Package{
					Name:         deb.Name,
					Version:      deb.Version,
					Architecture: deb.Architecture,
					Filename:     base,
					Path:         pathname,
					Channel:      channel,
					Component:    poolComponent(rel),
					Size:         info.Size(),
					AgeDays:      int(time.Since(info.ModTime()).Hours() / 24),
					Prerelease:   apt.IsPrerelease(deb.Version),
				})
				return nil
			},
		})
		if err != nil {
			return nil, errors.WrapIO("scan", poolDir, err)
		}
	}

	log.Debug().
		Int("packages", len(packages)).
		Int("channels", len(channels)).
		Msg("Scanned pool trees")
	return packages, nil
}

// poolComponent extracts the component from a path relative to a pool
// directory. The pool layout is <component>/<letter>/<package>/<file>.
func poolComponent(rel string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return rel
}
