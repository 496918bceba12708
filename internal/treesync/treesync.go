// Package treesync mirrors directory trees between the hosting checkout and
// the aptly staging area. It stands in for the rsync -a [--delete] calls of
// shell pipelines: copy everything, keep modes and times, and optionally
// remove destination entries the source no longer has.
package treesync

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"

	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
)

// Options control one Mirror run.
type Options struct {
	// Delete removes destination entries that are absent from the source.
	Delete bool

	// Preserve lists top-level names that are neither copied from the
	// source nor deleted from the destination. The hosting checkout's
	// .git directory rides through syncs this way.
	Preserve []string
}

// Mirror copies the tree below src into dst. Regular files are copied when
// size or modification time differ, symlinks are recreated, and modes and
// times are carried over. With Delete set, destination entries missing from
// the source are removed afterwards.
func Mirror(ctx context.Context, src, dst string, opts Options) error {
	if err := os.MkdirAll(dst, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dst, err)
	}

	preserved := make(map[string]bool, len(opts.Preserve))
	for _, name := range opts.Preserve {
		preserved[name] = true
	}

	err := godirwalk.Walk(src, &godirwalk.Options{
		Callback: func(pathname string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(src, pathname)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			if preserved[topLevel(rel)] {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}

			target := filepath.Join(dst, rel)
			switch {
			case de.IsSymlink():
				return copySymlink(pathname, target)
			case de.IsDir():
				return os.MkdirAll(target, constants.DirPermissions)
			default:
				return copyFile(pathname, target)
			}
		},
	})
	if err != nil {
		return errors.WrapIO("mirror", src, err)
	}

	if !opts.Delete {
		return nil
	}
	return prune(ctx, src, dst, preserved)
}

// prune removes destination entries that no longer exist in the source.
func prune(ctx context.Context, src, dst string, preserved map[string]bool) error {
	err := godirwalk.Walk(dst, &godirwalk.Options{
		Callback: func(pathname string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(dst, pathname)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			if preserved[topLevel(rel)] {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}

			if _, err := os.Lstat(filepath.Join(src, rel)); os.IsNotExist(err) {
				if rmErr := os.RemoveAll(pathname); rmErr != nil {
					return rmErr
				}
				if de.IsDir() {
					return godirwalk.SkipThis
				}
			}
			return nil
		},
	})
	if err != nil {
		return errors.WrapIO("prune", dst, err)
	}
	return nil
}

// topLevel returns the first path element of a relative path.
func topLevel(rel string) string {
	for i := 0; i < len(rel); i++ {
		if os.IsPathSeparator(rel[i]) {
			return rel[:i]
		}
	}
	return rel
}

// copyFile copies src to dst when size or modification time differ, carrying
// over the source's mode and times.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if existing, err := os.Stat(dst); err == nil {
		if existing.Size() == info.Size() && existing.ModTime().Equal(info.ModTime()) {
			return nil
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// copySymlink recreates the source symlink at dst, replacing whatever is
// there.
func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	return os.Symlink(target, dst)
}
