// Package pages manages the hosting checkout: the git worktree that carries
// the published repository between runs. Publications are static files on a
// branch (GitHub Pages serves the gh-pages branch), so the checkout is both
// the source of current state and the destination of the next one.
//
// Pushes are fast-forward only. If the remote moved while a run was
// working, the push is rejected and reported as retryable instead of
// overwriting someone else's publication.
package pages

import (
	"context"
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	extgogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// ErrNoChanges reports a commit attempt with a clean worktree.
var ErrNoChanges = errors.New("no changes to commit")

// Author identifies the committer recorded on publish commits.
type Author struct {
	Name  string
	Email string
}

// Options configure a checkout.
type Options struct {
	// URL of the hosting repository.
	URL string

	// Branch holding the published files.
	Branch string

	// Token authenticates https pushes when set. Local and ssh remotes
	// work without it.
	Token string

	// Author for publish commits. Zero values fall back to defaults.
	Author Author
}

// Checkout is a cloned hosting branch rooted at a local path.
type Checkout struct {
	url    string
	branch string
	path   string
	author Author
	auth   transport.AuthMethod
	repo   *extgogit.Repository

	// fresh is set when the remote branch did not exist and the checkout
	// was initialized empty. The first publish creates the branch.
	fresh bool
}

// Clone checks out the hosting branch into path. A missing branch or a
// completely empty remote yields a fresh checkout that the first push will
// create, matching how a first publication bootstraps its hosting repo.
func Clone(ctx context.Context, path string, opts Options) (*Checkout, error) {
	c := &Checkout{
		url:    opts.URL,
		branch: opts.Branch,
		path:   path,
		author: opts.Author,
	}
	if c.branch == "" {
		c.branch = constants.DefaultBranch
	}
	if c.author.Name == "" {
		c.author.Name = constants.DefaultCommitName
	}
	if c.author.Email == "" {
		c.author.Email = constants.DefaultCommitEmail
	}
	if opts.Token != "" {
		c.auth = &githttp.BasicAuth{Username: "git", Password: opts.Token}
	}

	log := logging.FromContext(ctx)
	log.Info().
		Str("url", c.url).
		Str("branch", c.branch).
		Msg("Cloning hosting repository")

	storer, worktree, err := diskStorage(path)
	if err != nil {
		return nil, err
	}

	repo, err := extgogit.CloneContext(ctx, storer, worktree, &extgogit.CloneOptions{
		URL:           c.url,
		Auth:          c.auth,
		RemoteName:    constants.DefaultRemote,
		ReferenceName: plumbing.NewBranchReferenceName(c.branch),
		SingleBranch:  true,
		Tags:          extgogit.NoTags,
	})
	switch {
	case err == nil:
		c.repo = repo
		return c, nil
	case stderrors.Is(err, transport.ErrEmptyRemoteRepository):
		log.Info().Msg("Remote repository is empty, starting fresh checkout")
	case isBranchNotFound(err, c.branch):
		log.Info().Str("branch", c.branch).Msg("Branch not found on remote, starting fresh checkout")
	default:
		return nil, errors.WrapIO("clone", c.url, err)
	}

	// The failed clone may have left partial state behind.
	if err := os.RemoveAll(path); err != nil {
		return nil, errors.WrapIO("clean", path, err)
	}
	if err := os.MkdirAll(path, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", path, err)
	}
	if err := c.initFresh(path); err != nil {
		return nil, err
	}
	return c, nil
}

// initFresh initializes an empty repository wired to the remote with HEAD
// pointing at the hosting branch, so the first commit lands there.
func (c *Checkout) initFresh(path string) error {
	storer, worktree, err := diskStorage(path)
	if err != nil {
		return err
	}
	repo, err := extgogit.Init(storer, worktree)
	if err != nil {
		return errors.WrapIO("init", path, err)
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: constants.DefaultRemote,
		URLs: []string{c.url},
	}); err != nil {
		return errors.WrapIO("init", path, err)
	}

	branchRef := plumbing.NewBranchReferenceName(c.branch)
	if err := repo.CreateBranch(&config.Branch{
		Name:   c.branch,
		Remote: constants.DefaultRemote,
		Merge:  branchRef,
	}); err != nil {
		return errors.WrapIO("init", path, err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)); err != nil {
		return errors.WrapIO("init", path, err)
	}

	c.repo = repo
	c.fresh = true
	return nil
}

// Path returns the checkout's working directory.
func (c *Checkout) Path() string {
	return c.path
}

// Fresh reports whether the hosting branch has yet to be created remotely.
func (c *Checkout) Fresh() bool {
	return c.fresh
}

// Head returns the current commit hash, or "" for a fresh checkout.
func (c *Checkout) Head() string {
	head, err := c.repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}

// CommitAll stages every change in the worktree, deletions included, and
// commits them. A clean worktree returns ErrNoChanges with the current
// head hash.
func (c *Checkout) CommitAll(ctx context.Context, message string) (string, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return "", errors.WrapIO("commit", c.path, err)
	}
	status, err := wt.Status()
	if err != nil {
		return "", errors.WrapIO("commit", c.path, err)
	}

	var changed bool
	for file := range status {
		if _, err := wt.Add(file); err != nil {
			return "", errors.WrapIO("stage", file, err)
		}
		changed = true
	}
	if !changed {
		return c.Head(), ErrNoChanges
	}

	commit, err := wt.Commit(message, &extgogit.CommitOptions{
		Author: &object.Signature{
			Name:  c.author.Name,
			Email: c.author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", errors.WrapIO("commit", c.path, err)
	}

	logging.FromContext(ctx).Info().
		Str("commit", commit.String()).
		Str("branch", c.branch).
		Msg("Committed publication")
	return commit.String(), nil
}

// Push sends the hosting branch to the remote, fast-forward only. A remote
// that advanced since Clone rejects the push; that comes back as a
// PushRejectedError so callers can retry from a fresh checkout. An
// already up to date remote is success.
func (c *Checkout) Push(ctx context.Context) error {
	refSpec := config.RefSpec("refs/heads/" + c.branch + ":refs/heads/" + c.branch)
	err := c.repo.PushContext(ctx, &extgogit.PushOptions{
		RemoteName: constants.DefaultRemote,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       c.auth,
	})
	switch {
	case err == nil, stderrors.Is(err, extgogit.NoErrAlreadyUpToDate):
		return nil
	case isNonFastForward(err):
		return &errors.PushRejectedError{Remote: c.url, Branch: c.branch, Err: err}
	default:
		return errors.WrapIO("push", c.url, err)
	}
}

// diskStorage builds the on-disk storer and worktree filesystem pair for a
// checkout path.
func diskStorage(path string) (*filesystem.Storage, billy.Filesystem, error) {
	wt := osfs.New(path)
	dot, err := wt.Chroot(extgogit.GitDirName)
	if err != nil {
		return nil, nil, errors.WrapIO("open", path, err)
	}
	return filesystem.NewStorage(dot, cache.NewObjectLRUDefault()), wt, nil
}

// isBranchNotFound matches the clone failure for a remote without the
// requested branch.
func isBranchNotFound(err error, branch string) bool {
	if err == nil {
		return false
	}
	ref := plumbing.NewBranchReferenceName(branch).String()
	msg := err.Error()
	return strings.Contains(msg, "couldn't find remote ref") && strings.Contains(msg, ref) ||
		stderrors.Is(err, plumbing.ErrReferenceNotFound)
}

// isNonFastForward matches push rejections caused by the remote having
// moved past our cloned state.
func isNonFastForward(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "non-fast-forward") ||
		stderrors.Is(err, extgogit.ErrNonFastForwardUpdate)
}
