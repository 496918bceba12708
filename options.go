package aptforge

import (
	"context"

	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
)

// Option is a function that configures a Publisher instance
type Option func(*config) error

// Runner abstracts the aptly subprocess so tests can substitute a fake.
// The production runner is constructed from the generated aptly
// configuration; see internal/aptly.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// config holds the engine-level settings shared by every publish run.
type config struct {
	repoURL     string
	branch      string
	token       string
	authorName  string
	authorEmail string

	workDir  string
	keepWork bool

	aptlyConfig string
	aptlyRoot   string
	aptlyBinary string

	baseURL string

	runner Runner
}

func defaultConfig() *config {
	return &config{
		repoURL:     constants.DefaultPagesRepo,
		branch:      constants.DefaultBranch,
		authorName:  constants.DefaultCommitName,
		authorEmail: constants.DefaultCommitEmail,
	}
}

// WithRepository sets the hosting repository URL the published tree lives in.
func WithRepository(url string) Option {
	return func(c *config) error {
		if url == "" {
			return errors.NewValidationError("repository", url, "repository URL cannot be empty")
		}
		c.repoURL = url
		return nil
	}
}

// WithBranch sets the hosting branch. Defaults to gh-pages.
func WithBranch(branch string) Option {
	return func(c *config) error {
		if branch == "" {
			return errors.NewValidationError("branch", branch, "branch cannot be empty")
		}
		c.branch = branch
		return nil
	}
}

// WithToken sets the token used to authenticate clone and push against the
// hosting repository. Without it the repository must accept anonymous
// access, which only works for local test remotes.
func WithToken(token string) Option {
	return func(c *config) error {
		c.token = token
		return nil
	}
}

// WithAuthor sets the commit author identity for publish commits.
func WithAuthor(name, email string) Option {
	return func(c *config) error {
		if name != "" {
			c.authorName = name
		}
		if email != "" {
			c.authorEmail = email
		}
		return nil
	}
}

// WithWorkDir pins the scratch workspace instead of a fresh temporary
// directory per run. The directory is created if missing and never removed.
func WithWorkDir(dir string) Option {
	return func(c *config) error {
		c.workDir = dir
		return nil
	}
}

// WithKeepWorkspace retains the temporary workspace after the run, for
// debugging a failed publish.
func WithKeepWorkspace(keep bool) Option {
	return func(c *config) error {
		c.keepWork = keep
		return nil
	}
}

// WithAptlyConfig reuses an existing aptly configuration file. Its settings
// are carried into the generated configuration; the root directory is still
// forced to an absolute path.
func WithAptlyConfig(path string) Option {
	return func(c *config) error {
		c.aptlyConfig = path
		return nil
	}
}

// WithAptlyRoot overrides the aptly root directory. Useful for keeping the
// package database and pool on a large volume.
func WithAptlyRoot(dir string) Option {
	return func(c *config) error {
		c.aptlyRoot = dir
		return nil
	}
}

// WithAptlyBinary overrides the aptly binary name or path.
func WithAptlyBinary(binary string) Option {
	return func(c *config) error {
		c.aptlyBinary = binary
		return nil
	}
}

// WithPublishedBaseURL sets the public base URL of the published site,
// enabling recovery of pool artifacts that are missing from the hosting
// checkout but still served.
func WithPublishedBaseURL(url string) Option {
	return func(c *config) error {
		c.baseURL = url
		return nil
	}
}

// WithRunner substitutes the aptly subprocess runner. Intended for tests.
func WithRunner(r Runner) Option {
	return func(c *config) error {
		c.runner = r
		return nil
	}
}

// options applies the given options to the configuration.
func (p *publisher) options(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(p.config); err != nil {
			return err
		}
	}
	return nil
}
