package aptly

import (
	"context"
	"strings"

	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Client issues typed aptly commands for one publishing run.
type Client struct {
	runner Runner
}

// NewClient returns a Client that executes commands through the runner.
func NewClient(runner Runner) *Client {
	return &Client{runner: runner}
}

// SignConfig carries the signing flags appended to publish commands.
// Disabled signing publishes with -skip-signing, which is what static
// hosting without a key expects.
type SignConfig struct {
	Enabled    bool
	KeyID      string
	Passphrase string
}

// Flags renders the aptly publish flags for this configuration.
func (s SignConfig) Flags() []string {
	if !s.Enabled {
		return []string{"-skip-signing"}
	}
	flags := []string{"-gpg-key=" + s.KeyID}
	if s.Passphrase != "" {
		flags = append(flags, "-passphrase="+s.Passphrase)
	}
	return flags
}

// PublishRequest describes one multi-component publish snapshot call.
// Components and Snapshots are parallel: Snapshots[i] becomes the content
// of Components[i].
type PublishRequest struct {
	Prefix         string
	Distribution   string
	Components     []string
	Snapshots      []string
	Sign           SignConfig
	ForceOverwrite bool
}

// Version returns the aptly version string, verifying the binary runs.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimPrefix(out, "aptly version:")), nil
}

// DBRecover rebuilds the aptly database from the files present under the
// root directory. Run after seeding the public tree from an existing
// publication so aptly knows what is already published.
func (c *Client) DBRecover(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "db", "recover")
	return err
}

// CreateRepo creates a local repository configured for the component and
// distribution. An already existing repository is not an error: reruns
// inside one root reuse it.
func (c *Client) CreateRepo(ctx context.Context, name, component, distribution string) error {
	_, err := c.runner.Run(ctx, "repo", "create",
		"-component="+component,
		"-distribution="+distribution,
		name)
	if err != nil && strings.Contains(err.Error(), "already exists") {
		logging.FromContext(ctx).Debug().
			Str("repo", name).
			Msg("Local repository already exists, reusing")
		return nil
	}
	return err
}

// AddPackages imports the given .deb files into a local repository.
func (c *Client) AddPackages(ctx context.Context, repo string, debs []string) error {
	if len(debs) == 0 {
		return nil
	}
	args := append([]string{"repo", "add", repo}, debs...)
	_, err := c.runner.Run(ctx, args...)
	return err
}

// CreateSnapshot freezes a local repository into an immutable snapshot.
func (c *Client) CreateSnapshot(ctx context.Context, snapshot, repo string) error {
	_, err := c.runner.Run(ctx, "snapshot", "create", snapshot, "from", "repo", repo)
	return err
}

// PublicationExists reports whether aptly already tracks a publication for
// the distribution under the prefix.
func (c *Client) PublicationExists(ctx context.Context, distribution, prefix string) bool {
	_, err := c.runner.Run(ctx, "publish", "show", distribution, prefix)
	return err == nil
}

// DropPublication removes a tracked publication. The pool and local
// repositories are untouched; only the dists metadata goes away.
func (c *Client) DropPublication(ctx context.Context, distribution, prefix string) error {
	_, err := c.runner.Run(ctx, "publish", "drop", distribution, prefix)
	return err
}

// PublishSnapshots publishes all components in one call so the resulting
// Release lists every component of the distribution.
func (c *Client) PublishSnapshots(ctx context.Context, req PublishRequest) error {
	if len(req.Components) == 0 {
		return errors.NewValidationError("components", req.Components, "publish needs at least one component")
	}
	if len(req.Components) != len(req.Snapshots) {
		return errors.NewValidationError("snapshots", req.Snapshots, "component and snapshot lists differ in length")
	}

	args := []string{
		"publish", "snapshot",
		"-distribution=" + req.Distribution,
		"-component=" + strings.Join(req.Components, ","),
	}
	if req.ForceOverwrite {
		args = append(args, "-force-overwrite")
	}
	args = append(args, req.Sign.Flags()...)
	args = append(args, req.Snapshots...)
	args = append(args, req.Prefix)

	_, err := c.runner.Run(ctx, args...)
	return err
}
