// Package aptforge publishes Debian packages to an APT repository hosted on
// a git branch. Each publish run reconstructs every already-published
// component from the repository's own metadata, merges in the new artifacts,
// and republishes the full component union, so a component can never vanish
// because a later run did not know about it.
//
// The engine is deliberately sequential. The hosting branch is the only
// shared state, and its fast-forward-only push is what serializes
// concurrent publishers: a run that loses the race fails with a retryable
// error and must be repeated from the beginning.
package aptforge

import (
	"context"

	"github.com/feelpp/aptforge/internal/aptly"
	"github.com/feelpp/aptforge/pkg/apt"
	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
)

// Publisher runs publish operations against one hosting repository.
type Publisher interface {
	// Publish runs one full publication of the request's component and
	// pushes the result to the hosting branch.
	Publish(ctx context.Context, req Request) (*Result, error)

	// Plan computes the reconciliation decision for the request without
	// staging or publishing anything.
	Plan(ctx context.Context, req Request) (*Plan, error)
}

// Request describes one publish invocation.
type Request struct {
	// Component is the raw component name; the engine normalizes it.
	Component string

	// Channel is the publication prefix (stable, testing, pr-1234...).
	// Defaults to stable.
	Channel string

	// Distribution is the target distribution codename (noble, bookworm...).
	Distribution string

	// ArtifactDir is a directory of .deb files to publish. Empty means a
	// bootstrap publish: the component is created or republished without
	// new artifacts.
	ArtifactDir string

	// Overwrite allows an incoming artifact to replace a published one
	// with the same filename but different content.
	Overwrite bool

	Sign Signing
}

// Signing configures Release signing, passed through to the repository tool.
type Signing struct {
	Enabled    bool
	KeyID      string
	Passphrase string
}

// publisher is the internal implementation of the Publisher interface
type publisher struct {
	config *config
}

// New creates a new Publisher with the given options
func New(opts ...Option) (Publisher, error) {
	p := &publisher{config: defaultConfig()}
	if err := p.options(opts...); err != nil {
		return nil, err
	}
	return p, nil
}

// resolveRequest normalizes the request's names and derives the target
// publication. Validation failures here are input errors, reported before
// any state is read or touched.
func (p *publisher) resolveRequest(req *Request) (string, apt.Publication, error) {
	component, err := apt.NormalizeComponent(req.Component)
	if err != nil {
		return "", apt.Publication{}, err
	}

	channel := req.Channel
	if channel == "" {
		channel = constants.DefaultChannel
	}
	if err := apt.ValidateChannel(channel); err != nil {
		return "", apt.Publication{}, err
	}

	if req.Distribution == "" {
		return "", apt.Publication{}, errors.NewValidationError("distribution", "", "distribution is required")
	}
	if !apt.ValidToken(req.Distribution) {
		return "", apt.Publication{}, errors.NewValidationError("distribution", req.Distribution,
			"distribution must be a lowercase alphanumeric token")
	}

	return component, apt.Publication{Channel: channel, Distribution: req.Distribution}, nil
}

// signConfig maps the request's signing settings onto the aptly flags.
func signConfig(s Signing) aptly.SignConfig {
	return aptly.SignConfig{
		Enabled:    s.Enabled,
		KeyID:      s.KeyID,
		Passphrase: s.Passphrase,
	}
}
