// Package application provides the application interface for aptforge commands.
//
// The Application interface defines the contract between the application layer
// and command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	import (
//	    "github.com/feelpp/aptforge/cmd/application"
//	)
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            engine, err := app.Publisher()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use engine
//	            return nil
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    PublisherFunc: func(opts ...aptforge.Option) (aptforge.Publisher, error) {
//	        return testPublisher, nil
//	    },
//	    LoggerFunc: func() *zerolog.Logger {
//	        logger := zerolog.Nop()
//	        return &logger
//	    },
//	}
//	cmd := NewCommand(mock)
//	// ... test command behavior
package application

import (
	"github.com/rs/zerolog"

	"github.com/feelpp/aptforge"
)

// Defaults carries the configured default values commands seed their flags
// with. Each field already reflects the full configuration precedence: flag
// defaults here lose to explicit flags but win over nothing.
type Defaults struct {
	// PagesRepo is the hosting repository URL.
	PagesRepo string

	// Branch is the hosting branch.
	Branch string

	// Distribution is the distribution codename to publish.
	Distribution string

	// SigningKey is the GPG key ID used with --sign.
	SigningKey string

	// Passphrase is the GPG passphrase for SigningKey.
	Passphrase string

	// Token authenticates pushes to the hosting repository.
	Token string

	// AptlyConfig is an existing aptly config file to reuse.
	AptlyConfig string

	// AptlyRoot overrides the aptly root directory.
	AptlyRoot string

	// PublishedURL is the public base URL of the hosted repository.
	PublishedURL string
}

// Application provides the application interface that commands need.
// The App struct from cmd/aptforge/app implements this interface, providing
// dependency injection for commands while keeping them testable.
//
// Commands should accept this interface rather than the concrete App type,
// allowing for easier testing with mock implementations.
type Application interface {
	// Publisher returns a publish engine built from the configured defaults.
	// Options given here are applied after the configuration-derived ones,
	// so callers can override any of them.
	Publisher(opts ...aptforge.Option) (aptforge.Publisher, error)

	// Logger returns the configured logger instance.
	// Commands should use this for all logging operations.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	// Empty means the command picks its own default rendering.
	OutputFormat() string

	// Defaults returns the configured default values for command flags.
	Defaults() Defaults

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
