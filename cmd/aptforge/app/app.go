// Package app provides the application context and dependency management
// for the aptforge CLI. It centralizes configuration, logging, and engine
// construction so commands only declare their flags and run logic.
package app

import (
	"github.com/rs/zerolog"

	"github.com/feelpp/aptforge"
	"github.com/feelpp/aptforge/cmd/application"
)

// App represents the aptforge application with all its dependencies.
// It provides a centralized place for configuration, logging, and
// publish engine construction, following the dependency injection pattern.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
// The app is initialized with default configuration that can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	// Load configuration
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	// Initialize logger
	logger := NewLogger(config)
	app.logger = &logger

	// Apply any custom options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Publisher returns a publish engine built from the configured defaults.
// Caller options are applied after the configuration-derived ones, so
// command flags override anything the environment or config file set.
func (a *App) Publisher(opts ...aptforge.Option) (aptforge.Publisher, error) {
	combined := a.buildPublisherOptions()
	combined = append(combined, opts...)
	return aptforge.New(combined...)
}

// Defaults returns the configured default values for command flags.
func (a *App) Defaults() application.Defaults {
	return application.Defaults{
		PagesRepo:    a.config.PagesRepo,
		Branch:       a.config.Branch,
		Distribution: a.config.Distribution,
		SigningKey:   a.config.SigningKey,
		Passphrase:   a.config.Passphrase,
		Token:        a.config.Token,
		AptlyConfig:  a.config.AptlyConfig,
		AptlyRoot:    a.config.AptlyRoot,
		PublishedURL: a.config.PublishedURL,
	}
}

// buildPublisherOptions constructs engine options from the app configuration.
func (a *App) buildPublisherOptions() []aptforge.Option {
	opts := []aptforge.Option{
		aptforge.WithRepository(a.config.PagesRepo),
		aptforge.WithBranch(a.config.Branch),
	}

	if a.config.Token != "" {
		opts = append(opts, aptforge.WithToken(a.config.Token))
	}
	if a.config.AptlyConfig != "" {
		opts = append(opts, aptforge.WithAptlyConfig(a.config.AptlyConfig))
	}
	if a.config.AptlyRoot != "" {
		opts = append(opts, aptforge.WithAptlyRoot(a.config.AptlyRoot))
	}
	if a.config.PublishedURL != "" {
		opts = append(opts, aptforge.WithPublishedBaseURL(a.config.PublishedURL))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// Ensure App satisfies the interface commands depend on.
var _ application.Application = (*App)(nil)
