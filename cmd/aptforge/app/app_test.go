package app

import (
	"testing"

	"github.com/rs/zerolog"
)

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_WithOptions tests the functional options pattern.
func TestApp_WithOptions(t *testing.T) {
	customConfig := &Config{
		Verbose:   true,
		Format:    "json",
		PagesRepo: "https://github.com/example/apt.git",
	}
	customLogger := zerolog.Nop()

	app, err := New("1.0.0", "test", "2024-01-01", "test",
		WithConfig(customConfig),
		WithLogger(&customLogger),
	)
	if err != nil {
		t.Fatalf("New() with options failed: %v", err)
	}

	if app.Config() != customConfig {
		t.Error("WithConfig() option not applied")
	}
	if app.Logger() != &customLogger {
		t.Error("WithLogger() option not applied")
	}
	if app.OutputFormat() != "json" {
		t.Errorf("OutputFormat() = %s, want json", app.OutputFormat())
	}
}

// TestApp_Defaults verifies the config to Defaults mapping commands rely on.
func TestApp_Defaults(t *testing.T) {
	config := &Config{
		PagesRepo:    "https://github.com/example/apt.git",
		Branch:       "gh-pages",
		Distribution: "noble",
		SigningKey:   "ABCDEF12",
		Passphrase:   "secret",
		Token:        "ghp_test",
		AptlyConfig:  "/etc/aptly.conf",
		AptlyRoot:    "/var/lib/aptly",
		PublishedURL: "https://example.github.io/apt",
	}
	logger := zerolog.Nop()

	app, err := New("1.0.0", "test", "2024-01-01", "test",
		WithConfig(config),
		WithLogger(&logger),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	defaults := app.Defaults()
	if defaults.PagesRepo != config.PagesRepo {
		t.Errorf("PagesRepo = %s, want %s", defaults.PagesRepo, config.PagesRepo)
	}
	if defaults.Branch != config.Branch {
		t.Errorf("Branch = %s, want %s", defaults.Branch, config.Branch)
	}
	if defaults.Distribution != config.Distribution {
		t.Errorf("Distribution = %s, want %s", defaults.Distribution, config.Distribution)
	}
	if defaults.SigningKey != config.SigningKey {
		t.Errorf("SigningKey = %s, want %s", defaults.SigningKey, config.SigningKey)
	}
	if defaults.Passphrase != config.Passphrase {
		t.Errorf("Passphrase = %s, want %s", defaults.Passphrase, config.Passphrase)
	}
	if defaults.Token != config.Token {
		t.Errorf("Token = %s, want %s", defaults.Token, config.Token)
	}
	if defaults.AptlyConfig != config.AptlyConfig {
		t.Errorf("AptlyConfig = %s, want %s", defaults.AptlyConfig, config.AptlyConfig)
	}
	if defaults.AptlyRoot != config.AptlyRoot {
		t.Errorf("AptlyRoot = %s, want %s", defaults.AptlyRoot, config.AptlyRoot)
	}
	if defaults.PublishedURL != config.PublishedURL {
		t.Errorf("PublishedURL = %s, want %s", defaults.PublishedURL, config.PublishedURL)
	}
}

// TestApp_BuildPublisherOptions verifies optional settings only produce
// options when set.
func TestApp_BuildPublisherOptions(t *testing.T) {
	logger := zerolog.Nop()

	// Repository and branch are always passed through.
	minimal, err := New("1.0.0", "test", "2024-01-01", "test",
		WithConfig(&Config{
			PagesRepo: "https://github.com/example/apt.git",
			Branch:    "gh-pages",
		}),
		WithLogger(&logger),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if got := len(minimal.buildPublisherOptions()); got != 2 {
		t.Errorf("minimal config produced %d options, want 2", got)
	}

	// Token, aptly config, aptly root, and published URL each add one.
	full, err := New("1.0.0", "test", "2024-01-01", "test",
		WithConfig(&Config{
			PagesRepo:    "https://github.com/example/apt.git",
			Branch:       "gh-pages",
			Token:        "ghp_test",
			AptlyConfig:  "/etc/aptly.conf",
			AptlyRoot:    "/var/lib/aptly",
			PublishedURL: "https://example.github.io/apt",
		}),
		WithLogger(&logger),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if got := len(full.buildPublisherOptions()); got != 6 {
		t.Errorf("full config produced %d options, want 6", got)
	}
}

// TestApp_Publisher verifies the engine can be constructed from app config.
func TestApp_Publisher(t *testing.T) {
	logger := zerolog.Nop()

	app, err := New("1.0.0", "test", "2024-01-01", "test",
		WithConfig(&Config{
			PagesRepo: "https://github.com/example/apt.git",
			Branch:    "gh-pages",
		}),
		WithLogger(&logger),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	publisher, err := app.Publisher()
	if err != nil {
		t.Fatalf("Publisher() failed: %v", err)
	}
	if publisher == nil {
		t.Error("Publisher() returned nil")
	}
}
