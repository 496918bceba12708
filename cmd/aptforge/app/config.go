package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feelpp/aptforge/pkg/constants"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Hosting configuration
	PagesRepo    string
	Branch       string
	Distribution string
	Token        string
	PublishedURL string

	// Signing configuration
	SigningKey string
	Passphrase string

	// Aptly configuration
	AptlyConfig string
	AptlyRoot   string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.aptforge.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	// Set up Viper for environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Bind the hosting and signing environment variables
	bindHostingEnv()

	// Try to read config file if it exists
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Search for config in standard locations
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".aptforge")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	// Build config from viper
	config := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		// Config file
		ConfigFile: viper.ConfigFileUsed(),

		// Hosting configuration
		PagesRepo:    viper.GetString("pages-repo"),
		Branch:       viper.GetString("branch"),
		Distribution: viper.GetString("distribution"),
		Token:        viper.GetString("token"),
		PublishedURL: viper.GetString("published-url"),

		// Signing configuration
		SigningKey: viper.GetString("keyid"),
		Passphrase: viper.GetString("passphrase"),

		// Aptly configuration
		AptlyConfig: viper.GetString("aptly-config"),
		AptlyRoot:   viper.GetString("aptly-root"),

		// Logging configuration. An empty level means "not set" so the
		// verbose and quiet flags can decide.
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	// Set defaults
	if config.PagesRepo == "" {
		config.PagesRepo = constants.DefaultPagesRepo
	}
	if config.Branch == "" {
		config.Branch = constants.DefaultBranch
	}
	if config.Distribution == "" {
		config.Distribution = constants.DefaultDistribution
	}

	return config, nil
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// Try to load .env files in order of precedence
	// .env.local overrides .env
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindHostingEnv explicitly binds the hosting, signing, and token environment
// variables to Viper. These are the names the publish workflows export.
func bindHostingEnv() {
	bindings := map[string][]string{
		"pages-repo": {"PAGES_REPO"},
		"branch":     {"BRANCH"},
		"keyid":      {"GPG_KEYID"},
		"passphrase": {"GPG_PASSPHRASE"},
		"token":      {"GITHUB_TOKEN", "GH_TOKEN"},
	}

	for key, envVars := range bindings {
		args := append([]string{key}, envVars...)
		if err := viper.BindEnv(args...); err != nil {
			// Log warning but continue - this isn't critical
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
