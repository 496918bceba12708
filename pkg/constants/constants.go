// Package constants provides shared constants used throughout the aptforge codebase.
// This includes timeouts, file permissions, repository layout names, and other
// configuration values that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// AptlyCommandTimeout is the timeout for a single aptly invocation
	AptlyCommandTimeout = 5 * time.Minute

	// GitTimeout is the timeout for clone and push operations on the hosting branch
	GitTimeout = 5 * time.Minute

	// FetchTimeout is the timeout for retrieving a single published artifact
	FetchTimeout = 2 * time.Minute

	// PublishTimeout is the ceiling for one full publish run
	PublishTimeout = 30 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 45 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like passphrases (rw-------)
	SecureFilePermissions = 0600
)

// Repository layout constants name the fixed paths of a published APT tree
const (
	// DistsDir is the metadata tree under a publication prefix
	DistsDir = "dists"

	// PoolDir is the artifact tree under a publication prefix
	PoolDir = "pool"

	// ReleaseFile is the unsigned top-level manifest of a distribution
	ReleaseFile = "Release"

	// InReleaseFile is the clearsigned form of the manifest
	InReleaseFile = "InRelease"

	// ReleaseGPGFile is the detached signature of the unsigned manifest
	ReleaseGPGFile = "Release.gpg"

	// PackagesFile is the per-component package index
	PackagesFile = "Packages"

	// BinaryDirPrefix prefixes per-architecture index directories (binary-amd64)
	BinaryDirPrefix = "binary-"

	// NoJekyllFile disables Jekyll processing on GitHub Pages so dists/ is served
	NoJekyllFile = ".nojekyll"

	// PublicDir is the web root aptly publishes into under its root directory
	PublicDir = "public"

	// AptlyConfigFile is the name of the generated aptly configuration file
	AptlyConfigFile = "config.json"

	// AptlyHomeDir is the default aptly root directory name inside a workspace
	AptlyHomeDir = ".aptly"
)

// Workspace constants define temporary directory naming
const (
	// PagesWorkPrefix is the prefix for the hosting checkout workspace
	PagesWorkPrefix = "apt-pages."

	// AptlyWorkPrefix is the prefix for the aptly workspace
	AptlyWorkPrefix = "aptly."
)

// Publication channels of the hosted repository. Every published prefix is
// one of these.
const (
	// ChannelStable carries released packages
	ChannelStable = "stable"

	// ChannelTesting carries release candidates and other pre-releases
	ChannelTesting = "testing"

	// ChannelPR carries per pull request builds
	ChannelPR = "pr"
)

// Channels lists every publication channel in scan order.
var Channels = []string{ChannelStable, ChannelTesting, ChannelPR}

// Hosting defaults for the published repository
const (
	// DefaultPagesRepo is the default hosting repository URL
	DefaultPagesRepo = "https://github.com/feelpp/apt.git"

	// DefaultBranch is the default hosting branch
	DefaultBranch = "gh-pages"

	// DefaultRemote is the git remote name used for push
	DefaultRemote = "origin"

	// DefaultChannel is the default publication channel
	DefaultChannel = ChannelStable

	// DefaultDistribution is the distribution codename published when the
	// caller names none
	DefaultDistribution = "noble"

	// DefaultCommitName is the author name for publish commits when the
	// environment supplies none
	DefaultCommitName = "aptforge"

	// DefaultCommitEmail is the author email for publish commits when the
	// environment supplies none
	DefaultCommitEmail = "apt@feelpp.org"
)

// Aptly behavior constants
const (
	// DownloadConcurrency is written into the generated aptly configuration
	DownloadConcurrency = 4
)

// Artifact fetch retry constants used by the retrying HTTP client
const (
	// FetchRetryMax is the maximum number of retry attempts per artifact
	FetchRetryMax = 3

	// FetchRetryWaitMin is the minimum backoff between fetch retries
	FetchRetryWaitMin = 1 * time.Second

	// FetchRetryWaitMax is the maximum backoff between fetch retries
	FetchRetryWaitMax = 30 * time.Second
)

// SnapshotTimeFormat is the timestamp layout embedded in snapshot names.
// One publish run shares a single timestamp across all its snapshots.
const SnapshotTimeFormat = "20060102-150405"
