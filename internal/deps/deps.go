// Package deps provides preflight checks for the external binaries a
// publish run shells out to. The checks run before any repository state is
// touched so a missing tool fails the run up front instead of partway
// through a publication.
package deps

import (
	"context"

	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Dependency describes one external binary and how to verify it.
type Dependency struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`

	// CheckCommands are the binary names to look up in PATH, tried in
	// order. The first one found wins.
	CheckCommands []string `json:"check_commands"`

	// MinVersion, when set, is the lowest acceptable detected version.
	MinVersion string `json:"min_version,omitempty"`

	InstallURL  string `json:"install_url,omitempty"`
	InstallHint string `json:"install_hint,omitempty"`

	// Required marks tools every run needs. Optional tools are only
	// checked when the feature that uses them is enabled.
	Required bool `json:"required"`
}

// DependencyStatus is the result of checking one dependency.
type DependencyStatus struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`

	// CheckError carries the lookup failure, or a version warning when
	// the tool was found but looks too old.
	CheckError error `json:"-"`
}

// Aptly is the repository manager every run drives. All repo, snapshot,
// and publish operations go through it.
func Aptly() Dependency {
	return Dependency{
		Name:          "aptly",
		DisplayName:   "aptly",
		Description:   "Debian repository manager used to build package indexes and publish snapshots",
		CheckCommands: []string{"aptly"},
		MinVersion:    "1.4.0",
		InstallURL:    "https://www.aptly.info/download/",
		InstallHint:   "sudo apt-get install -y aptly",
		Required:      true,
	}
}

// GPG is the OpenPGP implementation aptly invokes to clearsign Release
// files. Only needed when publishing with signing enabled.
func GPG() Dependency {
	return Dependency{
		Name:          "gpg",
		DisplayName:   "GnuPG",
		Description:   "OpenPGP tool aptly invokes to sign published Release files",
		CheckCommands: []string{"gpg", "gpg2"},
		InstallURL:    "https://gnupg.org/download/",
		InstallHint:   "sudo apt-get install -y gnupg",
	}
}

// Known returns every dependency the tool may use.
func Known() []Dependency {
	return []Dependency{Aptly(), GPG()}
}

// Required returns the dependencies a run with the given signing mode
// cannot proceed without.
func Required(signing bool) []Dependency {
	required := []Dependency{Aptly()}
	if signing {
		gpg := GPG()
		gpg.Required = true
		required = append(required, gpg)
	}
	return required
}

// Preflight verifies that every binary the run needs is available.
// A tool that is present but older than its minimum version is logged as a
// warning rather than failing the run.
func Preflight(ctx context.Context, signing bool) error {
	logger := logging.FromContext(ctx)

	for _, dep := range Required(signing) {
		status := Check(ctx, dep)
		if !status.Available {
			message := "not found in PATH"
			if status.CheckError != nil {
				message = status.CheckError.Error()
			}
			return &errors.DependencyError{
				Dependency: dep.Name,
				Message:    message,
			}
		}

		if status.CheckError != nil {
			logger.Warn().
				Str("dependency", dep.Name).
				Str("path", status.Path).
				Msg(status.CheckError.Error())
			continue
		}

		logger.Debug().
			Str("dependency", dep.Name).
			Str("path", status.Path).
			Str("version", status.Version).
			Msg("Dependency available")
	}

	return nil
}
