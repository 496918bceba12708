package deps

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/feelpp/aptforge/pkg/apt"
)

// Check verifies if a dependency is available on the system.
// It tries all CheckCommands in order and returns the first one that succeeds.
func Check(ctx context.Context, dep Dependency) DependencyStatus {
	status := DependencyStatus{
		Available: false,
	}

	for _, cmd := range dep.CheckCommands {
		path, err := exec.LookPath(cmd)
		if err != nil {
			// Command not found, try next one
			continue
		}

		status.Available = true
		status.Path = path

		// Try to get version if MinVersion is specified
		if dep.MinVersion != "" {
			version, err := getVersion(ctx, cmd)
			if err != nil {
				status.CheckError = fmt.Errorf("found %s but could not detect version: %w", cmd, err)
			} else {
				status.Version = version
				if !meetsMinVersion(version, dep.MinVersion) {
					status.CheckError = fmt.Errorf("found %s version %s but requires %s or later", cmd, version, dep.MinVersion)
				}
			}
		}

		return status
	}

	// None of the commands were found
	if len(dep.CheckCommands) > 0 {
		status.CheckError = fmt.Errorf("%s not found in PATH (tried: %s)", dep.DisplayName, strings.Join(dep.CheckCommands, ", "))
	}

	return status
}

// CheckAll checks the given dependencies and returns a map of dependency
// name to status.
func CheckAll(ctx context.Context, deps []Dependency) map[string]DependencyStatus {
	if len(deps) == 0 {
		return nil
	}

	results := make(map[string]DependencyStatus, len(deps))
	for _, dep := range deps {
		results[dep.Name] = Check(ctx, dep)
	}

	return results
}

// Missing returns the dependencies whose check did not find a binary.
func Missing(deps []Dependency, statuses map[string]DependencyStatus) []Dependency {
	var missing []Dependency
	for _, dep := range deps {
		if status, ok := statuses[dep.Name]; ok && !status.Available {
			missing = append(missing, dep)
		}
	}
	return missing
}

// getVersion attempts to get the version of a command.
// This is a best-effort attempt - different tools have different version flags.
func getVersion(ctx context.Context, cmdName string) (string, error) {
	// aptly only understands the version subcommand, gpg only the flag,
	// so both spellings are tried.
	versionFlags := []string{"--version", "-v", "version"}

	for _, flag := range versionFlags {
		//nolint:gosec // cmdName comes from Dependency.CheckCommands (fixed tool list)
		cmd := exec.CommandContext(ctx, cmdName, flag)
		output, err := cmd.CombinedOutput()
		if err != nil {
			continue // Try next flag
		}

		version := extractVersion(string(output))
		if version != "" {
			return version, nil
		}
	}

	return "", fmt.Errorf("could not determine version")
}

// extractVersion tries to extract a version number from output.
// Looks for patterns like "1.2.3", "v1.2.3", "version 1.2.3", etc.
func extractVersion(output string) string {
	patterns := []string{
		`v?(\d+\.\d+\.\d+)`,           // 1.2.3 or v1.2.3
		`version\s+v?(\d+\.\d+\.\d+)`, // version 1.2.3
		`(\d+\.\d+)`,                  // 1.2
	}

	for _, pattern := range patterns {
		re := regexp.MustCompile(pattern)
		matches := re.FindStringSubmatch(output)
		if len(matches) > 1 {
			return matches[1]
		}
	}

	return ""
}

// meetsMinVersion checks if the detected version meets the minimum
// requirement. Tool versions are plain dotted numerics, which order
// correctly under Debian version comparison.
func meetsMinVersion(detected, required string) bool {
	detected = strings.TrimPrefix(detected, "v")
	required = strings.TrimPrefix(required, "v")
	return apt.CompareVersions(detected, required) >= 0
}
