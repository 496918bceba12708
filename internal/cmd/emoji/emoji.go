// Package emoji provides symbol constants for CLI output.
// These symbols create a consistent visual language across all command-line commands.
package emoji

// Symbol constants for CLI output. Status indicators render the same in
// CI logs and terminals.
const (
	// Success represents successful completion of an operation.
	// Used for: available dependencies, completed publications.
	Success = "✓"

	// Error represents failures or missing required configuration.
	// Used for: missing dependencies, failed deletions.
	Error = "✗"

	// Warning represents warnings or non-critical issues.
	// Used for: version mismatches, skipped channels.
	Warning = "!"

	// Info represents informational messages.
	// Used for: general information, tips, context.
	Info = "i"
)
