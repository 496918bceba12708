// Package errors provides custom error types for the aptforge system.
// These errors enable programmatic error checking across the publish
// pipeline and carry enough context to tell an operator which published
// components were affected by a failure and which were not.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the aptforge system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidComponentName indicates a component name that normalizes to nothing
	ErrInvalidComponentName = errors.New("invalid component name")

	// ErrCorruptMetadata indicates published repository metadata that cannot be trusted
	ErrCorruptMetadata = errors.New("corrupt repository metadata")

	// ErrArtifactConflict indicates two different artifacts claiming the same identity
	ErrArtifactConflict = errors.New("artifact conflict")

	// ErrArtifactUnavailable indicates a published artifact that cannot be retrieved
	ErrArtifactUnavailable = errors.New("artifact unavailable")

	// ErrSnapshotFailed indicates a snapshot could not be created from a staged repository
	ErrSnapshotFailed = errors.New("snapshot creation failed")

	// ErrPublicationWindow indicates a failure after the old publication was
	// dropped but before the new one materialized; pool contents are intact
	// and a retry rebuilds the publication
	ErrPublicationWindow = errors.New("publication window failure")

	// ErrSignatureMismatch indicates signed and unsigned manifests that disagree
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrRecoveryFailed indicates the pre-publish state recovery could not complete
	ErrRecoveryFailed = errors.New("recovery failed")

	// ErrRemoteChanged indicates the hosting branch advanced under us; the
	// whole run must be repeated from recovery
	ErrRemoteChanged = errors.New("remote changed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// InvalidNameError reports a component or channel name that cannot be
// normalized into a valid repository token
type InvalidNameError struct {
	Kind  string // "component", "channel"
	Input string
}

// Error implements the error interface
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("%s name %q normalizes to an empty token", e.Kind, e.Input)
}

// Is implements errors.Is support
func (e *InvalidNameError) Is(target error) bool {
	return target == ErrInvalidComponentName || target == ErrInvalidInput
}

// NewInvalidNameError creates a new InvalidNameError
func NewInvalidNameError(kind, input string) *InvalidNameError {
	return &InvalidNameError{Kind: kind, Input: input}
}

// MetadataError reports published metadata that is missing, malformed, or
// internally inconsistent. Publishing must not proceed past one of these:
// rebuilding component state from bad metadata silently drops packages.
type MetadataError struct {
	Channel      string
	Distribution string
	Path         string
	Message      string
	Err          error
}

// Error implements the error interface
func (e *MetadataError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("corrupt metadata for %s/%s at %s: %s", e.Channel, e.Distribution, e.Path, e.Message)
	}
	return fmt.Sprintf("corrupt metadata for %s/%s: %s", e.Channel, e.Distribution, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *MetadataError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MetadataError) Is(target error) bool {
	return target == ErrCorruptMetadata
}

// NewMetadataError creates a new MetadataError
func NewMetadataError(channel, distribution, path, message string, err error) *MetadataError {
	return &MetadataError{
		Channel:      channel,
		Distribution: distribution,
		Path:         path,
		Message:      message,
		Err:          err,
	}
}

// ConflictError reports an incoming artifact colliding with a published one
// of the same identity but different content
type ConflictError struct {
	Component string
	Filename  string
	Existing  string // checksum of the published artifact
	Incoming  string // checksum of the incoming artifact
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("artifact %s already published in component %s with different content (published sha256 %s, incoming %s)",
		e.Filename, e.Component, short(e.Existing), short(e.Incoming))
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrArtifactConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(component, filename, existing, incoming string) *ConflictError {
	return &ConflictError{
		Component: component,
		Filename:  filename,
		Existing:  existing,
		Incoming:  incoming,
	}
}

// ArtifactError reports a published artifact that could not be located or
// retrieved while reconstructing component state
type ArtifactError struct {
	Component string
	Filename  string
	Location  string
	Err       error
}

// Error implements the error interface
func (e *ArtifactError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("artifact %s of component %s unavailable at %s: %v", e.Filename, e.Component, e.Location, e.Err)
	}
	return fmt.Sprintf("artifact %s of component %s unavailable: %v", e.Filename, e.Component, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ArtifactError) Is(target error) bool {
	return target == ErrArtifactUnavailable
}

// NewArtifactError creates a new ArtifactError
func NewArtifactError(component, filename, location string, err error) *ArtifactError {
	return &ArtifactError{
		Component: component,
		Filename:  filename,
		Location:  location,
		Err:       err,
	}
}

// SnapshotError reports a failed snapshot creation for one component
type SnapshotError struct {
	Component string
	Snapshot  string
	Err       error
}

// Error implements the error interface
func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot %s of component %s failed: %v", e.Snapshot, e.Component, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SnapshotError) Is(target error) bool {
	return target == ErrSnapshotFailed
}

// NewSnapshotError creates a new SnapshotError
func NewSnapshotError(component, snapshot string, err error) *SnapshotError {
	return &SnapshotError{Component: component, Snapshot: snapshot, Err: err}
}

// WindowError reports a failure inside the drop-then-republish window. The
// previous publication is gone and the new one did not materialize. Pool
// contents and the hosting branch are untouched, so the condition is
// retryable: a fresh run rebuilds every component from its indices.
type WindowError struct {
	Channel      string
	Distribution string
	Err          error
}

// Error implements the error interface
func (e *WindowError) Error() string {
	return fmt.Sprintf("publication %s/%s dropped but not recreated (pool intact, retry to rebuild): %v",
		e.Channel, e.Distribution, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *WindowError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *WindowError) Is(target error) bool {
	return target == ErrPublicationWindow
}

// NewWindowError creates a new WindowError
func NewWindowError(channel, distribution string, err error) *WindowError {
	return &WindowError{Channel: channel, Distribution: distribution, Err: err}
}

// SignatureError reports signed and unsigned manifest forms that disagree
// while signing is enabled. Never auto-corrected: overwriting a signed
// manifest with locally generated content would forge the signature chain.
type SignatureError struct {
	Channel      string
	Distribution string
	Detail       string
}

// Error implements the error interface
func (e *SignatureError) Error() string {
	return fmt.Sprintf("signed and unsigned manifests disagree for %s/%s: %s", e.Channel, e.Distribution, e.Detail)
}

// Is implements errors.Is support
func (e *SignatureError) Is(target error) bool {
	return target == ErrSignatureMismatch
}

// NewSignatureError creates a new SignatureError
func NewSignatureError(channel, distribution, detail string) *SignatureError {
	return &SignatureError{Channel: channel, Distribution: distribution, Detail: detail}
}

// RecoveryError reports a failed pre-publish state recovery
type RecoveryError struct {
	Step string
	Err  error
}

// Error implements the error interface
func (e *RecoveryError) Error() string {
	return fmt.Sprintf("state recovery failed during %s: %v", e.Step, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *RecoveryError) Is(target error) bool {
	return target == ErrRecoveryFailed
}

// NewRecoveryError creates a new RecoveryError
func NewRecoveryError(step string, err error) *RecoveryError {
	return &RecoveryError{Step: step, Err: err}
}

// PushRejectedError reports a hosting push rejected because the remote
// branch advanced past our base revision
type PushRejectedError struct {
	Remote string
	Branch string
	Err    error
}

// Error implements the error interface
func (e *PushRejectedError) Error() string {
	return fmt.Sprintf("push of %s to %s rejected, remote advanced since clone: %v", e.Branch, e.Remote, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PushRejectedError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PushRejectedError) Is(target error) bool {
	return target == ErrRemoteChanged
}

// NewPushRejectedError creates a new PushRejectedError
func NewPushRejectedError(remote, branch string, err error) *PushRejectedError {
	return &PushRejectedError{Remote: remote, Branch: branch, Err: err}
}

// PhaseError wraps a publish pipeline failure with the phase it occurred in
// and the component being processed. Unaffected lists the components whose
// published state was not modified by the failed run.
type PhaseError struct {
	Phase      string
	Component  string
	Unaffected []string
	Err        error
}

// Error implements the error interface
func (e *PhaseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "publish phase %q failed", e.Phase)
	if e.Component != "" {
		fmt.Fprintf(&b, " for component %s", e.Component)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if len(e.Unaffected) > 0 {
		fmt.Fprintf(&b, " (unaffected components: %s)", strings.Join(e.Unaffected, ", "))
	} else {
		b.WriteString(" (no published component was modified)")
	}
	return b.String()
}

// Unwrap implements errors.Unwrap
func (e *PhaseError) Unwrap() error {
	return e.Err
}

// NewPhaseError creates a new PhaseError
func NewPhaseError(phase, component string, unaffected []string, err error) *PhaseError {
	return &PhaseError{Phase: phase, Component: component, Unaffected: unaffected, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// DependencyError indicates a required external dependency is missing
type DependencyError struct {
	Dependency string
	Message    string
}

// Error implements the error interface
func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s: %s", e.Dependency, e.Message)
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "control", etc.
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s file %s, line %d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
		Message:   message,
	}
}

// ProcessError represents an error from an external process or command
type ProcessError struct {
	Operation string // What operation was being performed
	Command   string // The command that was executed
	Output    string // Stdout/stderr output from the process
	ExitCode  int    // Exit code if available
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *ProcessError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("process error during %s (command: %s): %v\nOutput: %s", e.Operation, e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("process error during %s (command: %s): %v", e.Operation, e.Command, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ProcessError) Unwrap() error {
	return e.Err
}

// NewProcessError creates a new ProcessError
func NewProcessError(operation, command, output string, err error) *ProcessError {
	return &ProcessError{
		Operation: operation,
		Command:   command,
		Output:    output,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidName checks if an error is an invalid component or channel name
func IsInvalidName(err error) bool {
	return errors.Is(err, ErrInvalidComponentName)
}

// IsCorruptMetadata checks if an error indicates untrustworthy published metadata
func IsCorruptMetadata(err error) bool {
	return errors.Is(err, ErrCorruptMetadata)
}

// IsConflict checks if an error is an artifact identity conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrArtifactConflict)
}

// IsArtifactUnavailable checks if an error indicates an unretrievable artifact
func IsArtifactUnavailable(err error) bool {
	return errors.Is(err, ErrArtifactUnavailable)
}

// IsSignatureMismatch checks if an error is a manifest signature mismatch
func IsSignatureMismatch(err error) bool {
	return errors.Is(err, ErrSignatureMismatch)
}

// IsRetryable reports whether a fresh run from state recovery can succeed
// where this one failed. Only the publication window and a moved hosting
// branch qualify; everything else needs operator attention first.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPublicationWindow) || errors.Is(err, ErrRemoteChanged)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsCanceled checks if an error is a cancellation error. Context
// cancellation counts: an interrupted run surfaces context.Canceled
// through whatever phase error wrapped it.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// short trims a checksum for display
func short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	if sum == "" {
		return "unknown"
	}
	return sum
}
