package application

import (
	"github.com/rs/zerolog"

	"github.com/feelpp/aptforge"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    PublisherFunc: func(opts ...aptforge.Option) (aptforge.Publisher, error) {
//	        return testPublisher, nil
//	    },
//	}
//	cmd := publish.NewCommand(mock)
//	// ... test command
type Mock struct {
	PublisherFunc    func(opts ...aptforge.Option) (aptforge.Publisher, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	DefaultsFunc     func() Defaults
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Publisher returns an engine using the mock function or nil.
func (m *Mock) Publisher(opts ...aptforge.Option) (aptforge.Publisher, error) {
	if m.PublisherFunc != nil {
		return m.PublisherFunc(opts...)
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the output format using the mock function or "".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return ""
}

// Defaults returns flag defaults using the mock function or the zero value.
func (m *Mock) Defaults() Defaults {
	if m.DefaultsFunc != nil {
		return m.DefaultsFunc()
	}
	return Defaults{}
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
