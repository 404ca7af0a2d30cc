package appcontext

import (
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/tables"
)

// Mock provides a mock implementation of Interface for testing.
// A nil function field yields a zero value.
type Mock struct {
	ArmoryFunc            func() (armory.Armory, error)
	ArmoryWithOptionsFunc func(...armory.Option) (armory.Armory, error)
	StoreFunc             func() tables.Location
	LayoutsFileFunc       func() string
	LoggerFunc            func() *zerolog.Logger
	OutputFormatFunc      func() string
	LanguageFunc          func() language.Tag
	VersionFunc           func() string
}

// Armory returns an armory using the mock function or nil.
func (m *Mock) Armory() (armory.Armory, error) {
	if m.ArmoryFunc != nil {
		return m.ArmoryFunc()
	}
	return nil, nil
}

// ArmoryWithOptions returns an armory using the mock function, falling back to Armory.
func (m *Mock) ArmoryWithOptions(opts ...armory.Option) (armory.Armory, error) {
	if m.ArmoryWithOptionsFunc != nil {
		return m.ArmoryWithOptionsFunc(opts...)
	}
	return m.Armory()
}

// Store returns the store location using the mock function or an in-memory location.
func (m *Mock) Store() tables.Location {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	return tables.Location{Kind: tables.Memory}
}

// LayoutsFile returns the layouts file using the mock function or "".
func (m *Mock) LayoutsFile() string {
	if m.LayoutsFileFunc != nil {
		return m.LayoutsFileFunc()
	}
	return ""
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Language returns the language using the mock function or Hebrew.
func (m *Mock) Language() language.Tag {
	if m.LanguageFunc != nil {
		return m.LanguageFunc()
	}
	return language.Hebrew
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
