// Package appcontext provides the application context interface shared by
// all commands, so command packages depend on an interface rather than the
// concrete App.
package appcontext

import (
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/tables"
)

// Interface defines what commands need from the application.
type Interface interface {
	// Armory returns the default pipeline instance, creating it lazily.
	Armory() (armory.Armory, error)

	// ArmoryWithOptions creates a new pipeline with extra options applied
	// after the configured ones.
	ArmoryWithOptions(...armory.Option) (armory.Armory, error)

	// Store returns the location of the configured table store.
	Store() tables.Location

	// LayoutsFile returns the configured layouts file, empty for the built-in layouts.
	LayoutsFile() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, wide).
	OutputFormat() string

	// Language returns the report language.
	Language() language.Tag

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
