// Package app provides the application context and dependency management
// for the armory CLI: configuration, logging and the pipeline instance.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/output"
	"github.com/agentstation/armory/internal/tables"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/layout"
	"github.com/agentstation/armory/pkg/logging"
)

// App represents the armory application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// armory is lazy-initialized and closed on Shutdown.
	mu     sync.RWMutex
	armory armory.Armory
	opened []armory.Armory
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format, detecting one from
// the terminal when none is set.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Language returns the report language. Anything unparsable is Hebrew.
func (a *App) Language() language.Tag {
	tag, err := language.Parse(a.config.Language)
	if err != nil {
		return language.Hebrew
	}
	return tag
}

// Store returns the configured store location. An unparsable location is
// reported when the armory is created.
func (a *App) Store() tables.Location {
	loc, _ := tables.Parse(a.config.Store)
	return loc
}

// LayoutsFile returns the configured layouts file.
func (a *App) LayoutsFile() string { return a.config.LayoutsFile }

// Armory returns the armory instance, creating it lazily if needed.
func (a *App) Armory() (armory.Armory, error) {
	a.mu.RLock()
	if a.armory != nil {
		am := a.armory
		a.mu.RUnlock()
		return am, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.armory != nil {
		return a.armory, nil
	}
	am, err := a.build()
	if err != nil {
		return nil, err
	}
	a.armory = am
	return am, nil
}

// ArmoryWithOptions returns a new armory over a fresh store connection with
// opts applied after the configured options. It is closed on Shutdown.
func (a *App) ArmoryWithOptions(opts ...armory.Option) (armory.Armory, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	am, err := a.build(opts...)
	if err != nil {
		return nil, err
	}
	a.opened = append(a.opened, am)
	return am, nil
}

func (a *App) build(extra ...armory.Option) (armory.Armory, error) {
	opts, err := a.buildArmoryOptions()
	if err != nil {
		return nil, err
	}
	am, err := armory.New(append(opts, extra...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "armory", a.config.Store, err)
	}
	return am, nil
}

// Shutdown closes every store the application opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var first error
	instances := append(a.opened, a.armory)
	for _, am := range instances {
		if am == nil {
			continue
		}
		if err := am.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close store during shutdown")
			if first == nil {
				first = err
			}
		}
	}
	a.armory, a.opened = nil, nil
	return first
}

// buildArmoryOptions constructs armory options from the app configuration.
func (a *App) buildArmoryOptions() ([]armory.Option, error) {
	store, err := tables.Open(logging.WithLogger(context.Background(), a.logger), a.config.Store)
	if err != nil {
		return nil, err
	}

	opts := []armory.Option{
		armory.WithStore(store),
		armory.WithLanguage(a.Language()),
		armory.WithLogger(a.logger),
		armory.WithTables(a.config.Tables),
	}
	if a.config.Concurrency != 0 {
		opts = append(opts, armory.WithConcurrency(a.config.Concurrency))
	}
	if a.config.LayoutsFile != "" {
		layouts, err := layout.Load(a.config.LayoutsFile)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, armory.WithLayouts(layouts))
	}
	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithArmory sets a custom armory instance (useful for testing).
func WithArmory(am armory.Armory) Option {
	return func(a *App) error {
		a.armory = am
		return nil
	}
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)
