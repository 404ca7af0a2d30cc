package armory

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/layout"
	"github.com/agentstation/armory/pkg/profile"
	"github.com/agentstation/armory/pkg/tables"
)

// Tables names the tables the pipeline reads and writes.
type Tables struct {
	Local         string `json:"local" yaml:"local"`
	Authority     string `json:"authority" yaml:"authority"`
	Rules         string `json:"rules" yaml:"rules"`
	Roster        string `json:"roster" yaml:"roster"`
	Settings      string `json:"settings" yaml:"settings"`
	Hashes        string `json:"hashes" yaml:"hashes"`
	FlatReport    string `json:"flat_report" yaml:"flat_report"`
	SummaryReport string `json:"summary_report" yaml:"summary_report"`
}

// DefaultTables returns the table names of the original workbook.
func DefaultTables() Tables {
	return Tables{
		Local:         constants.LocalTable,
		Authority:     constants.AuthorityTable,
		Rules:         constants.RulesTable,
		Roster:        constants.RosterTable,
		Settings:      constants.SettingsTable,
		Hashes:        constants.HashesTable,
		FlatReport:    constants.FlatReportTable,
		SummaryReport: constants.SummaryReportTable,
	}
}

// merge returns t with every empty name taken from defaults.
func (t Tables) merge(defaults Tables) Tables {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Tables{
		Local:         pick(t.Local, defaults.Local),
		Authority:     pick(t.Authority, defaults.Authority),
		Rules:         pick(t.Rules, defaults.Rules),
		Roster:        pick(t.Roster, defaults.Roster),
		Settings:      pick(t.Settings, defaults.Settings),
		Hashes:        pick(t.Hashes, defaults.Hashes),
		FlatReport:    pick(t.FlatReport, defaults.FlatReport),
		SummaryReport: pick(t.SummaryReport, defaults.SummaryReport),
	}
}

type config struct {
	store       tables.Store
	layouts     *layout.Config
	tables      Tables
	language    language.Tag
	logger      *zerolog.Logger
	concurrency int
	keyFunc     profile.KeyFunc
}

func defaultConfig() *config {
	return &config{
		tables:      DefaultTables(),
		language:    language.Hebrew,
		concurrency: constants.DefaultConcurrency,
		keyFunc:     profile.DefaultKey,
	}
}

// Option is a function that configures an Armory instance
type Option func(*config) error

// WithStore sets the table store.
func WithStore(s tables.Store) Option {
	return func(c *config) error {
		if s == nil {
			return errors.NewValidationError("store", nil, "store is nil")
		}
		c.store = s
		return nil
	}
}

// WithLayouts sets the partition layouts.
func WithLayouts(l *layout.Config) Option {
	return func(c *config) error {
		c.layouts = l
		return nil
	}
}

// WithTables overrides table names; empty fields keep their defaults.
func WithTables(t Tables) Option {
	return func(c *config) error {
		merged := t.merge(c.tables)
		for _, name := range []string{
			merged.Local, merged.Authority, merged.Rules, merged.Roster,
			merged.Settings, merged.Hashes, merged.FlatReport, merged.SummaryReport,
		} {
			if err := tables.ValidateName(name); err != nil {
				return err
			}
		}
		c.tables = merged
		return nil
	}
}

// WithLanguage sets the language of written headers and report texts.
// Default Hebrew.
func WithLanguage(tag language.Tag) Option {
	return func(c *config) error {
		c.language = tag
		return nil
	}
}

// WithLogger sets the logger used for every operation.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithConcurrency bounds the partitions transformed and entities compared
// in parallel.
func WithConcurrency(n int) Option {
	return func(c *config) error {
		if n < 1 || n > constants.MaxConcurrency {
			return &errors.ValidationError{
				Field:   "concurrency",
				Value:   n,
				Message: fmt.Sprintf("concurrency must be between 1 and %d", constants.MaxConcurrency),
			}
		}
		c.concurrency = n
		return nil
	}
}

// WithKeyFunc sets how item keys are derived during aggregation.
func WithKeyFunc(fn profile.KeyFunc) Option {
	return func(c *config) error {
		if fn == nil {
			fn = profile.DefaultKey
		}
		c.keyFunc = fn
		return nil
	}
}

// compareOptions controls one Compare call.
type compareOptions struct {
	summary  bool
	local    string
	auth     string
	output   string
	append   bool
	mappings bool
	roster   bool
	labelA   string
	labelB   string
}

// CompareOption configures Compare and Sync.
type CompareOption func(*compareOptions)

func newCompareOptions(t Tables, opts ...CompareOption) *compareOptions {
	o := &compareOptions{
		local:    t.Local,
		auth:     t.Authority,
		mappings: true,
		roster:   true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.output == "" {
		o.output = t.FlatReport
		if o.summary {
			o.output = t.SummaryReport
		}
	}
	return o
}

// gated lists the tables a report built with these options depends on.
func (o *compareOptions) gated(t Tables) []string {
	names := []string{o.auth, o.local}
	if o.mappings {
		names = append(names, t.Rules)
	}
	if o.roster {
		names = append(names, t.Roster)
	}
	return names
}

// Summary produces one row per entity instead of one row per finding.
func Summary() CompareOption {
	return func(o *compareOptions) { o.summary = true }
}

// CompareTables compares local against authority instead of the
// configured tables. Empty names keep the configured ones.
func CompareTables(local, authority string) CompareOption {
	return func(o *compareOptions) {
		if local != "" {
			o.local = local
		}
		if authority != "" {
			o.auth = authority
		}
	}
}

// Output writes the report to the named table.
func Output(name string) CompareOption {
	return func(o *compareOptions) { o.output = name }
}

// Append adds report rows to the existing table instead of replacing it.
func Append() CompareOption {
	return func(o *compareOptions) { o.append = true }
}

// WithoutMappings compares the tables as stored.
func WithoutMappings() CompareOption {
	return func(o *compareOptions) { o.mappings = false }
}

// WithoutRoster treats every entity absent from the local table as unknown.
func WithoutRoster() CompareOption {
	return func(o *compareOptions) { o.roster = false }
}

// SourceLabels names the local and authority sides in report texts.
func SourceLabels(local, authority string) CompareOption {
	return func(o *compareOptions) {
		o.labelA = local
		o.labelB = authority
	}
}
