// Package constants provides shared constants used throughout armory:
// default table names, timeouts, limits and file permissions.
package constants

import "time"

// Default table names. They match the workbook the reconciliation was
// first run against, so existing stores work without configuration.
const (
	// LocalTable is source A: the merged, normalized unit-level records.
	LocalTable = "all_normalized"

	// AuthorityTable is source B: the consolidated authority-level records.
	AuthorityTable = "gdud"

	// RulesTable holds the mapping rules (scope, kind, from, to).
	RulesTable = "mappings"

	// RosterTable is the known-entities roster.
	RosterTable = "AllSoldiersInPlatoons"

	// SettingsTable lists partition names in its first column.
	SettingsTable = "settings"

	// HashesTable stores the change gate fingerprints.
	HashesTable = "SyncHashes"

	// FlatReportTable receives the flat discrepancy report.
	FlatReportTable = "all_issues_diff"

	// SummaryReportTable receives the per-entity summary report.
	SummaryReportTable = "entity_comparison"

	// NormalizedSuffix is appended to a partition name to form its output table.
	NormalizedSuffix = "_normalized"
)

// Record defaults
const (
	// DefaultStatus is assigned by layout adapters when a source has no status column.
	DefaultStatus = "מנופק"

	// PresenceMarker stands in for the identifier of a paired item that is
	// present but carries no serial.
	PresenceMarker = "V"

	// DefaultStopMarker ends a columns layout input when found in the first cell.
	DefaultStopMarker = "---"

	// RosterHeader is the header cell of the roster table.
	RosterHeader = "Personal ID"
)

// Timeout constants
const (
	// DefaultTimeout is the standard timeout for a single store operation
	DefaultTimeout = 30 * time.Second

	// SyncTimeout bounds one full sync (transform, merge, compare)
	SyncTimeout = 15 * time.Minute

	// DefaultWatchInterval matches the one-minute trigger the reconciliation
	// historically ran on.
	DefaultWatchInterval = time.Minute

	// WatchDebounce coalesces bursts of file events into one run.
	WatchDebounce = 500 * time.Millisecond
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// DefaultConcurrency is the number of entities classified in parallel
	// when concurrency is enabled without an explicit value.
	DefaultConcurrency = 4

	// MaxConcurrency caps the worker count accepted from configuration.
	MaxConcurrency = 64
)

// Path constants
const (
	// DefaultConfigFile is the config file name looked up in $HOME and the working directory.
	DefaultConfigFile = ".armory"

	// DefaultStore is used when no store is configured.
	DefaultStore = "./armory-data"

	// DefaultLayoutsFile is the layout adapter configuration file.
	DefaultLayoutsFile = "layouts.yaml"
)
