// Package gate decides whether a reconciliation run is needed by comparing
// content fingerprints of the source tables against those recorded after
// the last successful run.
package gate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/tables"
)

// Header is the first row of the fingerprint table. Rows written before the
// Report column existed belong to the unscoped gate.
var Header = []string{"Sheet Name", "Last Hash", "Report"}

// Absent is recorded for a table that does not exist, so that creating or
// dropping an optional table counts as a change.
const Absent = "absent"

// Fingerprint returns the SHA-256 hex digest of the JSON encoding of rows.
func Fingerprint(rows [][]string) string {
	if rows == nil {
		rows = [][]string{}
	}
	data, _ := json.Marshal(rows)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Source is the fingerprint state of one table.
type Source struct {
	Name     string `json:"name" yaml:"name"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`
	Current  string `json:"current,omitempty" yaml:"current,omitempty"`
	// Err is set when the table could not be read.
	Err error `json:"-" yaml:"-"`
}

// Changed reports whether the source differs from its recorded fingerprint.
// An unreadable source counts as changed.
func (s Source) Changed() bool {
	return s.Err != nil || s.Current != s.Previous
}

// Decision is the outcome of a Check.
type Decision struct {
	Sources []Source `json:"sources" yaml:"sources"`
	// Forced is true when a source could not be fingerprinted or the
	// report table is missing.
	Forced bool `json:"forced" yaml:"forced"`
}

// Run reports whether a run is needed.
func (d *Decision) Run() bool {
	if d == nil {
		return true
	}
	if d.Forced {
		return true
	}
	for _, s := range d.Sources {
		if s.Changed() {
			return true
		}
	}
	return false
}

// ChangedNames returns the names of changed sources.
func (d *Decision) ChangedNames() []string {
	if d == nil {
		return nil
	}
	var names []string
	for _, s := range d.Sources {
		if s.Changed() {
			names = append(names, s.Name)
		}
	}
	return names
}

// Gate reads and records fingerprints in a table of a store.
type Gate struct {
	store  tables.Store
	table  string
	report string
}

// Option configures a Gate.
type Option func(*Gate)

// ForReport keys the recorded fingerprints by the report table they were
// compared into, and forces a run while that table does not exist.
func ForReport(name string) Option {
	return func(g *Gate) { g.report = name }
}

// New returns a gate recording fingerprints in table.
func New(store tables.Store, table string, opts ...Option) *Gate {
	g := &Gate{store: store, table: table}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Table returns the fingerprint table name.
func (g *Gate) Table() string { return g.table }

// Report returns the report table the fingerprints are keyed by.
func (g *Gate) Report() string { return g.report }

func rowReport(row []string) string {
	if len(row) < 3 {
		return ""
	}
	return strings.TrimSpace(row[2])
}

// Stored returns the recorded fingerprints by table name. A missing
// fingerprint table yields an empty map.
func (g *Gate) Stored(ctx context.Context) (map[string]string, error) {
	rows, _, err := tables.ReadOptional(ctx, g.store, g.table)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]string, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || rowReport(row) != g.report {
			continue
		}
		stored[name] = strings.TrimSpace(row[1])
	}
	return stored, nil
}

// Check fingerprints the named tables and compares them with the recorded
// values. A missing table is fingerprinted as Absent.
func (g *Gate) Check(ctx context.Context, names ...string) (*Decision, error) {
	logger := logging.Ctx(ctx)

	stored, err := g.Stored(ctx)
	if err != nil {
		return nil, err
	}

	d := &Decision{Sources: make([]Source, 0, len(names))}
	for _, name := range names {
		src := Source{Name: name, Previous: stored[name]}
		rows, found, err := tables.ReadOptional(ctx, g.store, name)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			src.Err = err
			d.Forced = true
			logger.Warn().Err(err).Str("table", name).Msg("Could not fingerprint table, forcing a run")
		case !found:
			src.Current = Absent
		default:
			src.Current = Fingerprint(rows)
		}
		if src.Err == nil && src.Changed() {
			logEvent(logger.Info(), src).Msg("Change detected")
		}
		d.Sources = append(d.Sources, src)
	}

	if g.report != "" {
		exists, err := tables.Exists(ctx, g.store, g.report)
		if err != nil {
			return nil, err
		}
		if !exists {
			d.Forced = true
			logger.Info().Str("table", g.report).Msg("Report table missing, forcing a run")
		}
	}
	return d, nil
}

func logEvent(e *zerolog.Event, s Source) *zerolog.Event {
	return e.Str("table", s.Name).Str("old_hash", s.Previous).Str("new_hash", s.Current)
}

// Commit records the current fingerprints of the decision's readable
// sources, keeping other recorded entries.
func (g *Gate) Commit(ctx context.Context, d *Decision) error {
	if d == nil {
		return nil
	}
	rows, _, err := tables.ReadOptional(ctx, g.store, g.table)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		rows = [][]string{append([]string(nil), Header...)}
	}

	index := make(map[string]int, len(rows))
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > 0 && rowReport(rows[i]) == g.report {
			index[strings.TrimSpace(rows[i][0])] = i
		}
	}

	for _, s := range d.Sources {
		if s.Err != nil {
			continue
		}
		row := []string{s.Name, s.Current, g.report}
		if i, ok := index[s.Name]; ok {
			rows[i] = row
			continue
		}
		index[s.Name] = len(rows)
		rows = append(rows, row)
	}
	return g.store.Write(ctx, g.table, rows)
}
