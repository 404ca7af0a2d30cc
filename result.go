package armory

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/armory/pkg/differ"
	"github.com/agentstation/armory/pkg/gate"
)

// TransformResult describes one partition's transform.
type TransformResult struct {
	RunID     string `json:"run_id" yaml:"run_id"`
	Partition string `json:"partition" yaml:"partition"`
	Input     string `json:"input" yaml:"input"`
	Output    string `json:"output" yaml:"output"`
	Records   int    `json:"records" yaml:"records"`
	Entities  int    `json:"entities" yaml:"entities"`
	Skipped   int    `json:"skipped_rows" yaml:"skipped_rows"`
	Dropped   int    `json:"dropped_items" yaml:"dropped_items"`
	// RosterAdded lists ids added to the roster by this transform.
	RosterAdded []string `json:"roster_added,omitempty" yaml:"roster_added,omitempty"`
	// Missing is set when TransformAll skipped the partition because its
	// source table does not exist.
	Missing bool `json:"missing,omitempty" yaml:"missing,omitempty"`

	ids []string
}

// MergeResult describes a merge.
type MergeResult struct {
	RunID      string   `json:"run_id" yaml:"run_id"`
	Output     string   `json:"output" yaml:"output"`
	Partitions []string `json:"partitions" yaml:"partitions"`
	// Missing lists listed partitions without a normalized table.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Rows    int      `json:"rows" yaml:"rows"`
}

// Mode is the report presentation.
type Mode string

// Report modes.
const (
	FlatMode    Mode = "flat"
	SummaryMode Mode = "summary"
)

// Report is the outcome of a comparison.
type Report struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Mode      Mode          `json:"mode" yaml:"mode"`
	Local     string        `json:"local" yaml:"local"`
	Authority string        `json:"authority" yaml:"authority"`
	Output    string        `json:"output" yaml:"output"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	RecordsA  int `json:"records_local" yaml:"records_local"`
	RecordsB  int `json:"records_authority" yaml:"records_authority"`
	EntitiesA int `json:"entities_local" yaml:"entities_local"`
	EntitiesB int `json:"entities_authority" yaml:"entities_authority"`
	Rules     int `json:"rules" yaml:"rules"`
	Known     int `json:"known_entities" yaml:"known_entities"`

	Discrepancies []differ.Discrepancy `json:"discrepancies,omitempty" yaml:"discrepancies,omitempty"`
	Summaries     []differ.Summary     `json:"summaries,omitempty" yaml:"summaries,omitempty"`

	// Header and Rows are the report table as written, header excluded from Rows.
	Header []string   `json:"-" yaml:"-"`
	Rows   [][]string `json:"-" yaml:"-"`
}

// Count returns the number of report rows.
func (r *Report) Count() int {
	if r == nil {
		return 0
	}
	if r.Mode == SummaryMode {
		return len(r.Summaries)
	}
	return len(r.Discrepancies)
}

// Clean reports whether the sources agree.
func (r *Report) Clean() bool { return r.Count() == 0 }

// Entities returns the ids with at least one discrepancy, in report order.
func (r *Report) Entities() []string {
	if r == nil {
		return nil
	}
	if r.Mode == SummaryMode {
		ids := make([]string, len(r.Summaries))
		for i, s := range r.Summaries {
			ids[i] = s.EntityID
		}
		return ids
	}
	return differ.Entities(r.Discrepancies)
}

// Tally counts report rows by category.
func (r *Report) Tally() map[differ.Category]int {
	if r == nil {
		return nil
	}
	if r.Mode == SummaryMode {
		counts := make(map[differ.Category]int)
		for _, s := range r.Summaries {
			counts[s.Category]++
		}
		return counts
	}
	return differ.Tally(r.Discrepancies)
}

// String returns a one-line summary.
func (r *Report) String() string {
	if r == nil {
		return "no report"
	}
	return fmt.Sprintf("%s report %s: %d rows for %d entities (%s vs %s)",
		r.Mode, r.Output, r.Count(), len(r.Entities()), r.Local, r.Authority)
}

// SyncResult is the outcome of a sync.
type SyncResult struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	Transforms []*TransformResult `json:"transforms" yaml:"transforms"`
	Merge      *MergeResult       `json:"merge,omitempty" yaml:"merge,omitempty"`
	Decision   *gate.Decision     `json:"decision" yaml:"decision"`
	Report     *Report            `json:"report,omitempty" yaml:"report,omitempty"`
	// Skipped is true when the compared tables had not changed.
	Skipped bool `json:"skipped" yaml:"skipped"`
}

// String returns a one-line summary.
func (r *SyncResult) String() string {
	if r == nil {
		return "no sync"
	}
	if r.Skipped {
		return "sync skipped: no changes detected"
	}
	var b strings.Builder
	b.WriteString("sync ran")
	if r.Decision != nil {
		if names := r.Decision.ChangedNames(); len(names) > 0 {
			fmt.Fprintf(&b, " (changed: %s)", strings.Join(names, ", "))
		}
	}
	if r.Report != nil {
		fmt.Fprintf(&b, ": %s", r.Report)
	}
	return b.String()
}
