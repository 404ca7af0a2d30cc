// Package table converts pipeline results into tabular command output.
package table

import (
	"strconv"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/cmd/output"
	"github.com/agentstation/armory/pkg/differ"
	"github.com/agentstation/armory/pkg/layout"
	"github.com/agentstation/armory/pkg/mapping"
	"github.com/agentstation/armory/pkg/roster"
)

// Columns of the report tables shown by the narrow table format.
var (
	flatNarrow    = []int{0, 2, 5, 7, 8}
	summaryNarrow = []int{0, 2, 5, 9, 10}
)

// Report renders a report as written to the store.
func Report(r *armory.Report) *output.Data {
	d := &output.Data{Headers: r.Header, Rows: r.Rows, Narrow: flatNarrow}
	if r.Mode == armory.SummaryMode {
		d.Narrow = summaryNarrow
		d.RightAlign = []int{9, 10}
	}
	return d
}

// Tally renders the row count per category.
func Tally(r *armory.Report) *output.Data {
	d := &output.Data{Headers: []string{"Category", "Rows"}, RightAlign: []int{1}}
	counts := r.Tally()
	for _, c := range categoryOrder(r) {
		d.Rows = append(d.Rows, []string{string(c), strconv.Itoa(counts[c])})
	}
	return d
}

// Transforms renders transform results, one row per partition.
func Transforms(results []*armory.TransformResult) *output.Data {
	d := &output.Data{
		Headers:    []string{"Partition", "Input", "Output", "Records", "Entities", "Skipped", "Dropped", "New IDs", "Status"},
		Narrow:     []int{0, 3, 4, 7, 8},
		RightAlign: []int{3, 4, 5, 6, 7},
	}
	for _, r := range results {
		status := "ok"
		if r.Missing {
			status = "missing input"
		}
		d.Rows = append(d.Rows, []string{
			r.Partition, r.Input, r.Output,
			strconv.Itoa(r.Records), strconv.Itoa(r.Entities),
			strconv.Itoa(r.Skipped), strconv.Itoa(r.Dropped),
			strconv.Itoa(len(r.RosterAdded)), status,
		})
	}
	return d
}

// Rules renders a rule table.
func Rules(rules []mapping.Rule) *output.Data {
	d := &output.Data{Headers: []string{"Scope", "Kind", "From", "To"}}
	for _, r := range rules {
		scope := r.Scope
		if scope == "" {
			scope = "*"
		}
		d.Rows = append(d.Rows, []string{scope, r.Kind.String(), r.From, r.To})
	}
	return d
}

// Roster renders the known entity ids.
func Roster(s *roster.Snapshot) *output.Data {
	d := &output.Data{Headers: []string{"Entity ID"}}
	for _, id := range s.IDs() {
		d.Rows = append(d.Rows, []string{id})
	}
	return d
}

// Layouts renders the partition layouts.
func Layouts(c *layout.Config) *output.Data {
	d := &output.Data{Headers: []string{"Partition", "Kind", "Input", "Output", "Mappings", "Status"}}
	for _, l := range c.Partitions {
		mappings := "on"
		if !l.MappingsEnabled() {
			mappings = "off"
		}
		d.Rows = append(d.Rows, []string{l.Name, string(l.Kind), l.InputTable(), l.OutputTable(), mappings, l.RecordStatus()})
	}
	return d
}

func categoryOrder(r *armory.Report) []differ.Category {
	seen := make(map[differ.Category]bool)
	var order []differ.Category
	add := func(c differ.Category) {
		if !seen[c] {
			seen[c] = true
			order = append(order, c)
		}
	}
	for _, d := range r.Discrepancies {
		add(d.Category)
	}
	for _, s := range r.Summaries {
		add(s.Category)
	}
	return order
}
