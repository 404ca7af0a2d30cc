// Package report renders discrepancy lists as report tables.
package report

import (
	"context"
	"strconv"

	"golang.org/x/text/language"

	"github.com/agentstation/armory/pkg/differ"
	"github.com/agentstation/armory/pkg/records"
	"github.com/agentstation/armory/pkg/tables"
)

var (
	flatHebrew = []string{
		"פלוגה", "מחלקה", "מספר אישי", "שם משפחה", "שם פרטי",
		"סוג אי התאמה", "תיאור אי התאמה", "ערך בגיליון פלוגה", "ערך בגיליון גדודי",
	}
	flatEnglish = []string{
		"group", "subgroup", "entity_id", "last_name", "first_name",
		"category", "description", "value_a", "value_b",
	}

	summaryHebrew = []string{
		"פלוגה", "מחלקה", "מספר אישי", "שם משפחה", "שם פרטי",
		"סוג אי התאמה", "פרטי אי התאמה",
		"גיליון פלוגה - סוגי פריטים", "גיליון גדודי - סוגי פריטים",
		"גיליון פלוגה - כמות פריטים", "גיליון גדודי - כמות פריטים",
		"גיליון פלוגה - פריטים חסרים", "גיליון גדודי - פריטים חסרים",
	}
	summaryEnglish = []string{
		"group", "subgroup", "entity_id", "last_name", "first_name",
		"category", "description",
		"types_a", "types_b", "count_a", "count_b", "items_a", "items_b",
	}
)

// FlatHeader returns the flat report header in the given language.
func FlatHeader(tag language.Tag) []string {
	if records.IsHebrew(tag) {
		return append([]string(nil), flatHebrew...)
	}
	return append([]string(nil), flatEnglish...)
}

// SummaryHeader returns the summary report header in the given language.
func SummaryHeader(tag language.Tag) []string {
	if records.IsHebrew(tag) {
		return append([]string(nil), summaryHebrew...)
	}
	return append([]string(nil), summaryEnglish...)
}

func headerCells(h differ.Header) []string {
	return []string{h.Group, h.Subgroup, h.EntityID, h.LastName, h.FirstName}
}

// FlatRows renders flat discrepancies, without header.
func FlatRows(ds []differ.Discrepancy, tag language.Tag) [][]string {
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		row := append(headerCells(d.Header), d.Category.Label(tag), d.Description, d.ValueA, d.ValueB)
		rows = append(rows, row)
	}
	return rows
}

// SummaryRows renders summary rows, without header.
func SummaryRows(ss []differ.Summary, tag language.Tag) [][]string {
	rows := make([][]string, 0, len(ss))
	for _, s := range ss {
		row := append(headerCells(s.Header),
			s.Category.Label(tag), s.Description,
			s.TypesA, s.TypesB,
			strconv.Itoa(s.CountA), strconv.Itoa(s.CountB),
			s.ItemsA, s.ItemsB,
		)
		rows = append(rows, row)
	}
	return rows
}

// Mode selects how a report table is written.
type Mode int

const (
	// Replace overwrites the table. An empty report still writes the header.
	Replace Mode = iota
	// Append adds rows, writing the header only when the table is new.
	Append
)

// Write stores a rendered report.
func Write(ctx context.Context, s tables.Store, name string, header []string, rows [][]string, mode Mode) error {
	if mode == Append {
		return tables.AppendWithHeader(ctx, s, name, header, rows)
	}
	table := make([][]string, 0, len(rows)+1)
	table = append(table, header)
	table = append(table, rows...)
	return s.Write(ctx, name, table)
}
