// Package records defines the canonical equipment-assignment record and
// its tabular form.
//
// Every source layout is reshaped into the same nine columns:
//
//	group, subgroup, entity_id, last_name, first_name, item_type, quantity, identifier, status
//
// Header labels are presentation only; rows are always read by position.
package records

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Column positions in a canonical row.
const (
	ColGroup = iota
	ColSubgroup
	ColEntityID
	ColLastName
	ColFirstName
	ColItemType
	ColQuantity
	ColIdentifier
	ColStatus

	// NumColumns is the width of a canonical row.
	NumColumns
)

// Record is one assigned item for one person, as produced by a layout
// adapter. Records are values; transformations return modified copies.
type Record struct {
	Group      string  `json:"group" yaml:"group"`
	Subgroup   string  `json:"subgroup" yaml:"subgroup"`
	EntityID   string  `json:"entity_id" yaml:"entity_id"`
	LastName   string  `json:"last_name" yaml:"last_name"`
	FirstName  string  `json:"first_name" yaml:"first_name"`
	ItemType   string  `json:"item_type" yaml:"item_type"`
	Quantity   float64 `json:"quantity" yaml:"quantity"`
	Identifier string  `json:"identifier" yaml:"identifier"`
	Status     string  `json:"status" yaml:"status"`
}

var (
	// HebrewHeader is the header written by default, matching the workbooks
	// the records originate from.
	HebrewHeader = []string{"פלוגה", "מחלקה", "מספר אישי", "שם משפחה", "שם פרטי", "סוג פריט", "כמות", "מזהה", "סטטוס"}

	// EnglishHeader is the alternative header.
	EnglishHeader = []string{"group", "subgroup", "entity_id", "last_name", "first_name", "item_type", "quantity", "identifier", "status"}
)

// Header returns a copy of the canonical header for the given language.
// Hebrew is returned for any Hebrew tag, English otherwise.
func Header(tag language.Tag) []string {
	if IsHebrew(tag) {
		return append([]string(nil), HebrewHeader...)
	}
	return append([]string(nil), EnglishHeader...)
}

// IsHebrew reports whether tag's base language is Hebrew.
func IsHebrew(tag language.Tag) bool {
	base, _ := tag.Base()
	return base.String() == "he"
}

// EntityKey returns the trimmed entity id. Records with an empty key
// cannot be attributed to anyone.
func (r Record) EntityKey() string {
	return strings.TrimSpace(r.EntityID)
}

// Row renders the record as a canonical row.
func (r Record) Row() []string {
	row := make([]string, NumColumns)
	row[ColGroup] = r.Group
	row[ColSubgroup] = r.Subgroup
	row[ColEntityID] = r.EntityID
	row[ColLastName] = r.LastName
	row[ColFirstName] = r.FirstName
	row[ColItemType] = r.ItemType
	row[ColQuantity] = FormatQuantity(r.Quantity)
	row[ColIdentifier] = r.Identifier
	row[ColStatus] = r.Status
	return row
}

// ParseRow reads a canonical row. Short rows are padded with empty cells
// and extra cells are ignored. An unparseable quantity reads as zero.
func ParseRow(row []string) Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Group:      cell(ColGroup),
		Subgroup:   cell(ColSubgroup),
		EntityID:   cell(ColEntityID),
		LastName:   cell(ColLastName),
		FirstName:  cell(ColFirstName),
		ItemType:   cell(ColItemType),
		Quantity:   ParseQuantity(cell(ColQuantity)),
		Identifier: cell(ColIdentifier),
		Status:     cell(ColStatus),
	}
}

// FromTable parses a canonical table. The first row is the header and is
// skipped; fully empty rows are skipped as well.
func FromTable(rows [][]string) []Record {
	if len(rows) <= 1 {
		return nil
	}
	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		out = append(out, ParseRow(row))
	}
	return out
}

// ToTable renders records under the given header.
func ToTable(header []string, recs []Record) [][]string {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, append([]string(nil), header...))
	for _, r := range recs {
		rows = append(rows, r.Row())
	}
	return rows
}

// ParseQuantity parses a quantity cell. Empty and malformed cells are 0.
func ParseQuantity(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return q
}

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
