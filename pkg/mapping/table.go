package mapping

import "strings"

// TableHeader is the header row of a rule table.
var TableHeader = []string{"פלוגה", "סוג מיפוי", "ערך מקור", "ערך יעד"}

// ParseTable reads a rule table: a header row followed by
// scope, kind label, from, to. Rows with an unrecognized kind, an empty
// from, or a rename without a target are skipped.
func ParseTable(rows [][]string) []Rule {
	if len(rows) <= 1 {
		return nil
	}

	var rules []Rule
	for _, row := range rows[1:] {
		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		kind, ok := ParseKind(cell(1))
		if !ok {
			continue
		}
		r := Rule{Scope: cell(0), Kind: kind, From: cell(2), To: cell(3)}
		if r.From == "" || (kind.IsRename() && r.To == "") {
			continue
		}
		if !kind.IsRename() {
			r.To = ""
		}
		rules = append(rules, r)
	}
	return rules
}

// ToTable renders rules as a rule table with header.
func ToTable(rules []Rule) [][]string {
	rows := make([][]string, 0, len(rules)+1)
	rows = append(rows, append([]string(nil), TableHeader...))
	for _, r := range rules {
		rows = append(rows, []string{r.Scope, r.Kind.Label(), r.From, r.To})
	}
	return rows
}

// DefaultTable returns the starter rule table written by a fresh setup.
func DefaultTable() [][]string {
	return ToTable([]Rule{
		{Kind: GroupRename, From: "מפל״ג", To: "מפלג"},
		{Kind: TypeRename, From: "טריג'", To: "טריג'יקון"},
		{Kind: BlankIdentifierType, From: "M5"},
		{Kind: BlankIdentifierType, From: "טריג'יקון"},
		{Scope: "פלוגה ג", Kind: TypeRename, From: "קסדה", To: "קסדה טקטית"},
		{Kind: IgnoreType, From: "פקל"},
	})
}
