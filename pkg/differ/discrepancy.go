package differ

import "golang.org/x/text/language"

// Category classifies a discrepancy row or summary reason.
type Category string

const (
	// EntityOnlyInA: the entity has records only in source A.
	EntityOnlyInA Category = "entity-only-in-A"
	// EntityOnlyInB: the entity has records only in source B and is not on the roster.
	EntityOnlyInB Category = "entity-only-in-B"
	// KnownEntityMissingFromA: the entity is on the roster but contributed nothing to A.
	KnownEntityMissingFromA Category = "known-entity-missing-from-A"
	// ItemCountMismatch: the record counts differ.
	ItemCountMismatch Category = "item-count-mismatch"
	// TypesOnlyInA: some item types appear only in A.
	TypesOnlyInA Category = "types-only-in-A"
	// TypesOnlyInB: some item types appear only in B.
	TypesOnlyInB Category = "types-only-in-B"
	// TypesAndItemsOnlyInB: B's orphan types and orphan items render identically.
	TypesAndItemsOnlyInB Category = "types-and-items-only-in-B"
	// ItemsOnlyInB: some item keys appear only in B.
	ItemsOnlyInB Category = "items-only-in-B"
	// ItemsOnlyInA: some item keys appear only in A.
	ItemsOnlyInA Category = "items-only-in-A"
	// StatusMismatch: a shared item key has different statuses.
	StatusMismatch Category = "status-mismatch"

	// EntityMismatch is the category of a summary row for an entity present in both sources.
	EntityMismatch Category = "entity-mismatch"
	// TypesDiffer is a summary reason: the type sets differ in either direction.
	TypesDiffer Category = "types-differ"
	// ItemsDiffer is a summary reason: the item key sets differ in either direction.
	ItemsDiffer Category = "items-differ"
	// GroupMismatch is a summary reason: the header group differs.
	GroupMismatch Category = "group-mismatch"
	// SubgroupMismatch is a summary reason: the header subgroup differs.
	SubgroupMismatch Category = "subgroup-mismatch"
)

// Categories lists the flat-mode categories in emission order.
var Categories = []Category{
	EntityOnlyInA, EntityOnlyInB, KnownEntityMissingFromA,
	ItemCountMismatch, TypesOnlyInA, TypesAndItemsOnlyInB, TypesOnlyInB, ItemsOnlyInB, ItemsOnlyInA,
	StatusMismatch,
}

// Label returns the category as written to a report in the given language.
func (c Category) Label(tag language.Tag) string {
	return newPrinter(tag).Sprintf(string(c))
}

// Header holds the identifying fields shared by flat and summary rows.
type Header struct {
	Group     string `json:"group" yaml:"group"`
	Subgroup  string `json:"subgroup" yaml:"subgroup"`
	EntityID  string `json:"entity_id" yaml:"entity_id"`
	LastName  string `json:"last_name" yaml:"last_name"`
	FirstName string `json:"first_name" yaml:"first_name"`
}

// Discrepancy is one flat-mode report row.
type Discrepancy struct {
	Header

	Category    Category `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	ValueA      string   `json:"value_a" yaml:"value_a"`
	ValueB      string   `json:"value_b" yaml:"value_b"`

	// ItemKey is set on status-mismatch rows.
	ItemKey string `json:"item_key,omitempty" yaml:"item_key,omitempty"`
}

// Reason is one triggered condition of a summary row.
type Reason struct {
	Category Category `json:"category" yaml:"category"`
	Text     string   `json:"text" yaml:"text"`
}

// Summary is one summary-mode report row.
type Summary struct {
	Header

	Category       Category `json:"category" yaml:"category"`
	Reasons        []Reason `json:"reasons" yaml:"reasons"`
	Description    string   `json:"description" yaml:"description"`
	HasDiscrepancy bool     `json:"has_discrepancy" yaml:"has_discrepancy"`

	TypesA string `json:"types_a" yaml:"types_a"`
	TypesB string `json:"types_b" yaml:"types_b"`
	CountA int    `json:"count_a" yaml:"count_a"`
	CountB int    `json:"count_b" yaml:"count_b"`
	ItemsA string `json:"items_a" yaml:"items_a"`
	ItemsB string `json:"items_b" yaml:"items_b"`
}

// Has reports whether the summary was triggered by c.
func (s Summary) Has(c Category) bool {
	for _, r := range s.Reasons {
		if r.Category == c {
			return true
		}
	}
	return false
}

// Tally counts flat rows per category.
func Tally(ds []Discrepancy) map[Category]int {
	counts := make(map[Category]int)
	for _, d := range ds {
		counts[d.Category]++
	}
	return counts
}

// Entities returns the distinct entity ids of ds in order of appearance.
func Entities(ds []Discrepancy) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, d := range ds {
		if _, ok := seen[d.EntityID]; ok {
			continue
		}
		seen[d.EntityID] = struct{}{}
		ids = append(ids, d.EntityID)
	}
	return ids
}
