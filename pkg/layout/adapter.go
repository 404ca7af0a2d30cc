package layout

import (
	"strings"

	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/mapping"
	"github.com/agentstation/armory/pkg/records"
)

// Result is the output of adapting one partition's source table.
type Result struct {
	Partition string
	Records   []records.Record
	// IDs are the entity ids seen, unique, in first-seen order. Entities
	// without items are included.
	IDs []string
	// Rows is the number of source rows read, excluding the header.
	Rows int
	// Skipped counts rows without an entity id.
	Skipped int
	// Dropped counts items removed by ignore rules.
	Dropped int
}

// Table renders the records as a canonical table with header.
func (r *Result) Table(header []string) [][]string {
	return records.ToTable(header, r.Records)
}

// Adapt converts rows (header first) into canonical records. engine is the
// partition-scoped mapping engine; it is ignored when the layout disables
// mappings, and nil means identity.
func (l Layout) Adapt(rows [][]string, engine *mapping.Engine) *Result {
	if !l.MappingsEnabled() {
		engine = nil
	}
	res := &Result{Partition: l.Name}
	if len(rows) == 0 {
		return res
	}

	header := rows[0]
	seen := make(map[string]struct{})
	for _, row := range rows[1:] {
		if l.StopMarker != "" && len(row) > 0 && strings.TrimSpace(row[0]) == l.StopMarker {
			break
		}
		res.Rows++

		base, ok := l.person(row)
		if !ok {
			res.Skipped++
			continue
		}
		if _, dup := seen[base.EntityID]; !dup {
			seen[base.EntityID] = struct{}{}
			res.IDs = append(res.IDs, base.EntityID)
		}

		l.items(header, row, func(itemType, identifier string) {
			rec := base
			rec.ItemType = itemType
			rec.Identifier = identifier
			mapped, keep := engine.ApplyOne(rec)
			if !keep {
				res.Dropped++
				return
			}
			res.Records = append(res.Records, mapped)
		})
	}
	return res
}

// person reads the per-row fields shared by every item of the row.
func (l Layout) person(row []string) (records.Record, bool) {
	id := l.EntityColumn.cell(row)
	if id == "" {
		return records.Record{}, false
	}
	return records.Record{
		Group:     optional(l.GroupColumn, row, l.Name),
		Subgroup:  optional(l.SubgroupColumn, row, ""),
		EntityID:  id,
		LastName:  optional(l.LastNameColumn, row, ""),
		FirstName: optional(l.FirstNameColumn, row, ""),
		Quantity:  1,
		Status:    l.RecordStatus(),
	}, true
}

func (l Layout) items(header, row []string, emit func(itemType, identifier string)) {
	switch l.Kind {
	case Columns:
		for c := *l.ItemsFrom; int(c) < len(header); c++ {
			itemType, value := c.cell(header), c.cell(row)
			if itemType != "" && value != "" {
				emit(itemType, value)
			}
		}
	case Paired:
		for _, p := range l.Pairs {
			itemType, value := p.Type.cell(row), p.Value.cell(row)
			if itemType == "" {
				continue
			}
			if value == "" {
				value = constants.PresenceMarker
			}
			emit(itemType, value)
		}
		for _, c := range l.Singles {
			itemType, value := c.cell(header), c.cell(row)
			if itemType != "" && value != "" {
				emit(itemType, value)
			}
		}
	}
}

func optional(c *Column, row []string, fallback string) string {
	if c == nil {
		return fallback
	}
	return c.cell(row)
}
