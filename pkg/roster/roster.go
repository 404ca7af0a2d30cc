// Package roster maintains the known-entities roster: the append-only list
// of entity ids that have appeared in any partition's source table.
//
// The differ consults a Snapshot to tell an entity that is genuinely
// unknown locally from one that is known but missing from the merged local
// table.
package roster

import (
	"context"
	"strings"

	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/tables"
)

// Header is the roster table's first row.
var Header = []string{constants.RosterHeader}

// Snapshot is a read-only view of the roster at one point in time.
// A nil Snapshot contains nothing.
type Snapshot struct {
	ids  []string
	seen map[string]struct{}
}

// NewSnapshot builds a snapshot from ids, trimming and de-duplicating them.
func NewSnapshot(ids ...string) *Snapshot {
	s := &Snapshot{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *Snapshot) add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Contains reports whether id is on the roster.
func (s *Snapshot) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[strings.TrimSpace(id)]
	return ok
}

// IDs returns the roster ids in table order.
func (s *Snapshot) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.ids...)
}

// Len returns the number of ids.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// FromTable parses roster rows, skipping the header.
func FromTable(rows [][]string) *Snapshot {
	s := NewSnapshot()
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		s.add(row[0])
	}
	return s
}

// Load reads the roster table. A missing table is an empty roster.
func Load(ctx context.Context, r tables.Reader, table string) (*Snapshot, error) {
	rows, _, err := tables.ReadOptional(ctx, r, table)
	if err != nil {
		return nil, err
	}
	return FromTable(rows), nil
}

// Append adds ids not already on the roster, in the given order, creating
// the table with its header if needed. It returns the ids that were added.
func Append(ctx context.Context, s tables.Store, table string, ids []string) ([]string, error) {
	current, err := Load(ctx, s, table)
	if err != nil {
		return nil, err
	}

	var added []string
	var rows [][]string
	for _, id := range ids {
		if current.add(id) {
			id = strings.TrimSpace(id)
			added = append(added, id)
			rows = append(rows, []string{id})
		}
	}
	if err := tables.AppendWithHeader(ctx, s, table, Header, rows); err != nil {
		return nil, err
	}
	return added, nil
}
