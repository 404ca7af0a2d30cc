// Package profile groups normalized records into per-entity profiles.
//
// Profiles are keyed by the trimmed entity id and kept in first-seen order.
// The first record of an entity seeds its header fields; later records only
// contribute items. Items are keyed by a KeyFunc, type:identifier by default,
// and a later record with the same key overwrites the earlier status.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/armory/pkg/records"
)

// KeyFunc builds the item key of r. ordinal is 1 for the first record in the
// profile with r's type and identifier, 2 for the second, and so on.
type KeyFunc func(r records.Record, ordinal int) string

// DefaultKey is type:identifier. Items of a blank-identifier type share one
// key, so only the last status of such a type survives.
func DefaultKey(r records.Record, _ int) string {
	return r.ItemType + ":" + r.Identifier
}

// DisambiguatedKey numbers items without an identifier per type
// (type:#1, type:#2, ...) so they never collide. An identifier that itself
// starts with '#' gets one more '#', keeping it apart from the numbered
// blanks.
func DisambiguatedKey(r records.Record, ordinal int) string {
	switch {
	case r.Identifier == "":
		return fmt.Sprintf("%s:#%d", r.ItemType, ordinal)
	case strings.HasPrefix(r.Identifier, "#"):
		return r.ItemType + ":#" + r.Identifier
	}
	return DefaultKey(r, ordinal)
}

// Profile is the aggregated view of one entity within one source.
type Profile struct {
	EntityID  string
	Group     string
	Subgroup  string
	LastName  string
	FirstName string

	// Records lists every contributing record in input order.
	Records []records.Record

	types     map[string]struct{}
	statuses  map[string]string
	itemOrder []string
	ordinals  map[string]int
}

func newProfile(id string, first records.Record) *Profile {
	return &Profile{
		EntityID:  id,
		Group:     first.Group,
		Subgroup:  first.Subgroup,
		LastName:  first.LastName,
		FirstName: first.FirstName,
		types:     make(map[string]struct{}),
		statuses:  make(map[string]string),
		ordinals:  make(map[string]int),
	}
}

func (p *Profile) add(r records.Record, key KeyFunc) {
	p.Records = append(p.Records, r)
	p.types[r.ItemType] = struct{}{}

	dup := r.ItemType + "\x00" + r.Identifier
	p.ordinals[dup]++

	k := key(r, p.ordinals[dup])
	if _, seen := p.statuses[k]; !seen {
		p.itemOrder = append(p.itemOrder, k)
	}
	p.statuses[k] = r.Status
}

// Count returns the number of contributing records.
func (p *Profile) Count() int {
	return len(p.Records)
}

// Types returns the distinct item types, sorted.
func (p *Profile) Types() []string {
	return sortedKeys(p.types)
}

// ItemKeys returns the distinct item keys, sorted.
func (p *Profile) ItemKeys() []string {
	keys := append([]string(nil), p.itemOrder...)
	sort.Strings(keys)
	return keys
}

// ItemOrder returns the distinct item keys in first-insertion order.
func (p *Profile) ItemOrder() []string {
	return append([]string(nil), p.itemOrder...)
}

// Status returns the status recorded for an item key.
func (p *Profile) Status(key string) (string, bool) {
	s, ok := p.statuses[key]
	return s, ok
}

// HasType reports whether the profile holds an item of type t.
func (p *Profile) HasType(t string) bool {
	_, ok := p.types[t]
	return ok
}

// HasItem reports whether the profile holds item key k.
func (p *Profile) HasItem(k string) bool {
	_, ok := p.statuses[k]
	return ok
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
