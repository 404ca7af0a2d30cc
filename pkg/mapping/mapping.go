// Package mapping normalizes canonical records with a table of rules
// before they are aggregated.
//
// Four rule kinds exist: item-type renames, group renames, ignored types and
// blank-identifier types. For each record the engine renames the type,
// drops the record if the renamed type is ignored, then clears the
// identifier if the renamed type is a blank-identifier type. Group renames
// apply to both group fields independently of the type rules.
//
// Rules may be scoped to a source partition. When processing the merged
// view every rule applies regardless of scope; when processing a partition
// only global rules and rules scoped to that partition apply.
package mapping

import (
	stderrors "errors"
	"fmt"

	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/records"
)

// ErrRuleChain is wrapped by the configuration error returned when one
// rename's target is another admitted rename's source.
var ErrRuleChain = stderrors.New("chained rename rules")

// Rule is one row of the rule table.
type Rule struct {
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Kind  Kind   `json:"kind" yaml:"kind"`
	From  string `json:"from" yaml:"from"`
	To    string `json:"to,omitempty" yaml:"to,omitempty"`
}

// Scope selects which rules apply during one pass.
type Scope struct {
	name   string
	merged bool
}

// Merged is the scope of the consolidated view: every rule applies.
var Merged = Scope{merged: true}

// Partition returns the scope of a single named source partition.
func Partition(name string) Scope {
	return Scope{name: name}
}

// IsMerged reports whether s is the merged scope.
func (s Scope) IsMerged() bool { return s.merged }

// Name returns the partition name, empty for the merged scope.
func (s Scope) Name() string { return s.name }

func (s Scope) String() string {
	if s.merged {
		return "merged"
	}
	return "partition:" + s.name
}

// Admits reports whether r applies under s.
func (s Scope) Admits(r Rule) bool {
	return s.merged || r.Scope == "" || r.Scope == s.name
}

// Engine is a resolved, read-only rule table for one scope.
// A nil *Engine is the identity.
type Engine struct {
	scope    Scope
	types    map[string]string
	groups   map[string]string
	ignored  map[string]struct{}
	blank    map[string]struct{}
	admitted []Rule
	shadowed []Rule
}

// New resolves rules for scope. Within one kind the first rule for a given
// From wins and later ones are recorded as shadowed. A rename whose To is
// the From of another admitted rename of the same kind is rejected.
func New(rules []Rule, scope Scope) (*Engine, error) {
	e := &Engine{
		scope:   scope,
		types:   make(map[string]string),
		groups:  make(map[string]string),
		ignored: make(map[string]struct{}),
		blank:   make(map[string]struct{}),
	}

	for _, r := range rules {
		if !scope.Admits(r) {
			continue
		}
		if !e.add(r) {
			e.shadowed = append(e.shadowed, r)
			continue
		}
		e.admitted = append(e.admitted, r)
	}

	if err := e.checkChains(); err != nil {
		return nil, err
	}
	return e, nil
}

// Identity returns the pass-through engine used when no rule table exists.
func Identity() *Engine {
	return nil
}

func (e *Engine) add(r Rule) bool {
	switch r.Kind {
	case TypeRename:
		return putOnce(e.types, r.From, r.To)
	case GroupRename:
		return putOnce(e.groups, r.From, r.To)
	case IgnoreType:
		return addOnce(e.ignored, r.From)
	case BlankIdentifierType:
		return addOnce(e.blank, r.From)
	default:
		return false
	}
}

func (e *Engine) checkChains() error {
	for _, r := range e.admitted {
		var table map[string]string
		switch r.Kind {
		case TypeRename:
			table = e.types
		case GroupRename:
			table = e.groups
		default:
			continue
		}
		if r.To == r.From {
			continue
		}
		if next, ok := table[r.To]; ok && next != r.To {
			return errors.NewConfigError("mapping",
				fmt.Sprintf("%s rule %q -> %q chains into %q -> %q (scope %s)", r.Kind, r.From, r.To, r.To, next, e.scope),
				ErrRuleChain)
		}
	}
	return nil
}

// ApplyOne normalizes a single record. The second result is false when the
// record is dropped by an ignore rule.
func (e *Engine) ApplyOne(r records.Record) (records.Record, bool) {
	if e == nil {
		return r, true
	}

	if to, ok := e.types[r.ItemType]; ok {
		r.ItemType = to
	}
	if _, ok := e.ignored[r.ItemType]; ok {
		return r, false
	}
	if _, ok := e.blank[r.ItemType]; ok {
		r.Identifier = ""
	}

	if to, ok := e.groups[r.Group]; ok {
		r.Group = to
	}
	if to, ok := e.groups[r.Subgroup]; ok {
		r.Subgroup = to
	}
	return r, true
}

// Apply normalizes recs, returning a new slice without dropped records.
func (e *Engine) Apply(recs []records.Record) []records.Record {
	if e == nil {
		return append([]records.Record(nil), recs...)
	}
	out := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		if mapped, keep := e.ApplyOne(r); keep {
			out = append(out, mapped)
		}
	}
	return out
}

// Scope returns the scope the engine was resolved for.
func (e *Engine) Scope() Scope {
	if e == nil {
		return Merged
	}
	return e.scope
}

// Rules returns the admitted rules in table order.
func (e *Engine) Rules() []Rule {
	if e == nil {
		return nil
	}
	return append([]Rule(nil), e.admitted...)
}

// Shadowed returns admitted-scope rules that lost to an earlier rule with
// the same kind and From.
func (e *Engine) Shadowed() []Rule {
	if e == nil {
		return nil
	}
	return append([]Rule(nil), e.shadowed...)
}

// Len returns the number of admitted rules.
func (e *Engine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.admitted)
}

// Apply resolves rules for scope and normalizes recs in one call.
func Apply(recs []records.Record, rules []Rule, scope Scope) ([]records.Record, error) {
	e, err := New(rules, scope)
	if err != nil {
		return nil, err
	}
	return e.Apply(recs), nil
}

func putOnce(m map[string]string, from, to string) bool {
	if _, exists := m[from]; exists {
		return false
	}
	m[from] = to
	return true
}

func addOnce(m map[string]struct{}, from string) bool {
	if _, exists := m[from]; exists {
		return false
	}
	m[from] = struct{}{}
	return true
}
