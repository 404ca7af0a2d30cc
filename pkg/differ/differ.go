// Package differ compares the entity profiles of two sources and reports
// categorized discrepancies.
//
// Entities are visited in a fixed order: the ids of source A in A's
// first-seen order, then the ids found only in B in B's first-seen order.
// Each entity falls into exactly one case: only in A, only in B, or in both.
// Diff renders one row per finding (flat mode); Summarize renders at most
// one row per entity (summary mode).
package differ

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agentstation/armory/pkg/profile"
)

// Differ compares two profile indexes. It never fails on well-formed input;
// nil or empty indexes are valid.
type Differ interface {
	// Diff returns the flat discrepancy list.
	Diff(a, b *profile.Index) []Discrepancy

	// Summarize returns one summary row per entity with any discrepancy.
	Summarize(a, b *profile.Index) []Summary
}

type differ struct {
	known   IDSet
	lang    language.Tag
	workers int
	nameA   string
	nameB   string
}

// New creates a Differ with English texts, no roster and a sequential pass.
func New(opts ...Option) Differ {
	d := &differ{lang: language.English}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Order returns the ids of a followed by the ids only in b.
func Order(a, b *profile.Index) []string {
	ids := a.IDs()
	for _, id := range b.IDs() {
		if !a.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Diff implements Differ.
func (d *differ) Diff(a, b *profile.Index) []Discrepancy {
	rows := classify(d, a, b, func(c *comparison) []Discrepancy { return c.flat() })
	var out []Discrepancy
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// Summarize implements Differ.
func (d *differ) Summarize(a, b *profile.Index) []Summary {
	rows := classify(d, a, b, func(c *comparison) *Summary { return c.summary() })
	var out []Summary
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// classify runs fn for every entity and slots each result at the entity's
// position, so the parallel pass yields the sequential order.
func classify[T any](d *differ, a, b *profile.Index, fn func(*comparison) T) []T {
	ids := Order(a, b)
	out := make([]T, len(ids))

	run := func(i int) {
		pa, _ := a.Get(ids[i])
		pb, _ := b.Get(ids[i])
		out[i] = fn(d.compare(ids[i], pa, pb))
	}

	if d.workers <= 1 || len(ids) < 2 {
		for i := range ids {
			run(i)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i := range ids {
		g.Go(func() error {
			run(i)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// comparison holds one entity's two profiles and the derived set differences.
type comparison struct {
	p      *message.Printer
	known  bool
	nameA  string
	nameB  string
	none   string
	id     string
	header Header
	a, b   *profile.Profile

	typesOnlyA, typesOnlyB []string
	itemsOnlyA, itemsOnlyB []string
}

func (d *differ) compare(id string, a, b *profile.Profile) *comparison {
	printer := newPrinter(d.lang)
	c := &comparison{
		p:     printer,
		id:    id,
		a:     a,
		b:     b,
		none:  printer.Sprintf(msgNone),
		nameA: d.nameA,
		nameB: d.nameB,
	}
	if c.nameA == "" {
		c.nameA = printer.Sprintf(msgSourceA)
	}
	if c.nameB == "" {
		c.nameB = printer.Sprintf(msgSourceB)
	}
	c.header = Header{
		Group:     firstNonEmpty(a, b, func(p *profile.Profile) string { return p.Group }),
		Subgroup:  firstNonEmpty(a, b, func(p *profile.Profile) string { return p.Subgroup }),
		EntityID:  id,
		LastName:  firstNonEmpty(a, b, func(p *profile.Profile) string { return p.LastName }),
		FirstName: firstNonEmpty(a, b, func(p *profile.Profile) string { return p.FirstName }),
	}
	if a == nil && b != nil && d.known != nil {
		c.known = d.known.Contains(id)
	}
	if a != nil && b != nil {
		c.typesOnlyA = missing(a.Types(), b.HasType)
		c.typesOnlyB = missing(b.Types(), a.HasType)
		c.itemsOnlyA = missing(a.ItemKeys(), b.HasItem)
		c.itemsOnlyB = missing(b.ItemKeys(), a.HasItem)
	}
	return c
}

func (c *comparison) row(cat Category, desc, valueA, valueB string) Discrepancy {
	return Discrepancy{Header: c.header, Category: cat, Description: desc, ValueA: valueA, ValueB: valueB}
}

func (c *comparison) sideSummary(p *profile.Profile) string {
	return c.p.Sprintf(msgSideSummary, join(p.Types()), join(p.ItemKeys()))
}

func (c *comparison) onlyInBCategory() Category {
	if c.known {
		return KnownEntityMissingFromA
	}
	return EntityOnlyInB
}

func (c *comparison) onlyInBDescription() string {
	if c.known {
		return c.p.Sprintf(msgKnownMissingA, c.id, c.nameB, c.nameA)
	}
	return c.p.Sprintf(msgEntityOnly, c.id, c.nameB)
}

func (c *comparison) flat() []Discrepancy {
	switch {
	case c.b == nil:
		return []Discrepancy{c.row(EntityOnlyInA, c.p.Sprintf(msgEntityOnly, c.id, c.nameA), c.sideSummary(c.a), c.none)}
	case c.a == nil:
		return []Discrepancy{c.row(c.onlyInBCategory(), c.onlyInBDescription(), c.none, c.sideSummary(c.b))}
	}

	var rows []Discrepancy

	if c.a.Count() != c.b.Count() {
		rows = append(rows, c.row(ItemCountMismatch, c.p.Sprintf(msgCountMismatch, c.id),
			strconv.Itoa(c.a.Count()), strconv.Itoa(c.b.Count())))
	}

	if len(c.typesOnlyA) > 0 {
		v := join(c.typesOnlyA)
		rows = append(rows, c.row(TypesOnlyInA, c.p.Sprintf(msgTypesOnly, v, c.nameA, c.id), v, c.none))
	}

	typesB, itemsB := join(c.typesOnlyB), join(c.itemsOnlyB)
	if typesB != "" && typesB == itemsB {
		rows = append(rows, c.row(TypesAndItemsOnlyInB, c.p.Sprintf(msgTypesItemsOnlyB, typesB, c.id, c.nameB), c.none, typesB))
	} else {
		if typesB != "" {
			rows = append(rows, c.row(TypesOnlyInB, c.p.Sprintf(msgTypesOnly, typesB, c.nameB, c.id), c.none, typesB))
		}
		if itemsB != "" {
			rows = append(rows, c.row(ItemsOnlyInB, c.p.Sprintf(msgItemsOnly, itemsB, c.id, c.nameB), c.none, itemsB))
		}
	}

	if len(c.itemsOnlyA) > 0 {
		v := join(c.itemsOnlyA)
		rows = append(rows, c.row(ItemsOnlyInA, c.p.Sprintf(msgItemsOnly, v, c.id, c.nameA), v, c.none))
	}

	for _, m := range c.statusMismatches() {
		r := c.row(StatusMismatch, c.p.Sprintf(msgStatus, m.key, c.id), m.a, m.b)
		r.ItemKey = m.key
		rows = append(rows, r)
	}
	return rows
}

type statusPair struct{ key, a, b string }

// statusMismatches walks A's items in insertion order.
func (c *comparison) statusMismatches() []statusPair {
	var out []statusPair
	for _, key := range c.a.ItemOrder() {
		sb, ok := c.b.Status(key)
		if !ok {
			continue
		}
		if sa, _ := c.a.Status(key); sa != sb {
			out = append(out, statusPair{key: key, a: sa, b: sb})
		}
	}
	return out
}

func (c *comparison) summary() *Summary {
	s := &Summary{Header: c.header}

	switch {
	case c.b == nil:
		s.Category = EntityOnlyInA
		s.Reasons = []Reason{{Category: EntityOnlyInA, Text: c.p.Sprintf(msgEntityOnly, c.id, c.nameA)}}
		s.TypesA, s.TypesB = join(c.a.Types()), c.none
		s.CountA, s.CountB = c.a.Count(), 0
		s.ItemsA, s.ItemsB = join(c.a.ItemKeys()), c.none
		return c.finish(s)
	case c.a == nil:
		s.Category = c.onlyInBCategory()
		s.Reasons = []Reason{{Category: s.Category, Text: c.onlyInBDescription()}}
		s.TypesA, s.TypesB = c.none, join(c.b.Types())
		s.CountA, s.CountB = 0, c.b.Count()
		s.ItemsA, s.ItemsB = c.none, join(c.b.ItemKeys())
		return c.finish(s)
	}

	s.Category = EntityMismatch
	s.TypesA, s.TypesB = join(c.typesOnlyA), join(c.typesOnlyB)
	s.CountA, s.CountB = c.a.Count(), c.b.Count()
	s.ItemsA, s.ItemsB = join(c.itemsOnlyA), join(c.itemsOnlyB)

	add := func(cat Category, text string) {
		s.Reasons = append(s.Reasons, Reason{Category: cat, Text: text})
	}

	if s.CountA != s.CountB {
		add(ItemCountMismatch, c.p.Sprintf(msgReasonCount, c.nameA, strconv.Itoa(s.CountA), c.nameB, strconv.Itoa(s.CountB)))
	}
	if s.TypesA != "" || s.TypesB != "" {
		add(TypesDiffer, c.p.Sprintf(msgReasonTypes))
	}
	if c.a.Group != c.b.Group {
		add(GroupMismatch, c.p.Sprintf(msgReasonGroup, c.nameA, c.a.Group, c.nameB, c.b.Group))
	}
	if c.a.Subgroup != c.b.Subgroup {
		add(SubgroupMismatch, c.p.Sprintf(msgReasonSubgroup, c.nameA, c.a.Subgroup, c.nameB, c.b.Subgroup))
	}
	if s.ItemsA != "" || s.ItemsB != "" {
		add(ItemsDiffer, c.p.Sprintf(msgReasonItems))
	}
	if mismatches := c.statusMismatches(); len(mismatches) > 0 {
		parts := make([]string, len(mismatches))
		for i, m := range mismatches {
			parts[i] = c.p.Sprintf(msgStatusPair, m.key, c.nameA, m.a, c.nameB, m.b)
		}
		add(StatusMismatch, c.p.Sprintf(msgReasonStatus, strings.Join(parts, ", ")))
	}

	if len(s.Reasons) == 0 {
		return nil
	}
	return c.finish(s)
}

func (c *comparison) finish(s *Summary) *Summary {
	texts := make([]string, len(s.Reasons))
	for i, r := range s.Reasons {
		texts[i] = r.Text
	}
	s.Description = strings.Join(texts, "; ")
	s.HasDiscrepancy = len(s.Reasons) > 0
	return s
}

func firstNonEmpty(a, b *profile.Profile, field func(*profile.Profile) string) string {
	if a != nil {
		if v := field(a); v != "" {
			return v
		}
	}
	if b != nil {
		return field(b)
	}
	return ""
}

// missing returns the elements of sorted that other does not have.
func missing(sorted []string, has func(string) bool) []string {
	var out []string
	for _, v := range sorted {
		if !has(v) {
			out = append(out, v)
		}
	}
	return out
}

func join(values []string) string {
	if !sort.StringsAreSorted(values) {
		values = append([]string(nil), values...)
		sort.Strings(values)
	}
	return strings.Join(values, ", ")
}
