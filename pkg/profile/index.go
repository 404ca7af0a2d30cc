package profile

import "github.com/agentstation/armory/pkg/records"

// Index holds the profiles of one source in first-seen order.
// A nil *Index is a valid empty index.
type Index struct {
	ids     []string
	byID    map[string]*Profile
	dropped int
}

// Option configures aggregation.
type Option func(*aggregator)

type aggregator struct {
	key KeyFunc
}

// WithKeyFunc replaces DefaultKey.
func WithKeyFunc(fn KeyFunc) Option {
	return func(a *aggregator) {
		if fn != nil {
			a.key = fn
		}
	}
}

// Aggregate groups recs by trimmed entity id. Records without an id are
// skipped and counted in Dropped.
func Aggregate(recs []records.Record, opts ...Option) *Index {
	a := &aggregator{key: DefaultKey}
	for _, opt := range opts {
		opt(a)
	}

	idx := &Index{byID: make(map[string]*Profile)}
	for _, r := range recs {
		id := r.EntityKey()
		if id == "" {
			idx.dropped++
			continue
		}
		p, ok := idx.byID[id]
		if !ok {
			p = newProfile(id, r)
			idx.byID[id] = p
			idx.ids = append(idx.ids, id)
		}
		p.add(r, a.key)
	}
	return idx
}

// Len returns the number of profiles.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.ids)
}

// IDs returns entity ids in first-seen order.
func (idx *Index) IDs() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.ids...)
}

// Get returns the profile of id.
func (idx *Index) Get(id string) (*Profile, bool) {
	if idx == nil {
		return nil, false
	}
	p, ok := idx.byID[id]
	return p, ok
}

// Has reports whether id has a profile.
func (idx *Index) Has(id string) bool {
	_, ok := idx.Get(id)
	return ok
}

// Profiles returns profiles in first-seen order.
func (idx *Index) Profiles() []*Profile {
	if idx == nil {
		return nil
	}
	out := make([]*Profile, len(idx.ids))
	for i, id := range idx.ids {
		out[i] = idx.byID[id]
	}
	return out
}

// Dropped returns the number of records skipped for lacking an entity id.
func (idx *Index) Dropped() int {
	if idx == nil {
		return 0
	}
	return idx.dropped
}
