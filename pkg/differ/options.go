package differ

import "golang.org/x/text/language"

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// IDSet is a read-only set of entity ids.
type IDSet interface {
	Contains(id string) bool
}

// Set is a map-backed IDSet.
type Set map[string]struct{}

// NewSet returns a Set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains implements IDSet.
func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// WithKnownIDs supplies the known-entities roster consulted for entities
// that appear only in source B. nil means no roster.
func WithKnownIDs(ids IDSet) Option {
	return func(d *differ) {
		d.known = ids
	}
}

// WithLanguage selects the language of descriptions and value markers.
func WithLanguage(tag language.Tag) Option {
	return func(d *differ) {
		d.lang = tag
	}
}

// WithConcurrency classifies up to n entities in parallel. Output order is
// unaffected. n <= 1 keeps the sequential pass.
func WithConcurrency(n int) Option {
	return func(d *differ) {
		d.workers = n
	}
}

// WithSourceNames sets the display names of sources A and B used in
// descriptions. Empty names keep the localized defaults.
func WithSourceNames(a, b string) Option {
	return func(d *differ) {
		d.nameA = a
		d.nameB = b
	}
}
