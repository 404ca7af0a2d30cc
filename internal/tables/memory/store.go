// Package memory provides an in-process table store for tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/tables"
)

// Store is the memory backend; it is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	tables   map[string][][]string
	readOnly bool
}

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string][][]string)}
}

// NewWithTables creates a store preloaded with deep copies of seed.
func NewWithTables(seed map[string][][]string) *Store {
	s := New()
	for name, rows := range seed {
		s.tables[name] = tables.Clone(rows)
	}
	return s
}

// NewReadOnly creates a preloaded store that rejects writes.
func NewReadOnly(seed map[string][][]string) *Store {
	s := NewWithTables(seed)
	s.readOnly = true
	return s
}

// Read implements tables.Reader.
func (s *Store) Read(ctx context.Context, name string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.tables[name]
	if !ok {
		return nil, errors.NewSourceNotFound(name)
	}
	return tables.Clone(rows), nil
}

// List implements tables.Reader.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Write implements tables.Writer.
func (s *Store) Write(ctx context.Context, name string, rows [][]string) error {
	if err := s.writable(ctx, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = tables.Clone(rows)
	return nil
}

// Append implements tables.Writer.
func (s *Store) Append(ctx context.Context, name string, rows [][]string) error {
	if err := s.writable(ctx, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = append(s.tables[name], tables.Clone(rows)...)
	return nil
}

// Close implements tables.Store.
func (s *Store) Close() error {
	return nil
}

// Delete removes a table. Deleting a missing table is not an error.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, name)
}

// Snapshot returns deep copies of every table.
func (s *Store) Snapshot() map[string][][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][][]string, len(s.tables))
	for name, rows := range s.tables {
		out[name] = tables.Clone(rows)
	}
	return out
}

func (s *Store) writable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.readOnly {
		return errors.ErrReadOnly
	}
	return tables.ValidateName(name)
}
