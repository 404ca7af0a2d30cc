// Package tables defines the contract of a named-table store.
//
// A table is a list of rows of string cells; the first row is usually a
// header but stores do not interpret it. Backends live under
// internal/tables.
package tables

import (
	"context"

	"github.com/agentstation/armory/pkg/errors"
)

// Reader reads named tables.
type Reader interface {
	// Read returns the rows of a table. A missing table yields an error
	// matching errors.ErrNotFound.
	Read(ctx context.Context, name string) ([][]string, error)

	// List returns the table names in the store.
	List(ctx context.Context) ([]string, error)
}

// Writer writes named tables.
type Writer interface {
	// Write replaces the table, creating it if needed.
	Write(ctx context.Context, name string, rows [][]string) error

	// Append adds rows to the end of the table, creating it if needed.
	Append(ctx context.Context, name string, rows [][]string) error
}

// Store is a readable and writable table store.
type Store interface {
	Reader
	Writer
	Close() error
}

// Exists reports whether a table is present.
func Exists(ctx context.Context, r Reader, name string) (bool, error) {
	_, err := r.Read(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// ReadOptional reads a table, returning nil rows and no error when absent.
func ReadOptional(ctx context.Context, r Reader, name string) ([][]string, bool, error) {
	rows, err := r.Read(ctx, name)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rows, true, nil
}

// AppendWithHeader appends rows, writing header first when the table is new.
func AppendWithHeader(ctx context.Context, s Store, name string, header []string, rows [][]string) error {
	exists, err := Exists(ctx, s, name)
	if err != nil {
		return err
	}
	if !exists {
		return s.Write(ctx, name, append([][]string{header}, rows...))
	}
	if len(rows) == 0 {
		return nil
	}
	return s.Append(ctx, name, rows)
}

// Clone deep-copies rows.
func Clone(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// ValidateName rejects names no backend can hold.
func ValidateName(name string) error {
	if name == "" {
		return errors.NewValidationError("table", name, "table name is empty")
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == 0 {
			return errors.NewValidationError("table", name, "table name contains a path separator")
		}
	}
	return nil
}
