// Package tables opens table store backends from a location string.
//
//	mem://                   in-process store
//	csv://path/to/dir        one CSV file per table
//	path/to/dir              same as csv://
//	xlsx://path/book.xlsx    one worksheet per table
//	path/book.xlsx           same as xlsx://
//	sqlite://path/armory.db  SQLite database
//	postgres://user@host/db  PostgreSQL database
package tables

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/agentstation/armory/internal/tables/csvdir"
	"github.com/agentstation/armory/internal/tables/memory"
	"github.com/agentstation/armory/internal/tables/sqldb"
	"github.com/agentstation/armory/internal/tables/workbook"
	"github.com/agentstation/armory/pkg/errors"
	pkgtables "github.com/agentstation/armory/pkg/tables"
)

// Kind identifies a backend.
type Kind string

// Backend kinds.
const (
	Memory   Kind = "mem"
	CSV      Kind = "csv"
	Workbook Kind = "xlsx"
	SQLite   Kind = "sqlite"
	Postgres Kind = "postgres"
)

// Location is a parsed store location.
type Location struct {
	Kind Kind
	// Path is the directory, workbook file, sqlite file or postgres DSN.
	Path string
}

// Local reports whether the location is on the local filesystem.
func (l Location) Local() bool {
	switch l.Kind {
	case CSV, Workbook, SQLite:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (l Location) String() string {
	if l.Kind == Postgres {
		return l.Path
	}
	return string(l.Kind) + "://" + l.Path
}

// Parse parses a store location.
func Parse(uri string) (Location, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Location{}, errors.NewValidationError("store", uri, "store location is empty")
	}

	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		if strings.EqualFold(filepath.Ext(uri), ".xlsx") {
			return Location{Kind: Workbook, Path: uri}, nil
		}
		return Location{Kind: CSV, Path: uri}, nil
	}

	switch strings.ToLower(scheme) {
	case "mem", "memory":
		return Location{Kind: Memory}, nil
	case "csv", "file":
		return requirePath(CSV, uri, rest)
	case "xlsx", "excel":
		return requirePath(Workbook, uri, rest)
	case "sqlite", "sqlite3":
		return requirePath(SQLite, uri, rest)
	case "postgres", "postgresql":
		return Location{Kind: Postgres, Path: uri}, nil
	default:
		return Location{}, errors.NewValidationError("store", uri, "unknown store scheme "+scheme)
	}
}

func requirePath(kind Kind, uri, path string) (Location, error) {
	if path == "" {
		return Location{}, errors.NewValidationError("store", uri, "missing path")
	}
	return Location{Kind: kind, Path: path}, nil
}

// Open parses uri and opens the backend it names.
func Open(ctx context.Context, uri string) (pkgtables.Store, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}
	return OpenLocation(ctx, loc)
}

// OpenLocation opens a parsed location.
func OpenLocation(ctx context.Context, loc Location) (pkgtables.Store, error) {
	switch loc.Kind {
	case Memory:
		return memory.New(), nil
	case CSV:
		return csvdir.Open(loc.Path)
	case Workbook:
		return workbook.Open(loc.Path)
	case SQLite:
		return sqldb.Open(ctx, sqldb.SQLite, loc.Path)
	case Postgres:
		return sqldb.Open(ctx, sqldb.Postgres, loc.Path)
	default:
		return nil, errors.NewValidationError("store", string(loc.Kind), "unknown store kind")
	}
}
