// Package sqldb stores tables in a SQL database. Every table lives in the
// same two relations: armory_tables names the tables and armory_rows holds
// each row as a JSON array of cells.
//
// Two dialects are supported: sqlite (modernc.org/sqlite, pure Go) and
// postgres (github.com/lib/pq).
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/tables"
)

// Dialect selects the driver and placeholder style.
type Dialect string

const (
	// SQLite uses modernc.org/sqlite.
	SQLite Dialect = "sqlite"
	// Postgres uses github.com/lib/pq.
	Postgres Dialect = "postgres"
)

// Store is a SQL-backed table store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	dsn     string
}

// Open connects, pings and creates the schema if needed. For sqlite the dsn
// is a file path whose directory is created.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	switch dialect {
	case SQLite:
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
				return nil, errors.WrapIO("open", dsn, err)
			}
		}
	case Postgres:
	default:
		return nil, errors.NewValidationError("dialect", string(dialect), "unsupported SQL dialect")
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, errors.WrapIO("open", redact(dsn), err)
	}
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("ping", redact(dsn), err)
	}

	s := &Store{db: db, dialect: dialect, dsn: dsn}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS armory_tables (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS armory_rows (
			table_name TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			cells TEXT NOT NULL,
			PRIMARY KEY (table_name, row_index)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.WrapIO("migrate", redact(s.dsn), err)
		}
	}
	return nil
}

// Dialect returns the store's dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Read implements tables.Reader.
func (s *Store) Read(ctx context.Context, name string) ([][]string, error) {
	exists, err := s.exists(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewSourceNotFound(name)
	}

	q := fmt.Sprintf("SELECT cells FROM armory_rows WHERE table_name = %s ORDER BY row_index", s.ph(1))
	rs, err := s.db.QueryContext(ctx, q, name)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	defer func() { _ = rs.Close() }()

	var rows [][]string
	for rs.Next() {
		var raw string
		if err := rs.Scan(&raw); err != nil {
			return nil, errors.WrapIO("read", name, err)
		}
		var row []string
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, errors.WrapParse("json", name, err)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	return rows, nil
}

// List implements tables.Reader.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rs, err := s.db.QueryContext(ctx, "SELECT name FROM armory_tables")
	if err != nil {
		return nil, errors.WrapIO("list", "armory_tables", err)
	}
	defer func() { _ = rs.Close() }()

	var names []string
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			return nil, errors.WrapIO("list", "armory_tables", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, rs.Err()
}

// Write implements tables.Writer.
func (s *Store) Write(ctx context.Context, name string, rows [][]string) error {
	return s.inTx(ctx, "write", name, func(tx *sql.Tx) error {
		if err := s.register(ctx, tx, name); err != nil {
			return err
		}
		del := fmt.Sprintf("DELETE FROM armory_rows WHERE table_name = %s", s.ph(1))
		if _, err := tx.ExecContext(ctx, del, name); err != nil {
			return err
		}
		return s.insert(ctx, tx, name, 0, rows)
	})
}

// Append implements tables.Writer.
func (s *Store) Append(ctx context.Context, name string, rows [][]string) error {
	return s.inTx(ctx, "append", name, func(tx *sql.Tx) error {
		if err := s.register(ctx, tx, name); err != nil {
			return err
		}
		var next int
		q := fmt.Sprintf("SELECT COALESCE(MAX(row_index) + 1, 0) FROM armory_rows WHERE table_name = %s", s.ph(1))
		if err := tx.QueryRowContext(ctx, q, name).Scan(&next); err != nil {
			return err
		}
		return s.insert(ctx, tx, name, next, rows)
	})
}

// Close implements tables.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, op, name string, fn func(*sql.Tx) error) error {
	if err := tables.ValidateName(name); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapIO(op, name, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return errors.WrapIO(op, name, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapIO(op, name, err)
	}
	return nil
}

func (s *Store) register(ctx context.Context, tx *sql.Tx, name string) error {
	q := fmt.Sprintf("INSERT INTO armory_tables (name) VALUES (%s) ON CONFLICT (name) DO NOTHING", s.ph(1))
	_, err := tx.ExecContext(ctx, q, name)
	return err
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, name string, start int, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO armory_rows (table_name, row_index, cells) VALUES (%s, %s, %s)", s.ph(1), s.ph(2), s.ph(3))
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if row == nil {
			row = []string{}
		}
		cells, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, name, start+i, string(cells)); err != nil {
			return err
		}
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exists(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM armory_tables WHERE name = %s", s.ph(1))
	if err := q.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, errors.WrapIO("read", name, err)
	}
	return n > 0, nil
}

// ph returns the n-th bind placeholder.
func (s *Store) ph(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// redact hides the password of a postgres URL for error messages.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if user, _, ok := strings.Cut(userinfo, ":"); ok {
		return dsn[:scheme+3] + user + ":***" + dsn[at:]
	}
	return dsn
}
