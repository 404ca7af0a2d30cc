// Package csvdir stores each table as <name>.csv in a directory.
//
// Files are decoded with BOM detection, so exports saved by spreadsheet
// tools as UTF-8 with BOM or UTF-16 read the same as plain UTF-8. Cells are
// NFC-normalized on read so visually identical Hebrew strings compare equal.
// Writes go to a temporary file that is renamed into place.
package csvdir

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/armory/pkg/constants"
	pkgerrors "github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/tables"
)

const ext = ".csv"

// Store is a directory of CSV files.
type Store struct {
	mu    sync.Mutex
	dir   string
	bom   bool
	comma rune
}

// Option configures a Store.
type Option func(*Store)

// WithBOM controls whether new files start with a UTF-8 byte order mark.
// Spreadsheet tools need it to detect UTF-8 Hebrew text. Default true.
func WithBOM(enabled bool) Option {
	return func(s *Store) { s.bom = enabled }
}

// WithComma sets the field delimiter. Default ','.
func WithComma(r rune) Option {
	return func(s *Store) { s.comma = r }
}

// Open returns a store rooted at dir, creating the directory if needed.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, pkgerrors.WrapIO("open", dir, err)
	}
	s := &Store{dir: dir, bom: true, comma: ','}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file backing a table.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+ext)
}

// Read implements tables.Reader.
func (s *Store) Read(ctx context.Context, name string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := tables.ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.NewSourceNotFound(name)
		}
		return nil, pkgerrors.WrapIO("read", path, err)
	}
	defer func() { _ = f.Close() }()

	decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(decoded)
	r.Comma = s.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &pkgerrors.ParseError{
					Format: "csv", File: path, Line: perr.Line, Column: perr.Column,
					Message: perr.Err.Error(), Err: err,
				}
			}
			return nil, pkgerrors.WrapIO("read", path, err)
		}
		for i, cell := range row {
			row[i] = norm.NFC.String(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// List implements tables.Reader.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, pkgerrors.WrapIO("list", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

// Write implements tables.Writer.
func (s *Store) Write(ctx context.Context, name string, rows [][]string) error {
	if err := s.check(ctx, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return pkgerrors.WrapIO("write", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := s.encode(tmp, rows, true); err != nil {
		_ = tmp.Close()
		return pkgerrors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.WrapIO("write", path, err)
	}
	if err := os.Chmod(tmpName, constants.FilePermissions); err != nil {
		return pkgerrors.WrapIO("write", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return pkgerrors.WrapIO("write", path, err)
	}
	return nil
}

// Append implements tables.Writer.
func (s *Store) Append(ctx context.Context, name string, rows [][]string) error {
	if err := s.check(ctx, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return pkgerrors.WrapIO("append", path, err)
	}
	if err := s.encode(f, rows, isNew); err != nil {
		_ = f.Close()
		return pkgerrors.WrapIO("append", path, err)
	}
	if err := f.Close(); err != nil {
		return pkgerrors.WrapIO("append", path, err)
	}
	return nil
}

// Close implements tables.Store.
func (s *Store) Close() error { return nil }

func (s *Store) encode(w io.Writer, rows [][]string, fresh bool) error {
	if s.bom && fresh {
		tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
		if err := s.writeRows(tw, rows); err != nil {
			return err
		}
		return tw.Close()
	}
	return s.writeRows(w, rows)
}

func (s *Store) writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = s.comma
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func (s *Store) check(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return tables.ValidateName(name)
}
