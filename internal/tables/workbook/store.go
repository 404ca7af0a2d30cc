// Package workbook stores each table as a worksheet of one .xlsx file.
package workbook

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/armory/pkg/constants"
	pkgerrors "github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/tables"
)

const (
	placeholderSheet = "Sheet1"
	swapSheet        = "_armory_swap"
)

// Store is an .xlsx workbook. Every mutation is saved immediately.
type Store struct {
	mu   sync.Mutex
	path string
	file *excelize.File

	// placeholder is true while the default sheet of a new workbook has
	// not been replaced by a real table.
	placeholder bool
}

// Open opens the workbook at path, or prepares a new one that is created on
// the first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	f, err := excelize.OpenFile(path)
	switch {
	case err == nil:
		s.file = f
	case errors.Is(err, fs.ErrNotExist):
		s.file = excelize.NewFile()
		s.placeholder = true
	default:
		return nil, pkgerrors.WrapParse("xlsx", path, err)
	}
	return s, nil
}

// Path returns the workbook file path.
func (s *Store) Path() string { return s.path }

// Read implements tables.Reader.
func (s *Store) Read(ctx context.Context, name string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.has(name) {
		return nil, pkgerrors.NewSourceNotFound(name)
	}
	rows, err := s.file.GetRows(name)
	if err != nil {
		return nil, pkgerrors.WrapIO("read", s.path+"#"+name, err)
	}
	return rows, nil
}

// List implements tables.Reader.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for _, name := range s.file.GetSheetList() {
		if s.placeholder && name == placeholderSheet {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Write implements tables.Writer.
func (s *Store) Write(ctx context.Context, name string, rows [][]string) error {
	if err := s.check(ctx, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.has(name) {
		if err := s.dropSheet(name); err != nil {
			return pkgerrors.WrapIO("write", s.path+"#"+name, err)
		}
	}
	if err := s.createSheet(name); err != nil {
		return pkgerrors.WrapIO("write", s.path+"#"+name, err)
	}
	if err := s.setRows(name, 1, rows); err != nil {
		return pkgerrors.WrapIO("write", s.path+"#"+name, err)
	}
	return s.save()
}

// Append implements tables.Writer.
func (s *Store) Append(ctx context.Context, name string, rows [][]string) error {
	if err := s.check(ctx, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 1
	if s.has(name) {
		existing, err := s.file.GetRows(name)
		if err != nil {
			return pkgerrors.WrapIO("append", s.path+"#"+name, err)
		}
		start = len(existing) + 1
	} else if err := s.createSheet(name); err != nil {
		return pkgerrors.WrapIO("append", s.path+"#"+name, err)
	}

	if err := s.setRows(name, start, rows); err != nil {
		return pkgerrors.WrapIO("append", s.path+"#"+name, err)
	}
	return s.save()
}

// Close implements tables.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *Store) has(name string) bool {
	if s.placeholder && name == placeholderSheet {
		return false
	}
	idx, err := s.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (s *Store) createSheet(name string) error {
	if s.placeholder {
		if err := s.file.SetSheetName(placeholderSheet, name); err != nil {
			return err
		}
		s.placeholder = false
		return nil
	}
	idx, err := s.file.NewSheet(name)
	if err != nil {
		return err
	}
	if len(s.file.GetSheetList()) == 1 {
		s.file.SetActiveSheet(idx)
	}
	return nil
}

// dropSheet deletes a sheet. A workbook must keep one sheet, so the last
// one is swapped out through a placeholder.
func (s *Store) dropSheet(name string) error {
	if len(s.file.GetSheetList()) > 1 {
		return s.file.DeleteSheet(name)
	}
	return s.file.SetSheetName(name, swapSheet)
}

func (s *Store) setRows(sheet string, start int, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		r := row
		if err := s.file.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	// Remove a swapped-out sheet left behind by dropSheet.
	if s.sheetExists(swapSheet) {
		return s.file.DeleteSheet(swapSheet)
	}
	return nil
}

func (s *Store) sheetExists(name string) bool {
	idx, err := s.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), constants.DirPermissions); err != nil {
		return pkgerrors.WrapIO("save", s.path, err)
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return pkgerrors.WrapIO("save", s.path, err)
	}
	return nil
}

func (s *Store) check(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return tables.ValidateName(name)
}
