package workbook_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/armory/internal/tables/storetest"
	"github.com/agentstation/armory/internal/tables/workbook"
	"github.com/agentstation/armory/pkg/tables"
)

func open(t *testing.T, path string) *workbook.Store {
	t.Helper()
	s, err := workbook.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) tables.Store {
		return open(t, filepath.Join(t.TempDir(), "armory.xlsx"))
	})
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "armory.xlsx")

	s := open(t, path)
	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names, "placeholder sheet is hidden")

	require.NoError(t, s.Write(ctx, "gdud", [][]string{{"מספר אישי"}, {"007"}}))
	require.NoError(t, s.Write(ctx, "gdud", [][]string{{"מספר אישי"}, {"008"}}))
	require.NoError(t, s.Append(ctx, "settings", [][]string{{"פלוגה א"}}))
	require.NoError(t, s.Close())

	reopened := open(t, path)
	rows, err := reopened.Read(ctx, "gdud")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"מספר אישי"}, {"008"}}, rows, "ids stay text")

	names, err = reopened.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gdud", "settings"}, names)
}

func TestReplaceOnlySheet(t *testing.T) {
	ctx := context.Background()
	s := open(t, filepath.Join(t.TempDir(), "one.xlsx"))

	require.NoError(t, s.Write(ctx, "only", [][]string{{"a"}, {"b"}}))
	require.NoError(t, s.Write(ctx, "only", [][]string{{"c"}}))

	rows, err := s.Read(ctx, "only")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c"}}, rows)

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, names)
}
