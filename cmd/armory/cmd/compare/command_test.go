package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/tables/memory"
	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/records"
)

func newApp(t *testing.T, format string) (*appcontext.Mock, *memory.Store) {
	t.Helper()
	store := memory.NewWithTables(map[string][][]string{
		"all_normalized": {
			records.EnglishHeader,
			{"alpha", "1", "1001", "Cohen", "Dana", "rifle", "1", "R-1", "issued"},
		},
		"gdud": {
			records.EnglishHeader,
			{"alpha", "1", "1001", "Cohen", "Dana", "rifle", "1", "R-1", "returned"},
		},
	})
	am, err := armory.New(
		armory.WithStore(store),
		armory.WithLanguage(language.English),
		armory.WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)

	return &appcontext.Mock{
		ArmoryFunc:       func() (armory.Armory, error) { return am, nil },
		OutputFormatFunc: func() string { return format },
	}, store
}

func execute(t *testing.T, app appcontext.Interface, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return stdout.String(), stderr.String()
}

func TestCompareJSON(t *testing.T) {
	app, store := newApp(t, "json")

	stdout, _ := execute(t, app, "--no-roster")

	var report armory.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, armory.FlatMode, report.Mode)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "rifle:R-1", report.Discrepancies[0].ItemKey)

	rows, err := store.Read(context.Background(), "all_issues_diff")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCompareTableSummary(t *testing.T) {
	app, store := newApp(t, "table")

	stdout, stderr := execute(t, app, "--summary", "--out", "summary")
	assert.Contains(t, stdout, "1001")
	assert.Contains(t, stderr, "1 discrepancies for 1 entities")
	assert.Contains(t, stderr, "entity-mismatch: 1")

	_, err := store.Read(context.Background(), "summary")
	assert.NoError(t, err)
}

func TestCompareClean(t *testing.T) {
	app, _ := newApp(t, "table")

	_, stderr := execute(t, app, "--local", "gdud")
	assert.Contains(t, stderr, "No discrepancies")
}
