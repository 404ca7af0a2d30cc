package sync

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
	"github.com/agentstation/armory/pkg/layout"
	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/records"
)

const layoutsDoc = `
partitions:
  - name: alpha
    kind: columns
    subgroup_column: A
    entity_column: B
    last_name_column: C
    first_name_column: D
    items_from: E
`

func newApp(t *testing.T) *appcontext.Mock {
	t.Helper()
	store := memory.NewWithTables(map[string][][]string{
		"alpha": {
			{"squad", "id", "last", "first", "rifle"},
			{"1", "1001", "Cohen", "Dana", "R-1"},
		},
		"gdud": {
			records.EnglishHeader,
			{"alpha", "1", "1001", "Cohen", "Dana", "rifle", "1", "R-1", "returned"},
		},
		"settings": {{"alpha"}},
	})
	layouts, err := layout.Parse([]byte(layoutsDoc))
	require.NoError(t, err)
	am, err := armory.New(
		armory.WithStore(store),
		armory.WithLayouts(layouts),
		armory.WithLanguage(language.English),
		armory.WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)

	return &appcontext.Mock{
		ArmoryFunc: func() (armory.Armory, error) { return am, nil },
	}
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

func TestSyncThenSkip(t *testing.T) {
	app := newApp(t)

	stdout, stderr := execute(t, app)
	var report armory.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, armory.FlatMode, report.Mode)
	assert.Equal(t, 1, report.Count())
	assert.Contains(t, stderr, "1 discrepancies for 1 entities")

	stdout, stderr = execute(t, app)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No changes since the last sync, comparison skipped")
}

func TestSyncSummaryAfterFlat(t *testing.T) {
	app := newApp(t)
	execute(t, app)

	stdout, _ := execute(t, app, "--summary")
	var report armory.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, armory.SummaryMode, report.Mode)
	assert.Equal(t, "entity_comparison", report.Output)
}
