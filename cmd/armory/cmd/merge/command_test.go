package merge

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
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/records"
)

func newApp(t *testing.T, seed map[string][][]string) (*appcontext.Mock, *memory.Store) {
	t.Helper()
	store := memory.NewWithTables(seed)
	am, err := armory.New(
		armory.WithStore(store),
		armory.WithLanguage(language.English),
		armory.WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)
	return &appcontext.Mock{
		ArmoryFunc: func() (armory.Armory, error) { return am, nil },
	}, store
}

func execute(app appcontext.Interface) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(nil)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestMerge(t *testing.T) {
	app, store := newApp(t, map[string][][]string{
		"settings": {{"alpha"}, {"bravo"}},
		"alpha_normalized": {
			records.EnglishHeader,
			{"alpha", "1", "1001", "Cohen", "Dana", "rifle", "1", "R-1", "issued"},
		},
	})

	stdout, stderr, err := execute(app)
	require.NoError(t, err)

	var res armory.MergeResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, []string{"alpha", "bravo"}, res.Partitions)
	assert.Equal(t, []string{"bravo"}, res.Missing)
	assert.Equal(t, 1, res.Rows)
	assert.Contains(t, stderr, "Normalized tables not found")

	rows, err := store.Read(context.Background(), "all_normalized")
	require.NoError(t, err)
	assert.Equal(t, records.EnglishHeader, rows[0])
	assert.Len(t, rows, 2)
}

func TestMergeWithoutSettings(t *testing.T) {
	app, _ := newApp(t, nil)

	_, _, err := execute(app)
	assert.True(t, errors.IsNotFound(err))
}
