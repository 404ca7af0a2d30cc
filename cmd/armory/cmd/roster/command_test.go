package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/tables/memory"
	"github.com/agentstation/armory/pkg/logging"
)

func TestRosterList(t *testing.T) {
	store := memory.NewWithTables(map[string][][]string{
		"AllSoldiersInPlatoons": {{"Personal ID"}, {"1001"}, {"1002"}, {"1001"}},
	})
	am, err := armory.New(armory.WithStore(store), armory.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)

	for _, format := range []string{"json", "table"} {
		t.Run(format, func(t *testing.T) {
			app := &appcontext.Mock{
				ArmoryFunc:       func() (armory.Armory, error) { return am, nil },
				OutputFormatFunc: func() string { return format },
			}
			var stdout bytes.Buffer
			cmd := NewCommand(app)
			cmd.SetOut(&stdout)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"list"})
			require.NoError(t, cmd.ExecuteContext(context.Background()))

			if format == "json" {
				var ids []string
				require.NoError(t, json.Unmarshal(stdout.Bytes(), &ids))
				assert.Equal(t, []string{"1001", "1002"}, ids)
				return
			}
			assert.Contains(t, stdout.String(), "1002")
		})
	}
}
