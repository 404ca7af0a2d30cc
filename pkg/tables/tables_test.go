package tables_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/armory/internal/tables/memory"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/tables"
)

func TestHelpers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	ok, err := tables.Exists(ctx, s, "gdud")
	require.NoError(t, err)
	assert.False(t, ok)

	rows, found, err := tables.ReadOptional(ctx, s, "gdud")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, rows)

	header := []string{"Personal ID"}
	require.NoError(t, tables.AppendWithHeader(ctx, s, "roster", header, [][]string{{"1"}}))
	require.NoError(t, tables.AppendWithHeader(ctx, s, "roster", header, [][]string{{"2"}}))
	require.NoError(t, tables.AppendWithHeader(ctx, s, "roster", header, nil))

	rows, found, err = tables.ReadOptional(ctx, s, "roster")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, [][]string{{"Personal ID"}, {"1"}, {"2"}}, rows)
}

func TestClone(t *testing.T) {
	rows := [][]string{{"a", "b"}}
	c := tables.Clone(rows)
	c[0][0] = "z"
	assert.Equal(t, "a", rows[0][0])
	assert.Nil(t, tables.Clone(nil))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, tables.ValidateName("all_issues_diff"))
	assert.NoError(t, tables.ValidateName("פלוגה א_normalized"))
	assert.True(t, errors.IsValidationError(tables.ValidateName("")))
	assert.True(t, errors.IsValidationError(tables.ValidateName("../etc")))
}
