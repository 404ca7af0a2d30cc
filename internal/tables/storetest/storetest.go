// Package storetest holds the behavior every tables.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/tables"
)

// Factory opens a fresh, empty store.
type Factory func(t *testing.T) tables.Store

// Run exercises a backend against the tables.Store contract.
func Run(t *testing.T, open Factory) {
	t.Helper()

	t.Run("missing table is not found", func(t *testing.T) {
		s := open(t)
		_, err := s.Read(context.Background(), "gdud")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("write then read", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		rows := [][]string{
			{"פלוגה", "מחלקה", "מספר אישי"},
			{"פלוגה א", "1", "1001"},
			{"alpha", "", "1002"},
		}
		require.NoError(t, s.Write(ctx, "all_normalized", rows))

		got, err := s.Read(ctx, "all_normalized")
		require.NoError(t, err)
		assert.Equal(t, rows, trimTrailing(got))
	})

	t.Run("write replaces", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Write(ctx, "report", [][]string{{"h"}, {"old"}, {"older"}}))
		require.NoError(t, s.Write(ctx, "report", [][]string{{"h"}, {"new"}}))

		got, err := s.Read(ctx, "report")
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"h"}, {"new"}}, trimTrailing(got))
	})

	t.Run("append creates and extends", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, "roster", [][]string{{"Personal ID"}, {"1"}}))
		require.NoError(t, s.Append(ctx, "roster", [][]string{{"2"}, {"3"}}))

		got, err := s.Read(ctx, "roster")
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"Personal ID"}, {"1"}, {"2"}, {"3"}}, trimTrailing(got))
	})

	t.Run("list", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Write(ctx, "gdud", [][]string{{"a"}}))
		require.NoError(t, s.Write(ctx, "all_normalized", [][]string{{"b"}}))

		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, "gdud")
		assert.Contains(t, names, "all_normalized")
	})

	t.Run("canceled context", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, s.Write(ctx, "x", [][]string{{"a"}}))
	})
}

// trimTrailing drops trailing empty cells, which some backends pad.
func trimTrailing(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		end := len(r)
		for end > 0 && r[end-1] == "" {
			end--
		}
		out[i] = r[:end]
	}
	return out
}
