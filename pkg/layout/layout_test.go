package layout_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/layout"
	"github.com/agentstation/armory/pkg/mapping"
	"github.com/agentstation/armory/pkg/records"
)

const doc = `
partitions:
  - name: alpha
    kind: columns
    subgroup_column: B
    entity_column: C
    last_name_column: 3
    first_name_column: E
    items_from: F
    stop_marker: "---"
  - name: charlie
    kind: paired
    input: charlie_raw
    output: charlie_out
    subgroup_column: A
    entity_column: B
    pairs:
      - {type: C, value: D}
      - {type: E, value: F}
    singles: [G]
    apply_mappings: false
    status: issued
`

func TestParse(t *testing.T) {
	c, err := layout.Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "charlie"}, c.Names())

	alpha, ok := c.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, layout.Columns, alpha.Kind)
	assert.Equal(t, layout.Column(2), alpha.EntityColumn)
	assert.Equal(t, layout.Column(3), *alpha.LastNameColumn)
	assert.Equal(t, layout.Column(5), *alpha.ItemsFrom)
	assert.Equal(t, "alpha", alpha.InputTable())
	assert.Equal(t, "alpha_normalized", alpha.OutputTable())
	assert.True(t, alpha.MappingsEnabled())
	assert.Equal(t, "מנופק", alpha.RecordStatus())

	charlie, ok := c.Get("charlie")
	require.True(t, ok)
	assert.Equal(t, []layout.Pair{{Type: 2, Value: 3}, {Type: 4, Value: 5}}, charlie.Pairs)
	assert.Equal(t, "charlie_raw", charlie.InputTable())
	assert.Equal(t, "charlie_out", charlie.OutputTable())
	assert.False(t, charlie.MappingsEnabled())
	assert.Equal(t, "issued", charlie.RecordStatus())

	_, ok = c.Get("bravo")
	assert.False(t, ok)
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown kind":      "partitions:\n  - {name: a, kind: rows, entity_column: A}\n",
		"missing items":     "partitions:\n  - {name: a, kind: columns, entity_column: A}\n",
		"missing pairs":     "partitions:\n  - {name: a, kind: paired, entity_column: A}\n",
		"missing name":      "partitions:\n  - {kind: columns, entity_column: A, items_from: B}\n",
		"duplicate name":    "partitions:\n  - {name: a, kind: columns, entity_column: A, items_from: B}\n  - {name: a, kind: columns, entity_column: A, items_from: B}\n",
		"bad column letter": "partitions:\n  - {name: a, kind: columns, entity_column: '1A', items_from: B}\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := layout.Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestParseColumn(t *testing.T) {
	for in, want := range map[string]layout.Column{"A": 0, "h": 7, "AA": 26, "0": 0, "12": 12} {
		got, err := layout.ParseColumn(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := layout.ParseColumn("-1")
	assert.True(t, pkgerrors.IsValidationError(err))
	assert.Equal(t, "H", layout.Column(7).Letter())
}

func TestDefaultRoundTrip(t *testing.T) {
	def := layout.Default()
	require.NoError(t, def.Validate())
	assert.Equal(t, []string{"פלוגה א", "פלוגה ב", "פלוגה ג", "מסייעת"}, def.Names())

	path := filepath.Join(t.TempDir(), "layouts.yaml")
	require.NoError(t, def.Save(path))
	loaded, err := layout.Load(path)
	require.NoError(t, err)
	assert.Equal(t, def, loaded)

	_, err = layout.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func columnsLayout() layout.Layout {
	c, _ := layout.Parse([]byte(doc))
	l, _ := c.Get("alpha")
	return l
}

func TestAdaptColumns(t *testing.T) {
	rows := [][]string{
		{"#", "squad", "id", "last", "first", "rifle", "helmet", "vest"},
		{"1", "1", " 1001 ", "Cohen", "Dana", "R-1", " ", "V-9"},
		{"2", "2", "", "Nobody", "", "R-2", "", ""},
		{"3", "2", "1002", "Levi", "Avi", "", "", ""},
		{"---"},
		{"4", "3", "1003", "After", "Stop", "R-3", "", ""},
	}
	res := columnsLayout().Adapt(rows, nil)

	assert.Equal(t, []string{"1001", "1002"}, res.IDs, "entities without items are still seen")
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []records.Record{
		{Group: "alpha", Subgroup: "1", EntityID: "1001", LastName: "Cohen", FirstName: "Dana", ItemType: "rifle", Quantity: 1, Identifier: "R-1", Status: "מנופק"},
		{Group: "alpha", Subgroup: "1", EntityID: "1001", LastName: "Cohen", FirstName: "Dana", ItemType: "vest", Quantity: 1, Identifier: "V-9", Status: "מנופק"},
	}, res.Records)

	table := res.Table(records.EnglishHeader)
	require.Len(t, table, 3)
	assert.Equal(t, records.EnglishHeader, table[0])
	assert.Equal(t, []string{"alpha", "1", "1001", "Cohen", "Dana", "rifle", "1", "R-1", "מנופק"}, table[1])
}

func TestAdaptAppliesPartitionRules(t *testing.T) {
	rules := []mapping.Rule{
		{Kind: mapping.TypeRename, From: "rifle", To: "M16"},
		{Kind: mapping.BlankIdentifierType, From: "M16"},
		{Kind: mapping.IgnoreType, From: "vest"},
		{Kind: mapping.GroupRename, From: "1", To: "first"},
		{Scope: "bravo", Kind: mapping.IgnoreType, From: "M16"},
	}
	engine, err := mapping.New(rules, mapping.Partition("alpha"))
	require.NoError(t, err)

	rows := [][]string{
		{"#", "squad", "id", "last", "first", "rifle", "helmet", "vest"},
		{"1", "1", "1001", "Cohen", "Dana", "R-1", "H-1", "V-9"},
	}
	res := columnsLayout().Adapt(rows, engine)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.Dropped)

	assert.Equal(t, "M16", res.Records[0].ItemType)
	assert.Empty(t, res.Records[0].Identifier)
	assert.Equal(t, "first", res.Records[0].Subgroup)
	assert.Equal(t, "helmet", res.Records[1].ItemType)
}

func TestAdaptPaired(t *testing.T) {
	c, err := layout.Parse([]byte(doc))
	require.NoError(t, err)
	l, _ := c.Get("charlie")

	rows := [][]string{
		{"squad", "id", "t1", "v1", "t2", "v2", "radio"},
		{"1", "1001", "rifle", "", "helmet", "H-7", "RD-1"},
		{"1", "1002", "", "orphan", "vest", " ", ""},
	}
	ignoreAll, err := mapping.New([]mapping.Rule{{Kind: mapping.IgnoreType, From: "rifle"}}, mapping.Partition("charlie"))
	require.NoError(t, err)

	res := l.Adapt(rows, ignoreAll)
	assert.Zero(t, res.Dropped, "mappings disabled for this layout")

	got := make([][2]string, 0, len(res.Records))
	for _, r := range res.Records {
		got = append(got, [2]string{r.EntityID, r.ItemType + "=" + r.Identifier})
		assert.Equal(t, "issued", r.Status)
		assert.Equal(t, "charlie", r.Group)
	}
	assert.Equal(t, [][2]string{
		{"1001", "rifle=V"},
		{"1001", "helmet=H-7"},
		{"1001", "radio=RD-1"},
		{"1002", "vest=V"},
	}, got)
}

func TestAdaptEmpty(t *testing.T) {
	res := columnsLayout().Adapt(nil, nil)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.IDs)
}
