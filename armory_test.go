package armory_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/tables/memory"
	"github.com/agentstation/armory/pkg/differ"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/layout"
	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/mapping"
	"github.com/agentstation/armory/pkg/records"
	"github.com/agentstation/armory/pkg/report"
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

func fixture() map[string][][]string {
	return map[string][][]string{
		"alpha": {
			{"squad", "id", "last", "first", "rifle", "helmet"},
			{"1", "1001", "Cohen", "Dana", "R-1", ""},
			{"2", "1002", "Levi", "Avi", "R-2", "H-2"},
			{"2", "1003", "Mizrahi", "Noa", "", ""},
		},
		"gdud": {
			records.EnglishHeader,
			{"alpha", "1", "1001", "Cohen", "Dana", "rifle", "1", "R-1", "מנופק"},
			{"alpha", "2", "1002", "Levi", "Avi", "rifle", "1", "R-2", "returned"},
			{"alpha", "2", "1002", "Levi", "Avi", "helmet", "1", "H-2", "מנופק"},
			{"alpha", "2", "1003", "Mizrahi", "Noa", "rifle", "1", "R-3", "מנופק"},
			{"bravo", "1", "2001", "Peretz", "Gil", "rifle", "1", "R-9", "מנופק"},
		},
		"settings": {{"alpha"}},
	}
}

func newArmory(t *testing.T, store *memory.Store, opts ...armory.Option) armory.Armory {
	t.Helper()
	layouts, err := layout.Parse([]byte(layoutsDoc))
	require.NoError(t, err)

	base := []armory.Option{
		armory.WithStore(store),
		armory.WithLayouts(layouts),
		armory.WithLogger(logging.NewNopLogger()),
	}
	a, err := armory.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func categories(ds []differ.Discrepancy) []differ.Category {
	out := make([]differ.Category, len(ds))
	for i, d := range ds {
		out[i] = d.Category
	}
	return out
}

func TestTransform(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithTables(fixture())
	a := newArmory(t, store, armory.WithLanguage(language.English))

	res, err := a.Transform(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha_normalized", res.Output)
	assert.Equal(t, 3, res.Records)
	assert.Equal(t, 3, res.Entities)
	assert.Equal(t, []string{"1001", "1002", "1003"}, res.RosterAdded)
	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)

	rows, err := store.Read(ctx, "alpha_normalized")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, records.EnglishHeader, rows[0])
	assert.Equal(t, []string{"alpha", "1", "1001", "Cohen", "Dana", "rifle", "1", "R-1", "מנופק"}, rows[1])

	known, err := a.Roster(ctx)
	require.NoError(t, err)
	assert.True(t, known.Contains("1003"))

	res, err = a.Transform(ctx, "alpha")
	require.NoError(t, err)
	assert.Empty(t, res.RosterAdded, "roster is append-only and deduplicated")

	_, err = a.Transform(ctx, "bravo")
	assert.True(t, errors.IsNotFound(err))
}

func TestTransformAppliesPartitionRules(t *testing.T) {
	ctx := context.Background()
	seed := fixture()
	seed["mappings"] = mapping.ToTable([]mapping.Rule{
		{Scope: "alpha", Kind: mapping.IgnoreType, From: "helmet"},
		{Scope: "bravo", Kind: mapping.IgnoreType, From: "rifle"},
	})
	store := memory.NewWithTables(seed)
	a := newArmory(t, store)

	res, err := a.Transform(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 1, res.Dropped)
}

func TestTransformAllSkipsMissingInput(t *testing.T) {
	ctx := context.Background()
	doc := layoutsDoc + `
  - name: bravo
    kind: columns
    entity_column: A
    items_from: B
`
	layouts, err := layout.Parse([]byte(doc))
	require.NoError(t, err)
	store := memory.NewWithTables(fixture())
	a := newArmory(t, store, armory.WithLayouts(layouts))

	results, err := a.TransformAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Missing)
	assert.Len(t, results[0].RosterAdded, 3)
	assert.True(t, results[1].Missing)
	assert.Equal(t, results[0].RunID, results[1].RunID)
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	seed := fixture()
	seed["settings"] = [][]string{{"alpha"}, {""}, {"charlie"}}
	store := memory.NewWithTables(seed)
	a := newArmory(t, store)

	_, err := a.Transform(ctx, "alpha")
	require.NoError(t, err)

	res, err := a.Merge(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "charlie"}, res.Partitions)
	assert.Equal(t, []string{"charlie"}, res.Missing)
	assert.Equal(t, 3, res.Rows)

	rows, err := store.Read(ctx, "all_normalized")
	require.NoError(t, err)
	assert.Equal(t, records.HebrewHeader, rows[0])
	assert.Len(t, rows, 4)

	empty := newArmory(t, memory.New())
	_, err = empty.Merge(ctx)
	assert.True(t, errors.IsNotFound(err))
}

func TestCompareFlat(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithTables(fixture())
	a := newArmory(t, store)

	var hooked *armory.Report
	a.OnReport(func(r *armory.Report) { hooked = r })

	_, err := a.Transform(ctx, "alpha")
	require.NoError(t, err)
	_, err = a.Merge(ctx)
	require.NoError(t, err)

	r, err := a.Compare(ctx)
	require.NoError(t, err)
	assert.Same(t, r, hooked)
	assert.Equal(t, armory.FlatMode, r.Mode)
	assert.Equal(t, "all_issues_diff", r.Output)
	assert.Equal(t, 3, r.Known)
	assert.Equal(t, []differ.Category{
		differ.StatusMismatch,
		differ.KnownEntityMissingFromA,
		differ.EntityOnlyInB,
	}, categories(r.Discrepancies))
	assert.Equal(t, []string{"1002", "1003", "2001"}, r.Entities())

	status := r.Discrepancies[0]
	assert.Equal(t, "rifle:R-2", status.ItemKey)
	assert.Equal(t, "מנופק", status.ValueA)
	assert.Equal(t, "returned", status.ValueB)

	rows, err := store.Read(ctx, "all_issues_diff")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, report.FlatHeader(language.Hebrew), rows[0])
	assert.Equal(t, differ.StatusMismatch.Label(language.Hebrew), rows[1][5])

	r, err = a.Compare(ctx, armory.WithoutRoster(), armory.Append())
	require.NoError(t, err)
	assert.Equal(t, []differ.Category{
		differ.StatusMismatch,
		differ.EntityOnlyInB,
		differ.EntityOnlyInB,
	}, categories(r.Discrepancies))

	rows, err = store.Read(ctx, "all_issues_diff")
	require.NoError(t, err)
	assert.Len(t, rows, 7, "append keeps earlier rows and the single header")
}

func TestCompareSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithTables(fixture())
	a := newArmory(t, store, armory.WithLanguage(language.English))

	_, err := a.TransformAll(ctx)
	require.NoError(t, err)
	_, err = a.Merge(ctx)
	require.NoError(t, err)

	r, err := a.Compare(ctx, armory.Summary())
	require.NoError(t, err)
	assert.Equal(t, armory.SummaryMode, r.Mode)
	assert.Equal(t, "entity_comparison", r.Output)
	assert.Equal(t, []string{"1002", "1003", "2001"}, r.Entities())
	assert.Equal(t, differ.EntityMismatch, r.Summaries[0].Category)
	assert.True(t, r.Summaries[0].Has(differ.StatusMismatch))

	rows, err := store.Read(ctx, "entity_comparison")
	require.NoError(t, err)
	assert.Equal(t, report.SummaryHeader(language.English), rows[0])
	assert.Len(t, rows, 4)
}

func TestCompareMissingSource(t *testing.T) {
	ctx := context.Background()
	seed := fixture()
	delete(seed, "gdud")
	store := memory.NewWithTables(seed)
	a := newArmory(t, store)

	_, err := a.Compare(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = store.Read(ctx, "all_issues_diff")
	assert.True(t, errors.IsNotFound(err), "no report is written")
}

func TestCompareRuleChain(t *testing.T) {
	ctx := context.Background()
	seed := fixture()
	seed["all_normalized"] = seed["gdud"]
	seed["mappings"] = mapping.ToTable([]mapping.Rule{
		{Kind: mapping.TypeRename, From: "rifle", To: "M16"},
		{Kind: mapping.TypeRename, From: "M16", To: "M-16"},
	})
	a := newArmory(t, memory.NewWithTables(seed))

	_, err := a.Compare(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.True(t, stderrors.Is(err, mapping.ErrRuleChain))

	r, err := a.Compare(ctx, armory.WithoutMappings())
	require.NoError(t, err)
	assert.True(t, r.Clean(), "identical tables agree")
}

func TestCompareOptions(t *testing.T) {
	ctx := context.Background()
	seed := fixture()
	seed["copy"] = seed["gdud"]
	store := memory.NewWithTables(seed)
	a := newArmory(t, store)

	r, err := a.Compare(ctx, armory.CompareTables("copy", ""), armory.Output("check"))
	require.NoError(t, err)
	assert.True(t, r.Clean())
	assert.Equal(t, "copy", r.Local)
	assert.Equal(t, "gdud", r.Authority)

	rows, err := store.Read(ctx, "check")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "an empty report keeps its header")
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithTables(fixture())
	a := newArmory(t, store)

	skipped := 0
	a.OnSyncSkipped(func(*armory.SyncResult) { skipped++ })

	first, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	require.NotNil(t, first.Report)
	assert.Equal(t, 3, first.Report.Count())
	assert.Equal(t, first.RunID, first.Report.RunID)
	assert.Equal(t, first.RunID, first.Transforms[0].RunID)
	require.NotNil(t, first.Merge)

	second, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Nil(t, second.Report)
	assert.Equal(t, 1, skipped)
	assert.NotEqual(t, first.RunID, second.RunID)

	gdud, err := store.Read(ctx, "gdud")
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "gdud", gdud[:len(gdud)-1]))

	third, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, third.Skipped)
	assert.Equal(t, []string{"gdud"}, third.Decision.ChangedNames())
	assert.Equal(t, 2, third.Report.Count())
}

func TestSyncRerunsAfterRuleChange(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithTables(fixture())
	a := newArmory(t, store)

	first, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Report.Count())

	require.NoError(t, store.Write(ctx, "mappings", mapping.ToTable([]mapping.Rule{
		{Scope: "bravo", Kind: mapping.IgnoreType, From: "rifle"},
	})))

	second, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, second.Skipped)
	assert.Equal(t, []string{"mappings"}, second.Decision.ChangedNames())
	assert.True(t, second.Report.Clean(), "the merged view ignores every rifle")

	third, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, third.Skipped)
}

func TestSyncKeepsEachReportCurrent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithTables(fixture())
	a := newArmory(t, store)

	flat, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, flat.Skipped)

	summary, err := a.Sync(ctx, armory.Summary())
	require.NoError(t, err)
	assert.False(t, summary.Skipped, "the summary report was never built")
	require.NotNil(t, summary.Report)

	rows, err := store.Read(ctx, "entity_comparison")
	require.NoError(t, err)
	assert.Len(t, rows, 1+len(summary.Report.Rows))

	again, err := a.Sync(ctx, armory.Summary())
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	store.Delete("all_issues_diff")
	rebuilt, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, rebuilt.Skipped, "a dropped report is rebuilt")
	assert.True(t, rebuilt.Decision.Forced)
}

func TestSyncWithoutSettings(t *testing.T) {
	ctx := context.Background()
	seed := fixture()
	delete(seed, "settings")
	seed["all_normalized"] = seed["gdud"]
	a := newArmory(t, memory.NewWithTables(seed))

	res, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.Nil(t, res.Merge)
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.Clean())
}

func TestInitMappings(t *testing.T) {
	ctx := context.Background()
	a := newArmory(t, memory.New())

	_, err := a.Mappings(ctx)
	assert.True(t, errors.IsNotFound(err))

	created, err := a.InitMappings(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = a.InitMappings(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	rules, err := a.Mappings(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, len(mapping.DefaultTable())-1)
}

func TestOptions(t *testing.T) {
	_, err := armory.New(armory.WithConcurrency(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = armory.New(armory.WithStore(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = armory.New(armory.WithTables(armory.Tables{Local: "a/b"}))
	assert.True(t, errors.IsValidationError(err))

	a, err := armory.New(armory.WithTables(armory.Tables{Local: "merged"}))
	require.NoError(t, err)
	assert.Equal(t, "merged", a.Tables().Local)
	assert.Equal(t, "gdud", a.Tables().Authority)
	assert.Equal(t, layout.Default().Names(), a.Layouts().Names())
}
