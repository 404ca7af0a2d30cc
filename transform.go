package armory

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/layout"
	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/mapping"
	"github.com/agentstation/armory/pkg/records"
	"github.com/agentstation/armory/pkg/roster"
	"github.com/agentstation/armory/pkg/tables"
)

// Transform normalizes one partition.
func (a *armory) Transform(ctx context.Context, partition string) (*TransformResult, error) {
	ctx, runID := a.runContext(ctx, "transform")

	l, ok := a.config.layouts.Get(partition)
	if !ok {
		return nil, errors.NewNotFoundError("partition", partition)
	}
	rules, err := a.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	res, err := a.transform(ctx, l, rules)
	if err != nil {
		return nil, err
	}
	res.RunID = runID

	added, err := roster.Append(ctx, a.store(), a.config.tables.Roster, res.ids)
	if err != nil {
		return nil, errors.WrapResource("transform", "roster", a.config.tables.Roster, err)
	}
	res.RosterAdded = added
	return res, nil
}

// TransformAll normalizes every configured partition concurrently, then
// appends the union of their ids to the roster in partition order.
func (a *armory) TransformAll(ctx context.Context) ([]*TransformResult, error) {
	ctx, runID := a.runContext(ctx, "transform")
	logger := logging.Ctx(ctx)

	rules, err := a.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	partitions := a.config.layouts.Partitions
	results := make([]*TransformResult, len(partitions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.concurrency)
	for i, l := range partitions {
		g.Go(func() error {
			res, err := a.transform(gctx, l, rules)
			if errors.IsNotFound(err) {
				logging.Ctx(gctx).Warn().Str("partition", l.Name).Str("table", l.InputTable()).Msg("Input table not found, skipping partition")
				results[i] = &TransformResult{Partition: l.Name, Input: l.InputTable(), Output: l.OutputTable(), Missing: true}
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ids []string
	for _, res := range results {
		res.RunID = runID
		ids = append(ids, res.ids...)
	}
	added, err := roster.Append(ctx, a.store(), a.config.tables.Roster, ids)
	if err != nil {
		return nil, errors.WrapResource("transform", "roster", a.config.tables.Roster, err)
	}
	if len(added) > 0 {
		logger.Info().Int("added", len(added)).Msg("Roster updated")
	}
	attributeRosterAdditions(results, added)
	return results, nil
}

// attributeRosterAdditions credits each added id to the first partition
// that saw it.
func attributeRosterAdditions(results []*TransformResult, added []string) {
	pending := make(map[string]bool, len(added))
	for _, id := range added {
		pending[id] = true
	}
	for _, res := range results {
		for _, id := range res.ids {
			if pending[id] {
				res.RosterAdded = append(res.RosterAdded, id)
				delete(pending, id)
			}
		}
	}
}

func (a *armory) transform(ctx context.Context, l layout.Layout, rules []mapping.Rule) (*TransformResult, error) {
	ctx = logging.WithPartition(ctx, l.Name)
	logger := logging.Ctx(ctx)

	rows, err := a.store().Read(ctx, l.InputTable())
	if err != nil {
		return nil, err
	}

	var engine *mapping.Engine
	if l.MappingsEnabled() {
		engine, err = mapping.New(rules, mapping.Partition(l.Name))
		if err != nil {
			return nil, err
		}
	}

	adapted := l.Adapt(rows, engine)
	out := adapted.Table(records.Header(a.language()))
	if err := a.store().Write(ctx, l.OutputTable(), out); err != nil {
		return nil, errors.WrapResource("transform", "partition", l.Name, err)
	}

	logger.Info().
		Int("records", len(adapted.Records)).
		Int("entities", len(adapted.IDs)).
		Int("skipped_rows", adapted.Skipped).
		Int("dropped_items", adapted.Dropped).
		Str("output", l.OutputTable()).
		Msg("Partition transformed")

	return &TransformResult{
		Partition: l.Name,
		Input:     l.InputTable(),
		Output:    l.OutputTable(),
		Records:   len(adapted.Records),
		Entities:  len(adapted.IDs),
		Skipped:   adapted.Skipped,
		Dropped:   adapted.Dropped,
		ids:       adapted.IDs,
	}, nil
}

// Merge concatenates the partitions listed in the settings table.
func (a *armory) Merge(ctx context.Context) (*MergeResult, error) {
	ctx, runID := a.runContext(ctx, "merge")
	logger := logging.Ctx(ctx)
	t := a.config.tables

	settings, err := a.store().Read(ctx, t.Settings)
	if err != nil {
		return nil, err
	}

	res := &MergeResult{RunID: runID, Output: t.Local}
	merged := [][]string{records.Header(a.language())}
	for _, row := range settings {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		res.Partitions = append(res.Partitions, name)

		table := layout.NormalizedTable(name)
		if l, ok := a.config.layouts.Get(name); ok {
			table = l.OutputTable()
		}
		rows, found, err := tables.ReadOptional(ctx, a.store(), table)
		if err != nil {
			return nil, err
		}
		if !found {
			res.Missing = append(res.Missing, name)
			logger.Warn().Str("partition", name).Str("table", table).Msg("Normalized table not found, skipping")
			continue
		}
		for i, r := range rows {
			if i == 0 || len(r) == 0 {
				continue
			}
			merged = append(merged, r)
		}
	}
	res.Rows = len(merged) - 1

	if err := a.store().Write(ctx, t.Local, merged); err != nil {
		return nil, errors.WrapResource("merge", "table", t.Local, err)
	}
	logger.Info().Int("partitions", len(res.Partitions)).Int("rows", res.Rows).Str("output", t.Local).Msg("Partitions merged")
	return res, nil
}

// InitMappings writes the starter rule table if the rule table is absent.
func (a *armory) InitMappings(ctx context.Context) (bool, error) {
	ctx, _ = a.runContext(ctx, "mappings")
	name := a.config.tables.Rules

	exists, err := tables.Exists(ctx, a.store(), name)
	if err != nil || exists {
		return false, err
	}
	if err := a.store().Write(ctx, name, mapping.DefaultTable()); err != nil {
		return false, err
	}
	logging.Ctx(ctx).Info().Str("table", name).Msg("Created mapping table")
	return true, nil
}

// Mappings returns the parsed rule table.
func (a *armory) Mappings(ctx context.Context) ([]mapping.Rule, error) {
	rows, err := a.store().Read(ctx, a.config.tables.Rules)
	if err != nil {
		return nil, err
	}
	return mapping.ParseTable(rows), nil
}

// Roster returns the known-entities roster.
func (a *armory) Roster(ctx context.Context) (*roster.Snapshot, error) {
	return roster.Load(ctx, a.store(), a.config.tables.Roster)
}

// loadRules reads the rule table; an absent table is the identity.
func (a *armory) loadRules(ctx context.Context) ([]mapping.Rule, error) {
	rows, found, err := tables.ReadOptional(ctx, a.store(), a.config.tables.Rules)
	if err != nil {
		return nil, err
	}
	if !found {
		logging.Ctx(ctx).Warn().Str("table", a.config.tables.Rules).Msg("Mapping table not found, records are not normalized")
		return nil, nil
	}
	return mapping.ParseTable(rows), nil
}
