package armory

import (
	"context"

	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/gate"
	"github.com/agentstation/armory/pkg/logging"
)

// Sync synchronizes the reports with the partition and authority tables.
func (a *armory) Sync(ctx context.Context, opts ...CompareOption) (*SyncResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Step 1: Tag the run
	ctx, runID := a.runContext(ctx, "sync")
	logger := logging.Ctx(ctx)
	o := newCompareOptions(a.config.tables, opts...)
	result := &SyncResult{RunID: runID}

	// Step 2: Normalize every partition
	transforms, err := a.TransformAll(ctx)
	if err != nil {
		return nil, err
	}
	result.Transforms = transforms

	// Step 3: Rebuild the local table; without a settings table the
	// existing local table is compared as is
	merged, err := a.Merge(ctx)
	switch {
	case errors.IsNotFound(err):
		logger.Warn().Err(err).Msg("Settings table not found, comparing the existing local table")
	case err != nil:
		return nil, err
	default:
		result.Merge = merged
	}

	// Step 4: Check whether any input of this report changed
	g := gate.New(a.store(), a.config.tables.Hashes, gate.ForReport(o.output))
	decision, err := g.Check(ctx, o.gated(a.config.tables)...)
	if err != nil {
		return nil, err
	}
	result.Decision = decision

	if !decision.Run() {
		result.Skipped = true
		logger.Info().Msg("No changes detected, skipping comparison")
		a.hooks.triggerSyncSkipped(result)
		return result, nil
	}

	// Step 5: Compare and record the fingerprints that were compared
	report, err := a.compare(ctx, runID, o)
	if err != nil {
		return nil, err
	}
	result.Report = report

	if err := g.Commit(ctx, decision); err != nil {
		return nil, errors.WrapResource("sync", "table", a.config.tables.Hashes, err)
	}
	logger.Info().Strs("changed", decision.ChangedNames()).Msg("Sync complete and fingerprints updated")
	return result, nil
}
