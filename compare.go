package armory

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/armory/pkg/differ"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/mapping"
	"github.com/agentstation/armory/pkg/profile"
	"github.com/agentstation/armory/pkg/records"
	"github.com/agentstation/armory/pkg/report"
	"github.com/agentstation/armory/pkg/roster"
)

// inputs are the tables one comparison reads.
type inputs struct {
	local     [][]string
	authority [][]string
	rules     []mapping.Rule
	known     *roster.Snapshot
}

// Compare diffs the local table against the authority table.
func (a *armory) Compare(ctx context.Context, opts ...CompareOption) (*Report, error) {
	ctx, runID := a.runContext(ctx, "compare")
	o := newCompareOptions(a.config.tables, opts...)
	return a.compare(ctx, runID, o)
}

func (a *armory) compare(ctx context.Context, runID string, o *compareOptions) (*Report, error) {
	logger := logging.Ctx(ctx)
	started := time.Now()

	in, err := a.load(ctx, o)
	if err != nil {
		return nil, err
	}

	engine := mapping.Identity()
	if o.mappings {
		engine, err = mapping.New(in.rules, mapping.Merged)
		if err != nil {
			return nil, err
		}
		for _, r := range engine.Shadowed() {
			logger.Warn().Str("kind", r.Kind.String()).Str("from", r.From).Str("scope", r.Scope).Msg("Duplicate mapping rule ignored")
		}
	}

	recsA := engine.Apply(records.FromTable(in.local))
	recsB := engine.Apply(records.FromTable(in.authority))
	idxA := profile.Aggregate(recsA, profile.WithKeyFunc(a.keyFunc()))
	idxB := profile.Aggregate(recsB, profile.WithKeyFunc(a.keyFunc()))
	if n := idxA.Dropped() + idxB.Dropped(); n > 0 {
		logger.Debug().Int("local", idxA.Dropped()).Int("authority", idxB.Dropped()).Msg("Records without entity id dropped")
	}

	diffOpts := []differ.Option{
		differ.WithLanguage(a.language()),
		differ.WithConcurrency(a.config.concurrency),
		differ.WithSourceNames(o.labelA, o.labelB),
	}
	if in.known != nil {
		diffOpts = append(diffOpts, differ.WithKnownIDs(in.known))
	}
	d := differ.New(diffOpts...)

	r := &Report{
		RunID:     runID,
		Mode:      FlatMode,
		Local:     o.local,
		Authority: o.auth,
		Output:    o.output,
		StartedAt: started,
		RecordsA:  len(recsA),
		RecordsB:  len(recsB),
		EntitiesA: idxA.Len(),
		EntitiesB: idxB.Len(),
		Rules:     engine.Len(),
		Known:     in.known.Len(),
	}
	if o.summary {
		r.Mode = SummaryMode
		r.Summaries = d.Summarize(idxA, idxB)
		r.Header = report.SummaryHeader(a.language())
		r.Rows = report.SummaryRows(r.Summaries, a.language())
	} else {
		r.Discrepancies = d.Diff(idxA, idxB)
		r.Header = report.FlatHeader(a.language())
		r.Rows = report.FlatRows(r.Discrepancies, a.language())
	}

	mode := report.Replace
	if o.append {
		mode = report.Append
	}
	if err := report.Write(ctx, a.store(), o.output, r.Header, r.Rows, mode); err != nil {
		return nil, errors.WrapResource("compare", "report", o.output, err)
	}
	r.Duration = time.Since(started)

	logger.Info().
		Str("mode", string(r.Mode)).
		Int("entities_local", r.EntitiesA).
		Int("entities_authority", r.EntitiesB).
		Int("rows", r.Count()).
		Str("output", o.output).
		Dur("duration", r.Duration).
		Msg("Comparison complete")

	a.hooks.triggerReport(r)
	return r, nil
}

// load reads both sources, the rules and the roster concurrently. A missing
// source fails the comparison before anything is written.
func (a *armory) load(ctx context.Context, o *compareOptions) (*inputs, error) {
	in := &inputs{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := a.store().Read(gctx, o.local)
		if err != nil {
			return err
		}
		in.local = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.store().Read(gctx, o.auth)
		if err != nil {
			return err
		}
		in.authority = rows
		return nil
	})
	if o.mappings {
		g.Go(func() error {
			rules, err := a.loadRules(gctx)
			if err != nil {
				return err
			}
			in.rules = rules
			return nil
		})
	}
	if o.roster {
		g.Go(func() error {
			known, err := roster.Load(gctx, a.store(), a.config.tables.Roster)
			if err != nil {
				return err
			}
			in.known = known
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.IsNotFound(err) {
			logging.Ctx(ctx).Error().Err(err).Msg("Source table not found")
		}
		return nil, err
	}
	return in, nil
}
