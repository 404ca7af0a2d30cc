// Package armory reconciles equipment-assignment records kept by unit-level
// partitions against a consolidated authority table.
//
// A run normalizes each partition's workbook into canonical records
// (Transform), concatenates them into the local table (Merge), and compares
// the local table with the authority table entity by entity (Compare). Sync
// chains the three and skips the comparison when neither side has changed
// since the last run.
//
// Example usage:
//
//	store, err := tables.Open(ctx, "xlsx://armory.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a, err := armory.New(armory.WithStore(store))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	a.OnReport(func(r *armory.Report) {
//	    log.Printf("%d discrepancies", r.Count())
//	})
//
//	report, err := a.Compare(ctx, armory.Summary())
package armory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/agentstation/armory/internal/tables/memory"
	"github.com/agentstation/armory/pkg/layout"
	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/mapping"
	"github.com/agentstation/armory/pkg/profile"
	"github.com/agentstation/armory/pkg/roster"
	"github.com/agentstation/armory/pkg/tables"
)

// Armory runs the reconciliation pipeline against a table store.
type Armory interface {
	// Transform normalizes one partition's source table, writes its
	// normalized table and appends its entity ids to the roster.
	Transform(ctx context.Context, partition string) (*TransformResult, error)

	// TransformAll transforms every configured partition. Partitions whose
	// source table is missing are skipped.
	TransformAll(ctx context.Context) ([]*TransformResult, error)

	// Merge concatenates the normalized tables of the partitions listed in
	// the settings table into the local table.
	Merge(ctx context.Context) (*MergeResult, error)

	// Compare diffs the local table against the authority table and writes
	// the report table.
	Compare(ctx context.Context, opts ...CompareOption) (*Report, error)

	// Sync transforms, merges and compares when either compared table
	// changed since the last successful sync.
	Sync(ctx context.Context, opts ...CompareOption) (*SyncResult, error)

	// InitMappings writes the starter rule table unless one exists.
	InitMappings(ctx context.Context) (bool, error)

	// Mappings returns the rule table.
	Mappings(ctx context.Context) ([]mapping.Rule, error)

	// Roster returns the known-entities roster.
	Roster(ctx context.Context) (*roster.Snapshot, error)

	// Layouts returns the partition layouts.
	Layouts() *layout.Config

	// Tables returns the table names in use.
	Tables() Tables

	// OnReport registers a callback for every written report.
	OnReport(ReportHook)

	// OnSyncSkipped registers a callback for syncs that found no change.
	OnSyncSkipped(SyncSkippedHook)

	// Close closes the store.
	Close() error
}

// armory is the internal implementation of the Armory interface
type armory struct {
	mu     sync.Mutex
	config *config
	hooks  *hooks
}

// New creates an Armory with the given options. Without WithStore an
// in-memory store is used; without WithLayouts the default layouts are.
func New(opts ...Option) (Armory, error) {
	a := &armory{
		config: defaultConfig(),
		hooks:  newHooks(),
	}
	if err := a.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}
	if a.config.store == nil {
		a.config.store = memory.New()
	}
	if a.config.layouts == nil {
		a.config.layouts = layout.Default()
	}
	if err := a.config.layouts.Validate(); err != nil {
		return nil, fmt.Errorf("validating layouts: %w", err)
	}
	return a, nil
}

func (a *armory) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(a.config); err != nil {
			return err
		}
	}
	return nil
}

func (a *armory) store() tables.Store { return a.config.store }

func (a *armory) Layouts() *layout.Config { return a.config.layouts }

func (a *armory) Tables() Tables { return a.config.tables }

func (a *armory) Close() error { return a.config.store.Close() }

// runContext attaches the configured logger, a run id and the operation
// name unless the context already belongs to a run.
func (a *armory) runContext(ctx context.Context, operation string) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if runID := logging.RunID(ctx); runID != "" {
		return ctx, runID
	}
	if a.config.logger != nil {
		ctx = logging.WithLogger(ctx, a.config.logger)
	}
	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID)
	return logging.WithOperation(ctx, operation), runID
}

func (a *armory) language() language.Tag { return a.config.language }

func (a *armory) keyFunc() profile.KeyFunc { return a.config.keyFunc }
