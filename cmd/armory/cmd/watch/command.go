// Package watch provides the watch command.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/cmd/armory/cmd/sync"
	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/cmdutil"
	"github.com/agentstation/armory/internal/tables"
	watcher "github.com/agentstation/armory/internal/watch"
	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/layout"
)

// Flags holds the watch flags.
type Flags struct {
	Interval  time.Duration
	Debounce  time.Duration
	NoInitial bool
}

// NewCommand creates the watch command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}
	var compareFlags *cmdutil.CompareFlags

	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: "core",
		Short:   "Run sync whenever the store changes",
		Long: `Watch runs sync once, then again whenever a source table in a local
store changes and at every interval. Stores without a local file (postgres,
memory) are synced on the interval only. Failed runs are logged and the
watcher keeps going until interrupted.`,
		Example: `  armory watch                    # Watch the configured store
  armory watch --interval 5m      # Also sync every five minutes
  armory watch --interval 0       # File changes only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			am, err := compareFlags.Armory(app)
			if err != nil {
				return err
			}

			opts := []watcher.Option{
				watcher.WithInterval(flags.Interval),
				watcher.WithDebounce(flags.Debounce),
				watcher.WithInitialRun(!flags.NoInitial),
				watcher.WithLogger(app.Logger()),
			}
			opts = append(opts, Paths(app.Store(), SourceTables(am.Layouts().Partitions, am.Tables()))...)

			w := watcher.New(func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
				defer cancel()
				res, err := am.Sync(ctx, compareFlags.Options()...)
				if err != nil {
					return err
				}
				return sync.Print(cmd, app, res)
			}, opts...)
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&flags.Interval, "interval", constants.DefaultWatchInterval,
		"Sync at this interval regardless of file changes (0 disables)")
	cmd.Flags().DurationVar(&flags.Debounce, "debounce", constants.WatchDebounce,
		"Wait for changes to settle this long before syncing")
	cmd.Flags().BoolVar(&flags.NoInitial, "no-initial", false,
		"Do not sync on start")
	compareFlags = cmdutil.AddCompareFlags(cmd)
	return cmd
}

// Paths returns the watch options for a store location. A CSV directory is
// watched for the given source tables only, so reports written by a sync
// do not trigger another.
func Paths(loc tables.Location, sources []string) []watcher.Option {
	switch loc.Kind {
	case tables.CSV:
		names := make(map[string]bool, len(sources))
		for _, s := range sources {
			names[s+".csv"] = true
		}
		return []watcher.Option{
			watcher.WithPaths(loc.Path),
			watcher.WithFilter(func(name string) bool { return names[name] }),
		}
	case tables.Workbook, tables.SQLite:
		path := strings.TrimPrefix(loc.Path, "file:")
		return []watcher.Option{watcher.WithPaths(filepath.Clean(path))}
	default:
		return nil
	}
}

// SourceTables lists the tables a sync reads: every partition input plus
// the authority, rule and settings tables.
func SourceTables(partitions []layout.Layout, t armory.Tables) []string {
	names := make([]string, 0, len(partitions)+3)
	for _, l := range partitions {
		names = append(names, l.InputTable())
	}
	return append(names, t.Authority, t.Rules, t.Settings)
}
