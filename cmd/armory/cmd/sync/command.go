// Package sync provides the sync command.
package sync

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/cmd/armory/cmd/compare"
	"github.com/agentstation/armory/cmd/armory/cmd/transform"
	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/alerts"
	"github.com/agentstation/armory/internal/cmd/cmdutil"
)

// NewCommand creates the sync command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *cmdutil.CompareFlags

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Transform, merge and compare when the sources changed",
		Long: `Sync runs the whole pipeline: every partition is transformed, the
partitions are merged, and the merged table is compared with the authority
table. The comparison is skipped when the compared tables, the rules and
the roster are unchanged since the last sync into the same report table
and that report still exists; fingerprints are kept in the hashes table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			am, err := flags.Armory(app)
			if err != nil {
				return err
			}
			res, err := am.Sync(cmd.Context(), flags.Options()...)
			if err != nil {
				return err
			}
			return Print(cmd, app, res)
		},
	}

	flags = cmdutil.AddCompareFlags(cmd)
	return cmd
}

// Print writes a sync result: the report when one was produced, an alert
// when the comparison was skipped.
func Print(cmd *cobra.Command, app appcontext.Interface, res *armory.SyncResult) error {
	if err := transform.Alert(cmd, app, res.Transforms); err != nil {
		return err
	}
	if res.Skipped {
		return cmdutil.Alert(cmd, app, alerts.NewInfo("No changes since the last sync, comparison skipped"))
	}
	return compare.Print(cmd, app, res.Report)
}
