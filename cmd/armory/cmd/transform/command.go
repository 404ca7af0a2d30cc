// Package transform provides the transform command.
package transform

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/alerts"
	"github.com/agentstation/armory/internal/cmd/cmdutil"
	"github.com/agentstation/armory/internal/cmd/table"
)

// NewCommand creates the transform command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "transform [partition...]",
		GroupID: "core",
		Short:   "Normalize partition tables into canonical records",
		Long: `Transform reads each partition's source table with its layout, applies
the partition's mapping rules and writes the canonical records to the
partition's normalized table. Entity ids seen are added to the roster.

Without arguments every configured partition is transformed; partitions
whose source table is missing are skipped with a warning.`,
		Example: `  armory transform              # All partitions
  armory transform "פלוגה א"      # One partition`,
		RunE: func(cmd *cobra.Command, args []string) error {
			am, err := app.Armory()
			if err != nil {
				return err
			}

			var results []*armory.TransformResult
			if len(args) == 0 {
				results, err = am.TransformAll(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				for _, name := range args {
					res, err := am.Transform(cmd.Context(), name)
					if err != nil {
						return err
					}
					results = append(results, res)
				}
			}

			if err := cmdutil.Print(cmd, app, results, table.Transforms(results)); err != nil {
				return err
			}
			return Alert(cmd, app, results)
		},
	}
}

// Alert reports partitions skipped for a missing source table.
func Alert(cmd *cobra.Command, app appcontext.Interface, results []*armory.TransformResult) error {
	var missing []string
	for _, r := range results {
		if r.Missing {
			missing = append(missing, fmt.Sprintf("%s (table %s)", r.Partition, r.Input))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return cmdutil.Alert(cmd, app, alerts.NewWarning("Partitions skipped, source table not found").WithDetails(missing...))
}
