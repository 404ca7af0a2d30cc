// Package merge provides the merge command.
package merge

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/alerts"
	"github.com/agentstation/armory/internal/cmd/cmdutil"
)

// NewCommand creates the merge command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "merge",
		GroupID: "core",
		Short:   "Concatenate normalized partitions into the merged table",
		Long: `Merge reads the partition names listed in the first column of the
settings table and concatenates their normalized tables, in that order,
into the merged table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			am, err := app.Armory()
			if err != nil {
				return err
			}
			res, err := am.Merge(cmd.Context())
			if err != nil {
				return err
			}
			if err := cmdutil.Print(cmd, app, res, nil); err != nil {
				return err
			}
			if len(res.Missing) > 0 {
				return cmdutil.Alert(cmd, app, alerts.NewWarning("Normalized tables not found").WithDetails(res.Missing...))
			}
			return nil
		},
	}
}
