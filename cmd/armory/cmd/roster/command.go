// Package roster provides the roster command.
package roster

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/cmdutil"
	"github.com/agentstation/armory/internal/cmd/table"
)

// NewCommand creates the roster command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "roster",
		GroupID: "management",
		Short:   "Inspect the known-entities roster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every entity id seen by transform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			am, err := app.Armory()
			if err != nil {
				return err
			}
			snapshot, err := am.Roster(cmd.Context())
			if err != nil {
				return err
			}
			return cmdutil.Print(cmd, app, snapshot.IDs(), table.Roster(snapshot))
		},
	})
	return cmd
}
