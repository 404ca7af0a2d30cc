// Package layouts provides the layouts command.
package layouts

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/alerts"
	"github.com/agentstation/armory/internal/cmd/cmdutil"
	"github.com/agentstation/armory/internal/cmd/table"
	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/layout"
)

// NewCommand creates the layouts command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "layouts",
		GroupID: "management",
		Short:   "Inspect or export partition layouts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newListCommand(app), newInitCommand(app))
	return cmd
}

func newListCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured partition layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			am, err := app.Armory()
			if err != nil {
				return err
			}
			cfg := am.Layouts()
			return cmdutil.Print(cmd, app, cfg, table.Layouts(cfg))
		},
	}
}

func newInitCommand(app appcontext.Interface) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the built-in layouts to a YAML file for editing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.LayoutsFile()
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = constants.DefaultLayoutsFile
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewValidationError("file", path, "file exists, use --force to overwrite")
			}
			if err := layout.Default().Save(path); err != nil {
				return err
			}
			return cmdutil.Alert(cmd, app, alerts.NewSuccess(fmt.Sprintf("Wrote layouts to %s", path)))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
