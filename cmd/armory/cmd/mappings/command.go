// Package mappings provides the mappings command and its subcommands.
package mappings

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/alerts"
	"github.com/agentstation/armory/internal/cmd/cmdutil"
	"github.com/agentstation/armory/internal/cmd/table"
	"github.com/agentstation/armory/pkg/mapping"
)

// NewCommand creates the mappings command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mappings",
		GroupID: "management",
		Short:   "Manage the mapping table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newInitCommand(app), newListCommand(app))
	return cmd
}

func newInitCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the mapping table with starter rules if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			am, err := app.Armory()
			if err != nil {
				return err
			}
			created, err := am.InitMappings(cmd.Context())
			if err != nil {
				return err
			}
			name := am.Tables().Rules
			if !created {
				return cmdutil.Alert(cmd, app, alerts.NewInfo(fmt.Sprintf("Mapping table %q already exists", name)))
			}
			return cmdutil.Alert(cmd, app, alerts.NewSuccess(fmt.Sprintf("Created mapping table %q", name)))
		},
	}
}

func newListCommand(app appcontext.Interface) *cobra.Command {
	var scope string
	var merged bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mapping rules",
		Long: `List prints the rules of the mapping table. With --scope only the rules
applied when transforming that partition are shown; with --merged only
the rules applied when comparing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			am, err := app.Armory()
			if err != nil {
				return err
			}
			rules, err := am.Mappings(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case merged:
				rules = Filter(rules, mapping.Merged)
			case scope != "":
				rules = Filter(rules, mapping.Partition(scope))
			}
			return cmdutil.Print(cmd, app, rules, table.Rules(rules))
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Only rules applied to this partition")
	cmd.Flags().BoolVar(&merged, "merged", false, "Only rules applied when comparing")
	cmd.MarkFlagsMutuallyExclusive("scope", "merged")
	return cmd
}

// Filter keeps the rules admitted by scope.
func Filter(rules []mapping.Rule, scope mapping.Scope) []mapping.Rule {
	var out []mapping.Rule
	for _, r := range rules {
		if scope.Admits(r) {
			out = append(out, r)
		}
	}
	return out
}
