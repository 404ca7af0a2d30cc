// Package compare provides the compare command.
package compare

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/alerts"
	"github.com/agentstation/armory/internal/cmd/cmdutil"
	"github.com/agentstation/armory/internal/cmd/table"
)

// NewCommand creates the compare command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *cmdutil.CompareFlags

	cmd := &cobra.Command{
		Use:     "compare",
		GroupID: "core",
		Short:   "Compare the merged table with the authority table",
		Long: `Compare normalizes both tables with the mapping table, groups their
records per entity and writes every discrepancy to a report table.

The flat report has one row per finding. The summary report (--summary)
has one row per entity with all of its findings joined.`,
		Example: `  armory compare                          # Flat report
  armory compare --summary                # One row per entity
  armory compare --no-roster -o json      # Ignore the roster, print JSON
  armory compare --local a --authority b  # Compare two arbitrary tables`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			am, err := flags.Armory(app)
			if err != nil {
				return err
			}
			report, err := am.Compare(cmd.Context(), flags.Options()...)
			if err != nil {
				return err
			}
			return Print(cmd, app, report)
		},
	}

	flags = cmdutil.AddCompareFlags(cmd)
	return cmd
}

// Print writes a report and a closing alert.
func Print(cmd *cobra.Command, app appcontext.Interface, report *armory.Report) error {
	if err := cmdutil.Print(cmd, app, report, table.Report(report)); err != nil {
		return err
	}
	if report.Clean() {
		return cmdutil.Alert(cmd, app, alerts.NewSuccess("No discrepancies").
			WithDetails(fmt.Sprintf("report: %s", report.Output)))
	}
	a := alerts.NewWarning(fmt.Sprintf("%d discrepancies for %d entities", report.Count(), len(report.Entities()))).
		WithDetails(fmt.Sprintf("report: %s", report.Output))
	for _, row := range table.Tally(report).Rows {
		a.WithDetails(row[0] + ": " + row[1])
	}
	return cmdutil.Alert(cmd, app, a)
}
