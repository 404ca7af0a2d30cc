package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/internal/cmd/alerts"
	"github.com/agentstation/armory/internal/cmd/output"
)

// Print writes a result to stdout. Table formats render tabular, or value
// as properties when tabular is nil; structured formats render value.
func Print(cmd *cobra.Command, app appcontext.Interface, value any, tabular *output.Data) error {
	format := output.Format(app.OutputFormat())
	formatter := output.NewFormatter(format)
	switch {
	case format == output.FormatJSON || format == output.FormatYAML || tabular == nil:
		return formatter.Format(cmd.OutOrStdout(), value)
	default:
		return formatter.Format(cmd.OutOrStdout(), *tabular)
	}
}

// Alert writes a status notification to stderr in the output format.
func Alert(cmd *cobra.Command, app appcontext.Interface, alert *alerts.Alert) error {
	w := alerts.NewFormatWriter(cmd.ErrOrStderr(), output.Format(app.OutputFormat()))
	return w.WriteAlert(alert)
}
