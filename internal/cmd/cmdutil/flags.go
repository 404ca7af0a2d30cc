// Package cmdutil provides flags and helpers shared by armory commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/appcontext"
	"github.com/agentstation/armory/pkg/profile"
)

// CompareFlags holds the flags of commands that produce a report.
type CompareFlags struct {
	Summary           bool
	Local             string
	Authority         string
	Out               string
	Append            bool
	NoMappings        bool
	NoRoster          bool
	DisambiguateBlank bool
	LabelA            string
	LabelB            string
}

// AddCompareFlags adds report flags to a command.
func AddCompareFlags(cmd *cobra.Command) *CompareFlags {
	flags := &CompareFlags{}

	cmd.Flags().BoolVar(&flags.Summary, "summary", false,
		"One row per entity instead of one row per finding")
	cmd.Flags().StringVar(&flags.Local, "local", "",
		"Table compared as source A (default: the merged table)")
	cmd.Flags().StringVar(&flags.Authority, "authority", "",
		"Table compared as source B (default: the authority table)")
	cmd.Flags().StringVar(&flags.Out, "out", "",
		"Report table (default depends on --summary)")
	cmd.Flags().BoolVar(&flags.Append, "append", false,
		"Append to the report table instead of replacing it")
	cmd.Flags().BoolVar(&flags.NoMappings, "no-mappings", false,
		"Compare without applying the mapping table")
	cmd.Flags().BoolVar(&flags.NoRoster, "no-roster", false,
		"Ignore the known-entities roster")
	cmd.Flags().BoolVar(&flags.DisambiguateBlank, "disambiguate-blank", false,
		"Number items without an identifier instead of merging them per type")
	cmd.Flags().StringVar(&flags.LabelA, "label-a", "",
		"Name of source A in descriptions")
	cmd.Flags().StringVar(&flags.LabelB, "label-b", "",
		"Name of source B in descriptions")

	return flags
}

// Options converts the flags into compare options.
func (f *CompareFlags) Options() []armory.CompareOption {
	var opts []armory.CompareOption
	if f.Summary {
		opts = append(opts, armory.Summary())
	}
	if f.Local != "" || f.Authority != "" {
		opts = append(opts, armory.CompareTables(f.Local, f.Authority))
	}
	if f.Out != "" {
		opts = append(opts, armory.Output(f.Out))
	}
	if f.Append {
		opts = append(opts, armory.Append())
	}
	if f.NoMappings {
		opts = append(opts, armory.WithoutMappings())
	}
	if f.NoRoster {
		opts = append(opts, armory.WithoutRoster())
	}
	if f.LabelA != "" || f.LabelB != "" {
		opts = append(opts, armory.SourceLabels(f.LabelA, f.LabelB))
	}
	return opts
}

// Armory returns the pipeline the flags call for: the shared instance, or
// a dedicated one when the item key function changes.
func (f *CompareFlags) Armory(app appcontext.Interface) (armory.Armory, error) {
	if f.DisambiguateBlank {
		return app.ArmoryWithOptions(armory.WithKeyFunc(profile.DisambiguatedKey))
	}
	return app.Armory()
}
