package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/armory/cmd/armory/cmd/compare"
	"github.com/agentstation/armory/cmd/armory/cmd/layouts"
	"github.com/agentstation/armory/cmd/armory/cmd/mappings"
	"github.com/agentstation/armory/cmd/armory/cmd/merge"
	"github.com/agentstation/armory/cmd/armory/cmd/roster"
	syncmd "github.com/agentstation/armory/cmd/armory/cmd/sync"
	"github.com/agentstation/armory/cmd/armory/cmd/transform"
	"github.com/agentstation/armory/cmd/armory/cmd/watch"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/logging"
)

// Execute runs the armory CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "armory",
		Short:   "Equipment assignment reconciliation",
		Version: a.version,
		Long: `Armory reconciles equipment assignment records kept by individual
sub-units against the records held by the central authority.

Each sub-unit's table is normalized into canonical records, the partitions
are merged, and the merged table is compared with the authority table.
Discrepancies are written back to the store as a report table.

Tables live in a store: a directory of CSV files, an Excel workbook, a
SQLite file or a PostgreSQL database.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", "", "config file (default is ./.armory.yaml or $HOME/.armory.yaml)")
	flags.StringP("store", "s", "", "table store: a directory, file.xlsx, sqlite://path, postgres://dsn or mem://")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, wide")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("lang", "", "report language: he or en")

	rootCmd.SetVersionTemplate("armory {{.Version}}\n")
	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand applies persistent flags before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		config, err := LoadConfigFile(mustGetString(cmd, "config"))
		if err != nil {
			return err
		}
		a.config = config
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
		mustGetString(cmd, "store"),
		mustGetString(cmd, "lang"),
	)

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(transform.NewCommand(a))
	rootCmd.AddCommand(merge.NewCommand(a))
	rootCmd.AddCommand(compare.NewCommand(a))
	rootCmd.AddCommand(syncmd.NewCommand(a))
	rootCmd.AddCommand(watch.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(mappings.NewCommand(a))
	rootCmd.AddCommand(roster.NewCommand(a))
	rootCmd.AddCommand(layouts.NewCommand(a))

	rootCmd.AddCommand(a.createVersionCommand())
}

func (a *App) createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "armory %s\n", a.version)
			if a.config.Verbose {
				fmt.Fprintf(w, "  commit:   %s\n", a.commit)
				fmt.Fprintf(w, "  built:    %s\n", a.date)
				fmt.Fprintf(w, "  built by: %s\n", a.builtBy)
			}
		},
	}
}

// ExitCode maps err to a process exit status: 0 for nil, 2 for
// configuration and validation errors, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsConfigError(err), errors.IsValidationError(err):
		return 2
	default:
		return 1
	}
}

// ExitOnError prints err and exits with its ExitCode.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(ExitCode(err))
	}
}

// mustGetBool retrieves a persistent boolean flag defined by this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a persistent string flag defined by this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
