// Package commands holds the scriptpanel command tree.
package commands

import (
	"github.com/spf13/cobra"
)

// Root returns the root cobra command with all subcommands attached.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scriptpanel",
		Short:        "Run commands on timers and show their output",
		Long:         "scriptpanel runs each configured command on its own timer and shows the first line of its output as a label and the full text as details.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "settings file (default $SCRIPTPANEL_CONFIG or the user config dir)")
	cmd.PersistentFlags().String("log-file", "", "write diagnostics to this file instead of stderr")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(tuiCmd())
	cmd.AddCommand(mcpCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(schemaCmd())
	cmd.AddCommand(initCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}
