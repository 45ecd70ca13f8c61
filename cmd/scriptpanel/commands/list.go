package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/deixis/scriptpanel/internal/display"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured scripts",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s (%s)\n", loaded.Path, loaded.Source)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINTERVAL\tCOMMAND")
	for i, spec := range loaded.Scripts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", display.PanelID(i), spec.Interval(), strings.Join(spec.Argv, " "))
	}
	return w.Flush()
}
