package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/deixis/scriptpanel/internal/tui"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Show the scripts in an interactive terminal view",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := startApp(cmd.Context(), cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	return tui.Run(a.board, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
}
