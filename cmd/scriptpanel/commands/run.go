package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deixis/scriptpanel/internal/display"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Print the label line whenever a script updates",
		Long: `Run every configured script on its timer and print the labels,
joined by the separator, each time one of them changes. Suitable as a
status bar feed.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
	cmd.Flags().String("sep", " | ", "separator between labels")
	cmd.Flags().Duration("attach-delay", 0, "wait before printing the first line")
	cmd.Flags().Bool("once", false, "print the line after the first run of every script and exit")
	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	sep, _ := cmd.Flags().GetString("sep")
	delay, _ := cmd.Flags().GetDuration("attach-delay")
	once, _ := cmd.Flags().GetBool("once")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := startApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	if once {
		if err := a.settled(ctx); err != nil {
			return fmt.Errorf("waiting for scripts: %w", err)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), a.board.Line(sep))
		return err
	}

	if !sleep(ctx, delay) {
		return nil
	}
	return display.WriteLines(ctx, cmd.OutOrStdout(), a.board, sep)
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
