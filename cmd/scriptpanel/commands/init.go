package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deixis/scriptpanel/internal/config"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a settings template if none exists",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	path := configPath(cmd)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "  settings already exist at %s\n", path)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(config.TemplateSettings()), 0o644); err != nil {
		return fmt.Errorf("writing settings template: %w", err)
	}
	fmt.Fprintf(out, "  wrote settings template to %s\n", path)
	fmt.Fprintf(out, "\nEdit %s, then run 'scriptpanel run' or 'scriptpanel tui'.\n", path)
	return nil
}
