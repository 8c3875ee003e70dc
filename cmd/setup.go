package cmd

import (
	"fmt"

	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/tui"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Welcome to pennypal!")
	fmt.Fprintln(out)

	saved, err := tui.RunSetup(&cfg)
	if err != nil {
		return err
	}
	if !saved {
		fmt.Fprintln(out, "  "+cli.Muted("Setup cancelled, nothing was saved."))
		return nil
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "  "+cli.OK("Saved to "+configPath()))
	fmt.Fprintln(out, "  Run `pennypal signin` or `pennypal tui` next.")
	fmt.Fprintln(out)
	return nil
}
