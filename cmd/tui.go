package cmd

import (
	"errors"
	"fmt"

	"github.com/pennypal/pennypal/internal/authprovider"
	"github.com/pennypal/pennypal/internal/tui"
	"github.com/pennypal/pennypal/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	e, err := newEnv(ctx)
	if errors.Is(err, authprovider.ErrNotConfigured) {
		// Nothing can run without the auth provider, so ask for it first.
		cfg, lerr := loadConfig()
		if lerr != nil {
			return lerr
		}
		saved, serr := tui.RunSetup(&cfg)
		if serr != nil {
			return serr
		}
		if !saved {
			return err
		}
		if serr := saveConfig(cfg); serr != nil {
			return fmt.Errorf("saving config: %w", serr)
		}
		e, err = newEnv(ctx)
	}
	if err != nil {
		return err
	}
	defer e.Close()

	theme.SetActive(e.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	return tui.Run(ctx, tui.Deps{
		Session:    e.sess,
		Gateway:    e.gw,
		Config:     e.cfg,
		SaveConfig: saveConfig,
		NeedSetup:  !configExists(),
		Log:        e.log,
	})
}
