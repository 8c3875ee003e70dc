package cmd

import (
	"fmt"

	"github.com/pennypal/pennypal/internal/cli"
	"github.com/pennypal/pennypal/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "  Config file: %s\n", configPath())
	if configExists() {
		fmt.Fprintln(out, "  Status: loaded")
	} else {
		fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(out)

	section := func(name string, pairs [][2]string) {
		fmt.Fprintf(out, "  [%s]\n", name)
		fmt.Fprint(out, cli.RenderKV(pairs))
		fmt.Fprintln(out)
	}

	section("API", [][2]string{
		{"Base URL", config.GetAPIURL(cfg)},
		{"Timeout", config.RequestTimeout(cfg).String()},
	})

	authURL := config.GetAuthURL(cfg)
	if authURL == "" {
		authURL = "not configured"
	}
	section("Auth", [][2]string{
		{"URL", authURL},
		{"Anon key", config.Mask(config.GetAnonKey(cfg))},
	})

	store := [][2]string{{"Backend", cfg.Store.Backend}}
	if cfg.Store.Backend == config.BackendPostgres {
		store = append(store, [2]string{"Database DSN", config.Mask(config.GetDatabaseDSN(cfg))})
	}
	section("Store", store)

	refresh := "off"
	if cfg.TUI.AutoRefresh {
		refresh = fmt.Sprintf("every %ds", cfg.TUI.RefreshIntervalSec)
	}
	section("TUI", [][2]string{
		{"Tab switch delay", config.TabSwitchDelay(cfg).String()},
		{"Auto refresh", refresh},
		{"Theme", cfg.Appearance.Theme},
	})

	section("Files", [][2]string{
		{"Session", config.SessionPath()},
		{"Log", config.LogPath(cfg)},
		{"Log level", cfg.Log.Level},
	})

	fmt.Fprintln(out, "  Run `pennypal setup` to reconfigure.")
	return nil
}
