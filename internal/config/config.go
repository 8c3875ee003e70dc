package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all pennypal configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Auth       AuthConfig       `toml:"auth"`
	Store      StoreConfig      `toml:"store"`
	TUI        TUIConfig        `toml:"tui"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// APIConfig holds budgeting API settings.
type APIConfig struct {
	BaseURL    string `toml:"base_url"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// AuthConfig holds auth provider settings. The same host serves the
// REST record store.
type AuthConfig struct {
	URL     string `toml:"url,omitempty"`
	AnonKey string `toml:"anon_key,omitempty"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Backend     string `toml:"backend"`
	DatabaseDSN string `toml:"database_dsn,omitempty"`
}

// TUIConfig holds dashboard behaviour.
type TUIConfig struct {
	TabSwitchDelayMS   int  `toml:"tab_switch_delay_ms"`
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings. An empty file means the default
// location under the cache dir.
type LogConfig struct {
	File  string `toml:"file,omitempty"`
	Level string `toml:"level"`
}

// Store backends.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000/api",
			TimeoutSec: 15,
		},
		Store: StoreConfig{
			Backend: BackendREST,
		},
		TUI: TUIConfig{
			TabSwitchDelayMS:   300,
			AutoRefresh:        false,
			RefreshIntervalSec: 60,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pennypal")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pennypal")
}

// CacheDir returns the XDG-compliant cache directory holding the
// session database and the log file.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "pennypal")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "pennypal")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// SessionPath returns the path of the local session database.
func SessionPath() string {
	return filepath.Join(CacheDir(), "session.db")
}

// LogPath returns the configured log file or the default one.
func LogPath(cfg Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return filepath.Join(CacheDir(), "pennypal.log")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads a config from an explicit path.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to an explicit path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetAPIURL returns the budgeting API base URL from env var or config.
func GetAPIURL(cfg Config) string {
	if v := os.Getenv("PENNYPAL_API_URL"); v != "" {
		return v
	}
	return cfg.API.BaseURL
}

// GetAuthURL returns the auth provider URL from env var or config.
func GetAuthURL(cfg Config) string {
	if v := os.Getenv("PENNYPAL_AUTH_URL"); v != "" {
		return v
	}
	return cfg.Auth.URL
}

// GetAnonKey returns the provider's public key from env var or config.
func GetAnonKey(cfg Config) string {
	if v := os.Getenv("PENNYPAL_ANON_KEY"); v != "" {
		return v
	}
	return cfg.Auth.AnonKey
}

// GetDatabaseDSN returns the Postgres DSN from env var or config.
func GetDatabaseDSN(cfg Config) string {
	if v := os.Getenv("PENNYPAL_DATABASE_DSN"); v != "" {
		return v
	}
	return cfg.Store.DatabaseDSN
}

// RequestTimeout returns the per-request timeout, never zero.
func RequestTimeout(cfg Config) time.Duration {
	if cfg.API.TimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(cfg.API.TimeoutSec) * time.Second
}

// TabSwitchDelay returns the cosmetic delay before a tab mounts.
func TabSwitchDelay(cfg Config) time.Duration {
	if cfg.TUI.TabSwitchDelayMS < 0 {
		return 0
	}
	return time.Duration(cfg.TUI.TabSwitchDelayMS) * time.Millisecond
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
