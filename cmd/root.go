// Package cmd implements the pennypal CLI commands.
package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/authprovider"
	"github.com/pennypal/pennypal/internal/config"
	"github.com/pennypal/pennypal/internal/gateway"
	"github.com/pennypal/pennypal/internal/logging"
	"github.com/pennypal/pennypal/internal/model"
	"github.com/pennypal/pennypal/internal/records"
	"github.com/pennypal/pennypal/internal/session"
	"github.com/pennypal/pennypal/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagQuiet    bool
	flagLogLevel string
	flagAPIURL   string
)

var rootCmd = &cobra.Command{
	Use:           "pennypal",
	Short:         "Budget and payment automation from the terminal",
	Long:          "Track weekly spending, pending bills and automated payments.",
	RunE:          runDashboard,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "  "+errorLine(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Budget API base URL (overrides config)")
}

// errorLine renders err for the terminal, adding a hint for the common
// failure kinds.
func errorLine(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindAuth:
		if errors.Is(err, apperr.ErrNotSignedIn) {
			return "Not signed in. Run `pennypal signin` first."
		}
		return "Authentication failed: " + apperr.Message(err)
	case apperr.KindNetwork:
		return "Could not reach the server: " + apperr.Message(err)
	case apperr.KindProfileWrite, apperr.KindNone, apperr.KindUnknown:
		return err.Error()
	}
	return apperr.Message(err)
}

func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load()
}

func saveConfig(cfg config.Config) error {
	if flagConfig != "" {
		return config.SaveFile(flagConfig, cfg)
	}
	return config.Save(cfg)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

func configExists() bool {
	_, err := os.Stat(configPath())
	return err == nil
}

// env holds every collaborator a command may need. Build it with
// newEnv and release it with Close.
type env struct {
	cfg     config.Config
	log     logging.Logger
	auth    *authprovider.Client
	records records.Store
	sess    *session.Manager
	gw      *gateway.Client

	closers []io.Closer
}

// newEnv wires configuration, logging, the session store, the auth
// provider, the record store, the session manager and the gateway.
func newEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
	}
	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}

	e := &env{cfg: cfg}

	log, closer, err := logging.OpenFile(config.LogPath(cfg), level)
	if err != nil {
		// Logging is best effort; never block a command on it.
		e.log = logging.New(os.Stderr, "error")
	} else {
		e.log = log
		e.closers = append(e.closers, closer)
	}

	timeout := config.RequestTimeout(cfg)
	e.auth, err = authprovider.NewClient(config.GetAuthURL(cfg), config.GetAnonKey(cfg), authprovider.WithTimeout(timeout))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("%w (run `pennypal setup`)", err)
	}

	var mgr *session.Manager
	tokens := func() string {
		if mgr == nil {
			return ""
		}
		return mgr.AccessToken()
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := openRecordsDB(ctx, config.GetDatabaseDSN(cfg))
		if err != nil {
			e.Close()
			return nil, err
		}
		e.closers = append(e.closers, db)
		e.records = records.NewPostgres(db)
	default:
		rest, err := records.NewREST(config.GetAuthURL(cfg), config.GetAnonKey(cfg), records.TokenSource(tokens), timeout)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.records = rest
	}

	var persist session.Persister
	if ss, err := store.Open(config.SessionPath()); err != nil {
		e.log.Warn(ctx, "session store unavailable, sessions will not persist", "err", err)
	} else {
		e.closers = append(e.closers, ss)
		persist = ss
	}

	mgr = session.New(e.auth, e.records, persist, e.log)
	e.sess = mgr
	e.gw = gateway.New(config.GetAPIURL(cfg), gateway.TokenSource(tokens), e.records,
		gateway.WithTimeout(timeout),
		gateway.WithLogger(e.log),
	)
	return e, nil
}

func openRecordsDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("store backend is postgres but no database DSN is configured")
	}
	db, err := records.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := records.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the manager's subscribers and every opened resource.
func (e *env) Close() {
	if e.sess != nil {
		e.sess.Close()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
}

// requireSession restores the persisted session, refreshing it when
// needed, and fails when no one is signed in.
func (e *env) requireSession(ctx context.Context) (*model.Session, error) {
	s, err := e.sess.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.ErrNotSignedIn
	}
	return s, nil
}

// withSession is the shared path of every command that reads or writes
// user data.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, e *env, s *model.Session) error) error {
	ctx := cmd.Context()
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.requireSession(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, e, s)
}

func progress(cmd *cobra.Command, msg string) {
	if !flagQuiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", msg)
	}
}
