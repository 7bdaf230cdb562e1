package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/collabevents/internal/config"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/engine"
	"github.com/roach88/collabevents/internal/notify"
	"github.com/roach88/collabevents/internal/store"
)

// app bundles what a command needs to talk to the engine.
type app struct {
	cfg    config.Config
	store  *store.Store
	engine *engine.Engine
	out    *OutputFormatter
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.DB != "" {
		cfg.DBPath = opts.DB
	}
	return cfg, nil
}

// openApp loads configuration and opens the database, creating its
// directory if needed. emitter may be nil. Callers must call close.
func openApp(opts *RootOptions, cmd *cobra.Command, emitter notify.Emitter) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
	}

	slog.Debug("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &app{
		cfg:    cfg,
		store:  st,
		engine: engine.New(st, emitter, engine.WithRollbackConflictCheck(cfg.RollbackConflictCheck)),
		out:    newFormatter(opts, cmd),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// actingAs turns the --as flag into a principal.
func actingAs(id int64) (domain.Principal, error) {
	if id <= 0 {
		return domain.Principal{}, NewExitError(ExitCommandError, fmt.Sprintf("user id must be positive, got %d", id))
	}
	return domain.Principal{ID: id}, nil
}

// withUser opens the app and runs fn as the user given by --as.
func withUser(opts *RootOptions, as int64, cmd *cobra.Command, fn func(*app, domain.Principal) error) error {
	p, err := actingAs(as)
	if err != nil {
		return err
	}
	a, err := openApp(opts, cmd, nil)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a, p)
}

func addActingAsFlag(cmd *cobra.Command, dst *int64) {
	cmd.Flags().Int64Var(dst, "as", 0, "id of the acting user (required)")
	_ = cmd.MarkFlagRequired("as")
}

// parseID parses a positional id argument.
func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("%s must be a positive integer, got %q", name, s))
	}
	return id, nil
}
