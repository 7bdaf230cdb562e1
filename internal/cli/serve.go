package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/collabevents/internal/api"
	"github.com/roach88/collabevents/internal/auth"
	"github.com/roach88/collabevents/internal/engine"
	"github.com/roach88/collabevents/internal/notify"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live notification server",
		Long: `Run the HTTP API and the /ws/notifications WebSocket endpoint.

Requests authenticate with bearer tokens signed by COLLAB_TOKEN_SECRET
(see "collabevents token"). Read notifications older than
COLLAB_NOTIFICATION_RETENTION are purged on COLLAB_PURGE_SCHEDULE.

Example:
  COLLAB_TOKEN_SECRET=s3cret collabevents serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $COLLAB_ADDR)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	// serve always logs at Info or below.
	if !opts.Verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}

	hub := notify.NewHub()
	dispatcher := notify.NewDispatcher(hub)

	a, err := openApp(opts.RootOptions, cmd, dispatcher)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.RequireSecret(); err != nil {
		return WrapExitError(ExitCommandError, "cannot issue or verify tokens", err)
	}
	tokens, err := auth.NewTokens([]byte(a.cfg.TokenSecret), a.cfg.TokenIssuer, a.cfg.TokenTTL)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot issue or verify tokens", err)
	}

	addr := a.cfg.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopDispatcher := runDispatcher(dispatcher)
	defer stopDispatcher(context.Background())

	housekeeping, err := startHousekeeping(a.engine, a.cfg.PurgeSchedule, a.cfg.NotificationRetention)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid purge schedule", err)
	}
	defer func() { <-housekeeping.Stop().Done() }()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(a.engine, tokens, hub, originChecker(a.cfg.AllowedOrigins)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr, "db", a.cfg.DBPath)
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s. Press Ctrl-C to stop.\n", addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server error", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "error", err)
	}
	stopDispatcher(shutdownCtx)

	slog.Info("server stopped gracefully")
	return nil
}

// runDispatcher starts delivering queued changes. The returned stop closes
// the dispatcher and waits until the queue is drained or ctx expires;
// anything still queued then is dropped. Notification rows are already
// committed either way.
func runDispatcher(d *notify.Dispatcher) (stop func(context.Context)) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := d.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("dispatcher stopped", "error", err)
		}
	}()

	return func(ctx context.Context) {
		defer cancel()
		d.Close()
		select {
		case <-done:
		case <-ctx.Done():
			cancel()
			<-done
			slog.Warn("dropped undelivered changes", "pending", d.Pending())
		}
	}
}

// startHousekeeping schedules the notification purge and starts the
// scheduler.
func startHousekeeping(eng *engine.Engine, spec string, retention time.Duration) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, purgeJob(eng, retention)); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

func purgeJob(eng *engine.Engine, retention time.Duration) func() {
	return func() {
		n, err := eng.PurgeReadNotifications(context.Background(), retention)
		if err != nil {
			slog.Warn("notification purge failed", "error", err)
			return
		}
		slog.Info("purged read notifications", "count", n, "retention", retention)
	}
}

// originChecker accepts same-host requests and the listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}
