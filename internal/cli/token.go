package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/collabevents/internal/auth"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	User int64
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		Long: `Issue a bearer token for the HTTP API and the notification WebSocket.

Tokens are signed with COLLAB_TOKEN_SECRET and expire after
COLLAB_TOKEN_TTL (0 for never).

Example:
  collabevents token --user 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.User, "user", 0, "user id the token identifies (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runToken(opts *TokenOptions, cmd *cobra.Command) error {
	p, err := actingAs(opts.User)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if err := cfg.RequireSecret(); err != nil {
		return WrapExitError(ExitCommandError, "cannot issue token", err)
	}

	tokens, err := auth.NewTokens([]byte(cfg.TokenSecret), cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot issue token", err)
	}
	signed, err := tokens.Issue(p)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot issue token", err)
	}

	out := newFormatter(opts.RootOptions, cmd)
	return out.Success(map[string]any{"user_id": p.ID, "token": signed}, func(w io.Writer) {
		fmt.Fprintln(w, signed)
	})
}
