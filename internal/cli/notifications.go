package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/collabevents/internal/domain"
)

// NotificationsOptions holds flags for the notifications commands.
type NotificationsOptions struct {
	*RootOptions
	As     int64
	Unread bool
}

// NewNotificationsCommand creates the notifications command group.
func NewNotificationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Read the acting user's notifications",
	}
	cmd.AddCommand(newNotificationsListCommand(rootOpts))
	cmd.AddCommand(newNotificationsReadCommand(rootOpts))
	return cmd
}

func newNotificationsListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NotificationsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(opts.RootOptions, opts.As, cmd, func(a *app, p domain.Principal) error {
				notes, err := a.engine.Notifications(cmd.Context(), p, opts.Unread)
				if err != nil {
					return a.out.Fail("list notifications", err)
				}
				return a.out.Success(notes, func(w io.Writer) { writeNotifications(w, notes) })
			})
		},
	}

	addActingAsFlag(cmd, &opts.As)
	cmd.Flags().BoolVar(&opts.Unread, "unread", false, "only unread notifications")

	return cmd
}

func newNotificationsReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NotificationsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("notification-id", args[0])
			if err != nil {
				return err
			}
			return withUser(opts.RootOptions, opts.As, cmd, func(a *app, p domain.Principal) error {
				if err := a.engine.MarkNotificationRead(cmd.Context(), p, id); err != nil {
					return a.out.Fail("mark notification read", err)
				}
				return a.out.Success(map[string]int64{"id": id}, func(w io.Writer) {
					fmt.Fprintf(w, "Notification %d marked as read.\n", id)
				})
			})
		},
	}

	addActingAsFlag(cmd, &opts.As)
	return cmd
}
