package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/collabevents/internal/domain"
)

// EventOptions holds flags shared by the event subcommands.
type EventOptions struct {
	*RootOptions
	As int64
}

// eventFieldFlags are the editable attributes accepted by create and update.
type eventFieldFlags struct {
	Title         string
	Description   string
	Start         string
	End           string
	Duration      time.Duration
	Location      string
	ClearLocation bool
	Recurring     bool
	Pattern       string
}

func (f *eventFieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Title, "title", "", "event title")
	cmd.Flags().StringVar(&f.Description, "description", "", "event description")
	cmd.Flags().StringVar(&f.Start, "start", "", "start time (RFC 3339)")
	cmd.Flags().StringVar(&f.End, "end", "", "end time (RFC 3339)")
	cmd.Flags().DurationVar(&f.Duration, "duration", 0, "length of the event, instead of --end")
	cmd.Flags().StringVar(&f.Location, "location", "", "event location")
	cmd.Flags().BoolVar(&f.Recurring, "recurring", false, "mark the event as recurring")
	cmd.Flags().StringVar(&f.Pattern, "pattern", "", "recurrence pattern: daily, weekly, monthly, yearly or an RRULE")
	cmd.MarkFlagsMutuallyExclusive("end", "duration")
}

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Create, edit, share and inspect events",
	}

	cmd.AddCommand(newEventCreateCommand(rootOpts))
	cmd.AddCommand(newEventUpdateCommand(rootOpts))
	cmd.AddCommand(newEventGetCommand(rootOpts))
	cmd.AddCommand(newEventListCommand(rootOpts))
	cmd.AddCommand(newEventShareCommand(rootOpts))
	cmd.AddCommand(newEventRollbackCommand(rootOpts))
	cmd.AddCommand(newEventHistoryCommand(rootOpts))
	cmd.AddCommand(newEventDiffCommand(rootOpts))
	cmd.AddCommand(newEventExportCommand(rootOpts))

	return cmd
}

func newEventCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}
	fields := &eventFieldFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event owned by the acting user",
		Long: `Create an event owned by the acting user.

The interval is rejected if it overlaps another event of the same owner.
Touching intervals (one ends when the next starts) are allowed.

Example:
  collabevents event create --as 1 --title Standup \
    --start 2025-03-10T10:00:00Z --duration 30m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fields.toFields()
			if err != nil {
				return err
			}
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				ev, err := a.engine.CreateEvent(cmd.Context(), p, f)
				if err != nil {
					return a.out.Fail("create event", err)
				}
				return a.out.Success(ev, func(w io.Writer) { writeEvent(w, ev) })
			})
		},
	}

	addActingAsFlag(cmd, &opts.As)
	fields.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	cmd.MarkFlagsOneRequired("end", "duration")

	return cmd
}

func newEventUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}
	fields := &eventFieldFlags{}

	cmd := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Edit an event (requires editor access)",
		Long: `Edit an event. Only the flags given are changed.

The previous state is recorded as a new version before the change is
applied. Pass --location "" to set an empty location or --clear-location
to remove it.

Example:
  collabevents event update 3 --as 2 --title "Standup (moved)" \
    --start 2025-03-10T11:00:00Z --end 2025-03-10T11:30:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event-id", args[0])
			if err != nil {
				return err
			}
			patch, err := fields.toPatch(cmd)
			if err != nil {
				return err
			}
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				ev, err := a.engine.UpdateEvent(cmd.Context(), p, id, patch)
				if err != nil {
					return a.out.Fail("update event", err)
				}
				return a.out.Success(ev, func(w io.Writer) { writeEvent(w, ev) })
			})
		},
	}

	addActingAsFlag(cmd, &opts.As)
	fields.register(cmd)
	cmd.Flags().BoolVar(&fields.ClearLocation, "clear-location", false, "remove the location")
	cmd.MarkFlagsMutuallyExclusive("location", "clear-location")

	return cmd
}

func newEventGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <event-id>",
		Short: "Show an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event-id", args[0])
			if err != nil {
				return err
			}
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				ev, err := a.engine.GetEvent(cmd.Context(), p, id)
				if err != nil {
					return a.out.Fail("get event", err)
				}
				return a.out.Success(ev, func(w io.Writer) { writeEvent(w, ev) })
			})
		},
	}
	addActingAsFlag(cmd, &opts.As)
	return cmd
}

func newEventListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events the acting user owns or was granted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				events, err := a.engine.ListEvents(cmd.Context(), p)
				if err != nil {
					return a.out.Fail("list events", err)
				}
				return a.out.Success(events, func(w io.Writer) { writeEventTable(w, events) })
			})
		},
	}
	addActingAsFlag(cmd, &opts.As)
	return cmd
}

func newEventShareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}
	var grantSpecs []string

	cmd := &cobra.Command{
		Use:   "share <event-id>",
		Short: "Grant viewer or editor access (owner only)",
		Long: `Grant viewer or editor access to other users. Only the owner may share.

Re-granting a user replaces their previous role.

Example:
  collabevents event share 3 --as 1 --grant 2:editor --grant 5:viewer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event-id", args[0])
			if err != nil {
				return err
			}
			grants, err := parseGrants(grantSpecs)
			if err != nil {
				return err
			}
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				perms, err := a.engine.ShareEvent(cmd.Context(), p, id, grants)
				if err != nil {
					return a.out.Fail("share event", err)
				}
				return a.out.Success(perms, func(w io.Writer) { writePermissions(w, perms) })
			})
		},
	}

	addActingAsFlag(cmd, &opts.As)
	cmd.Flags().StringArrayVar(&grantSpecs, "grant", nil, "grant as <user-id>:<viewer|editor> (repeatable)")
	_ = cmd.MarkFlagRequired("grant")

	return cmd
}

func newEventRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rollback <event-id> <version-id>",
		Short: "Restore an event to a recorded version (owner only)",
		Long: `Restore the title, description, times and location recorded in a
version. The current state is recorded as a new version first, so a
rollback can itself be undone.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event-id", args[0])
			if err != nil {
				return err
			}
			versionID, err := parseID("version-id", args[1])
			if err != nil {
				return err
			}
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				ev, err := a.engine.RollbackEvent(cmd.Context(), p, id, versionID)
				if err != nil {
					return a.out.Fail("rollback event", err)
				}
				return a.out.Success(ev, func(w io.Writer) { writeEvent(w, ev) })
			})
		},
	}
	addActingAsFlag(cmd, &opts.As)
	return cmd
}

func newEventHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <event-id>",
		Short: "List the recorded versions of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event-id", args[0])
			if err != nil {
				return err
			}
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				history, err := a.engine.History(cmd.Context(), p, id)
				if err != nil {
					return a.out.Fail("event history", err)
				}
				return a.out.Success(history, func(w io.Writer) { writeHistory(w, history) })
			})
		},
	}
	addActingAsFlag(cmd, &opts.As)
	return cmd
}

func newEventDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <event-id> <from-version-id> <to-version-id>",
		Short: "Show the fields that differ between two versions",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event-id", args[0])
			if err != nil {
				return err
			}
			from, err := parseID("from-version-id", args[1])
			if err != nil {
				return err
			}
			to, err := parseID("to-version-id", args[2])
			if err != nil {
				return err
			}
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				diff, err := a.engine.Diff(cmd.Context(), p, id, from, to)
				if err != nil {
					return a.out.Fail("diff versions", err)
				}
				return a.out.Success(diff, func(w io.Writer) { writeDiff(w, diff) })
			})
		},
	}
	addActingAsFlag(cmd, &opts.As)
	return cmd
}

func newEventExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <event-id>",
		Short: "Print an event as an iCalendar document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event-id", args[0])
			if err != nil {
				return err
			}
			return withEngine(opts, cmd, func(a *app, p domain.Principal) error {
				doc, err := a.engine.ExportEvent(cmd.Context(), p, id)
				if err != nil {
					return a.out.Fail("export event", err)
				}
				return a.out.Success(doc, func(w io.Writer) { fmt.Fprint(w, doc) })
			})
		},
	}
	addActingAsFlag(cmd, &opts.As)
	return cmd
}

// withEngine opens the app for the acting user and runs fn.
func withEngine(opts *EventOptions, cmd *cobra.Command, fn func(*app, domain.Principal) error) error {
	return withUser(opts.RootOptions, opts.As, cmd, fn)
}

func (f *eventFieldFlags) toFields() (domain.EventFields, error) {
	start, err := parseTimeFlag("start", f.Start)
	if err != nil {
		return domain.EventFields{}, err
	}
	end, err := f.end(start)
	if err != nil {
		return domain.EventFields{}, err
	}

	out := domain.EventFields{
		Title:       f.Title,
		Description: f.Description,
		Start:       start,
		End:         end,
		IsRecurring: f.Recurring,
	}
	if f.Location != "" {
		out.Location = &f.Location
	}
	if f.Pattern != "" {
		out.RecurrencePattern = &f.Pattern
	}
	return out, nil
}

func (f *eventFieldFlags) end(start time.Time) (time.Time, error) {
	if f.Duration != 0 {
		return start.Add(f.Duration), nil
	}
	return parseTimeFlag("end", f.End)
}

// toPatch sets only the fields whose flags were given on the command line.
func (f *eventFieldFlags) toPatch(cmd *cobra.Command) (domain.EventPatch, error) {
	var patch domain.EventPatch
	changed := cmd.Flags().Changed

	if changed("title") {
		patch.Title = domain.Some(f.Title)
	}
	if changed("description") {
		patch.Description = domain.Some(f.Description)
	}
	if changed("start") {
		start, err := parseTimeFlag("start", f.Start)
		if err != nil {
			return patch, err
		}
		patch.Start = domain.Some(start)
	}
	if changed("end") {
		end, err := parseTimeFlag("end", f.End)
		if err != nil {
			return patch, err
		}
		patch.End = domain.Some(end)
	}
	if changed("duration") {
		if !changed("start") {
			return patch, NewExitError(ExitCommandError, "--duration requires --start")
		}
		patch.End = domain.Some(patch.Start.Value.Add(f.Duration))
	}
	if changed("location") {
		patch.Location = domain.Some(&f.Location)
	}
	if f.ClearLocation {
		patch.Location = domain.Some[*string](nil)
	}
	if changed("recurring") {
		patch.IsRecurring = domain.Some(f.Recurring)
	}
	if changed("pattern") {
		if f.Pattern == "" {
			patch.RecurrencePattern = domain.Some[*string](nil)
		} else {
			patch.RecurrencePattern = domain.Some(&f.Pattern)
		}
	}
	return patch, nil
}

func parseTimeFlag(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, NewExitError(ExitCommandError, fmt.Sprintf("--%s is required", name))
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, NewExitError(ExitCommandError, fmt.Sprintf("--%s: %q is not an RFC 3339 time", name, s))
	}
	return t, nil
}

// parseGrants parses "<user-id>:<role>" specs.
func parseGrants(specs []string) ([]domain.Grant, error) {
	grants := make([]domain.Grant, 0, len(specs))
	for _, spec := range specs {
		user, role, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("--grant %q: want <user-id>:<role>", spec))
		}
		id, err := strconv.ParseInt(user, 10, 64)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("--grant %q: bad user id", spec))
		}
		r, err := domain.ParseRole(role)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("--grant %q", spec), err)
		}
		grants = append(grants, domain.Grant{UserID: id, Role: r})
	}
	return grants, nil
}
