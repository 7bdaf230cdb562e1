package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/collabevents/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

func writeEvent(w io.Writer, ev domain.Event) {
	fmt.Fprintf(w, "Event %d: %s\n", ev.ID, ev.Title)
	fmt.Fprintf(w, "  Owner:    %d\n", ev.OwnerID)
	fmt.Fprintf(w, "  When:     %s - %s UTC\n", ev.Start.UTC().Format(timeLayout), ev.End.UTC().Format(timeLayout))
	if ev.Description != "" {
		fmt.Fprintf(w, "  About:    %s\n", ev.Description)
	}
	if ev.Location != nil {
		fmt.Fprintf(w, "  Location: %s\n", *ev.Location)
	}
	if ev.IsRecurring && ev.RecurrencePattern != nil {
		fmt.Fprintf(w, "  Repeats:  %s\n", *ev.RecurrencePattern)
	}
}

func writeEventTable(w io.Writer, events []domain.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTART\tEND\tOWNER")
	for _, ev := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n",
			ev.ID, ev.Title, ev.Start.UTC().Format(timeLayout), ev.End.UTC().Format(timeLayout), ev.OwnerID)
	}
	tw.Flush()
}

func writeHistory(w io.Writer, history []domain.EventVersion) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No versions recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tID\tBY\tAT\tTITLE")
	for _, v := range history {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n",
			v.Number, v.ID, v.UpdatedBy, v.UpdatedAt.UTC().Format(time.RFC3339), v.Snapshot.Title)
	}
	tw.Flush()
}

func writeDiff(w io.Writer, diff domain.FieldDiff) {
	if len(diff) == 0 {
		fmt.Fprintln(w, "No differences.")
		return
	}
	fields := make([]string, 0, len(diff))
	for f := range diff {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		c := diff[f]
		fmt.Fprintf(w, "%s: %s -> %s\n", f, diffValue(c.From), diffValue(c.To))
	}
}

func diffValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "(none)"
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprint(x)
	}
}

func writePermissions(w io.Writer, perms []domain.Permission) {
	for _, p := range perms {
		fmt.Fprintf(w, "user %d: %s\n", p.UserID, p.Role)
	}
}

func writeNotifications(w io.Writer, notes []domain.Notification) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	for _, n := range notes {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %d  %-17s %s\n", mark, n.ID, n.Type, strings.TrimSpace(n.Message))
	}
}
