package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/collabevents/internal/domain"
)

// argumentError reports a scenario step whose arguments cannot be turned
// into an engine call. It aborts the run rather than becoming a case.
type argumentError struct {
	Action string
	Err    error
}

func (e *argumentError) Error() string {
	return fmt.Sprintf("%s: bad arguments: %v", e.Action, e.Err)
}

func (e *argumentError) Unwrap() error { return e.Err }

func badArgs(action string, err error) error {
	return &argumentError{Action: action, Err: err}
}

// invoke dispatches one step to the engine and renders its result.
func (h *Harness) invoke(ctx context.Context, action string, actor int64, args map[string]any) (any, error) {
	p := domain.Principal{ID: actor}

	switch action {
	case ActionCreate:
		var f domain.EventFields
		if err := decodeArgs(args, &f); err != nil {
			return nil, badArgs(action, err)
		}
		ev, err := h.engine.CreateEvent(ctx, p, f)
		if err != nil {
			return nil, err
		}
		return eventResult(ev), nil

	case ActionUpdate:
		id, err := intArg(args, "event")
		if err != nil {
			return nil, badArgs(action, err)
		}
		patch, err := patchArgs(args)
		if err != nil {
			return nil, badArgs(action, err)
		}
		ev, err := h.engine.UpdateEvent(ctx, p, id, patch)
		if err != nil {
			return nil, err
		}
		return eventResult(ev), nil

	case ActionShare:
		id, err := intArg(args, "event")
		if err != nil {
			return nil, badArgs(action, err)
		}
		var grants []domain.Grant
		if err := decodeValue(args["grants"], &grants); err != nil {
			return nil, badArgs(action, err)
		}
		perms, err := h.engine.ShareEvent(ctx, p, id, grants)
		if err != nil {
			return nil, err
		}
		return permissionsResult(perms), nil

	case ActionRollback:
		id, err := intArg(args, "event")
		if err != nil {
			return nil, badArgs(action, err)
		}
		number, err := intArg(args, "version")
		if err != nil {
			return nil, badArgs(action, err)
		}
		versionID, err := h.versionID(ctx, id, number)
		if err != nil {
			return nil, err
		}
		ev, err := h.engine.RollbackEvent(ctx, p, id, versionID)
		if err != nil {
			return nil, err
		}
		return eventResult(ev), nil

	case ActionGet:
		id, err := intArg(args, "event")
		if err != nil {
			return nil, badArgs(action, err)
		}
		ev, err := h.engine.GetEvent(ctx, p, id)
		if err != nil {
			return nil, err
		}
		return eventResult(ev), nil

	case ActionList:
		events, err := h.engine.ListEvents(ctx, p)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(events))
		for i, ev := range events {
			out[i] = eventResult(ev)
		}
		return out, nil

	case ActionHistory:
		id, err := intArg(args, "event")
		if err != nil {
			return nil, badArgs(action, err)
		}
		list, err := h.engine.History(ctx, p, id)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(list))
		for i, v := range list {
			out[i] = versionResult(v)
		}
		return out, nil

	case ActionDiff:
		id, err := intArg(args, "event")
		if err != nil {
			return nil, badArgs(action, err)
		}
		from, err := intArg(args, "from")
		if err != nil {
			return nil, badArgs(action, err)
		}
		to, err := intArg(args, "to")
		if err != nil {
			return nil, badArgs(action, err)
		}
		fromID, err := h.versionID(ctx, id, from)
		if err != nil {
			return nil, err
		}
		toID, err := h.versionID(ctx, id, to)
		if err != nil {
			return nil, err
		}
		d, err := h.engine.Diff(ctx, p, id, fromID, toID)
		if err != nil {
			return nil, err
		}
		return diffResult(d), nil

	case ActionNotifications:
		unread := false
		if v, ok := args["unread"]; ok {
			b, isBool := v.(bool)
			if !isBool {
				return nil, badArgs(action, fmt.Errorf("unread must be a bool"))
			}
			unread = b
		}
		list, err := h.engine.Notifications(ctx, p, unread)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = notificationResult(n)
		}
		return out, nil

	case ActionMarkRead:
		id, err := intArg(args, "notification")
		if err != nil {
			return nil, badArgs(action, err)
		}
		if err := h.engine.MarkNotificationRead(ctx, p, id); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return nil, badArgs(action, fmt.Errorf("unknown action"))
}

// versionID resolves a per-event version number to its row ID. Unknown
// numbers resolve to 0, which the engine reports as not_found.
func (h *Harness) versionID(ctx context.Context, eventID, number int64) (int64, error) {
	list, err := h.store.ListVersions(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("list versions: %w", err)
	}
	for _, v := range list {
		if int64(v.Number) == number {
			return v.ID, nil
		}
	}
	return 0, nil
}

// patchArgs builds an update patch. Every key except "event" and "clear"
// is a patch field; "clear" lists optional fields to reset to empty.
func patchArgs(args map[string]any) (domain.EventPatch, error) {
	fields := make(map[string]any, len(args))
	for k, v := range args {
		if k != "event" && k != "clear" {
			fields[k] = v
		}
	}

	var patch domain.EventPatch
	if err := decodeArgs(fields, &patch); err != nil {
		return patch, err
	}

	cleared, ok := args["clear"]
	if !ok {
		return patch, nil
	}
	names, ok := cleared.([]any)
	if !ok {
		return patch, fmt.Errorf("clear must be a list of field names")
	}
	for _, n := range names {
		switch n {
		case "description":
			patch.Description = domain.Some("")
		case "location":
			patch.Location = domain.Some[*string](nil)
		case "recurrence_pattern":
			patch.RecurrencePattern = domain.Some[*string](nil)
		default:
			return patch, fmt.Errorf("cannot clear %v", n)
		}
	}
	return patch, nil
}

// decodeArgs converts YAML-decoded args to a typed value through JSON,
// rejecting unknown keys.
func decodeArgs(args map[string]any, dst any) error {
	if args == nil {
		args = map[string]any{}
	}
	return decodeValue(args, dst)
}

func decodeValue(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func intArg(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
	return n, nil
}

// rejectNulls fails on null values, which canonical traces cannot encode.
// Use "clear" in update steps to reset optional fields.
func rejectNulls(v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null values are forbidden in scenario args")
	case map[string]any:
		for k, elem := range val {
			if err := rejectNulls(elem); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	case []any:
		for i, elem := range val {
			if err := rejectNulls(elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func eventResult(ev domain.Event) map[string]any {
	out := map[string]any{
		"id":           ev.ID,
		"owner_id":     ev.OwnerID,
		"title":        ev.Title,
		"description":  ev.Description,
		"start_time":   formatTime(ev.Start),
		"end_time":     formatTime(ev.End),
		"is_recurring": ev.IsRecurring,
	}
	if ev.Location != nil {
		out["location"] = *ev.Location
	}
	if ev.RecurrencePattern != nil {
		out["recurrence_pattern"] = *ev.RecurrencePattern
	}
	return out
}

func permissionsResult(perms []domain.Permission) []any {
	out := make([]any, len(perms))
	for i, p := range perms {
		out[i] = map[string]any{
			"user_id": p.UserID,
			"role":    p.Role.String(),
		}
	}
	return out
}

func versionResult(v domain.EventVersion) map[string]any {
	out := map[string]any{
		"version":    v.Number,
		"title":      v.Snapshot.Title,
		"start_time": formatTime(v.Snapshot.Start),
		"end_time":   formatTime(v.Snapshot.End),
		"updated_by": v.UpdatedBy,
	}
	if v.Snapshot.Location != nil {
		out["location"] = *v.Snapshot.Location
	}
	return out
}

// diffResult renders a diff. Absent locations are omitted from their side.
func diffResult(d domain.FieldDiff) map[string]any {
	out := make(map[string]any, len(d))
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := d[name]
		entry := map[string]any{}
		if v := diffValue(c.From); v != nil {
			entry["from"] = v
		}
		if v := diffValue(c.To); v != nil {
			entry["to"] = v
		}
		out[name] = entry
	}
	return out
}

func diffValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return formatTime(val)
	case *string:
		if val == nil {
			return nil
		}
		return *val
	default:
		return v
	}
}

func notificationResult(n domain.Notification) map[string]any {
	out := map[string]any{
		"id":      n.ID,
		"type":    string(n.Type),
		"message": n.Message,
		"is_read": n.IsRead,
	}
	if n.EventID != nil {
		out["event_id"] = *n.EventID
	}
	return out
}
