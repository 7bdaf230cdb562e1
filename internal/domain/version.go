package domain

import "time"

// Snapshot is an immutable copy of an event's versioned fields.
type Snapshot struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Location    *string   `json:"location"`
}

// SnapshotOf captures the versioned fields of an event.
func SnapshotOf(e Event) Snapshot {
	var loc *string
	if e.Location != nil {
		v := *e.Location
		loc = &v
	}
	return Snapshot{
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start.UTC(),
		End:         e.End.UTC(),
		Location:    loc,
	}
}

// Restore returns a copy of the event with the snapshot's fields applied.
// Recurrence settings are not versioned and are kept as-is.
func (s Snapshot) Restore(e Event) Event {
	e.Title = s.Title
	e.Description = s.Description
	e.Start = s.Start
	e.End = s.End
	e.Location = s.Location
	return e
}

// EventVersion is an immutable, numbered snapshot of an event taken
// immediately before a mutation. Numbers start at 1 per event and have no
// gaps or duplicates.
type EventVersion struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	Number      int       `json:"version_number"`
	Snapshot    Snapshot  `json:"snapshot"`
	UpdatedBy   int64     `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
	ChangeID    string    `json:"change_id"`
	ContentHash string    `json:"content_hash"`
}

// Versioned field names, in diff order.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStartTime   = "start_time"
	FieldEndTime     = "end_time"
	FieldLocation    = "location"
)

// VersionedFields lists the fields tracked by snapshots and diffs.
var VersionedFields = []string{FieldTitle, FieldDescription, FieldStartTime, FieldEndTime, FieldLocation}

// FieldChange is one entry of a diff.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// FieldDiff maps a changed field name to its from/to values.
// Unchanged fields are omitted.
type FieldDiff map[string]FieldChange

// ChangeType identifies a mutation kind in notifications and live changes.
type ChangeType string

const (
	ChangeCreated    ChangeType = "event_created"
	ChangeUpdated    ChangeType = "event_updated"
	ChangeShared     ChangeType = "event_shared"
	ChangeRolledBack ChangeType = "event_rolled_back"
)

// Notification is a persisted message to a principal.
type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	EventID   *int64     `json:"event_id"`
	Type      ChangeType `json:"type"`
	Message   string     `json:"message"`
	ChangeID  string     `json:"change_id"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}
