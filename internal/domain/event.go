package domain

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/collabevents/internal/apperr"
)

// Principal is an authenticated actor. Identity verification happens
// outside the engine; the engine only sees the stable ID.
type Principal struct {
	ID int64 `json:"id"`
}

// Event is the mutable aggregate. Events are never hard-deleted.
type Event struct {
	ID                int64     `json:"id"`
	OwnerID           int64     `json:"owner_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Start             time.Time `json:"start_time"`
	End               time.Time `json:"end_time"`
	Location          *string   `json:"location"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EventFields are the caller-supplied attributes of a new event.
type EventFields struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Start             time.Time `json:"start_time"`
	End               time.Time `json:"end_time"`
	Location          *string   `json:"location,omitempty"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern,omitempty"`
}

// Fields returns the caller-editable attributes of the event.
func (e Event) Fields() EventFields {
	return EventFields{
		Title:             e.Title,
		Description:       e.Description,
		Start:             e.Start,
		End:               e.End,
		Location:          e.Location,
		IsRecurring:       e.IsRecurring,
		RecurrencePattern: e.RecurrencePattern,
	}
}

// NewEvent builds an event owned by ownerID from normalized fields.
func NewEvent(ownerID int64, f EventFields, now time.Time) Event {
	f = f.Normalize()
	return Event{
		OwnerID:           ownerID,
		Title:             f.Title,
		Description:       f.Description,
		Start:             f.Start,
		End:               f.End,
		Location:          f.Location,
		IsRecurring:       f.IsRecurring,
		RecurrencePattern: f.RecurrencePattern,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Normalize trims the title, NFC-normalizes text fields and converts
// timestamps to UTC.
func (f EventFields) Normalize() EventFields {
	f.Title = norm.NFC.String(strings.TrimSpace(f.Title))
	f.Description = norm.NFC.String(f.Description)
	f.Location = normalizeOptionalText(f.Location)
	f.RecurrencePattern = normalizeOptionalText(f.RecurrencePattern)
	f.Start = f.Start.UTC()
	f.End = f.End.UTC()
	return f
}

// Validate checks the structural invariants of an event: a non-empty title,
// set timestamps within the storable range and Start strictly before End.
func (f EventFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return apperr.WithDetails(apperr.KindValidation, "title is required", map[string]string{"field": "title"})
	}
	if f.Start.IsZero() || f.End.IsZero() {
		return apperr.WithDetails(apperr.KindValidation, "start_time and end_time are required", map[string]string{"field": "start_time"})
	}
	if !Storable(f.Start) {
		return outOfRange("start_time", f.Start)
	}
	if !Storable(f.End) {
		return outOfRange("end_time", f.End)
	}
	if !f.Start.Before(f.End) {
		return apperr.WithDetails(apperr.KindValidation, "end_time must be after start_time", map[string]string{
			"field":      "end_time",
			"start_time": f.Start.UTC().Format(time.RFC3339),
			"end_time":   f.End.UTC().Format(time.RFC3339),
		})
	}
	if f.IsRecurring && (f.RecurrencePattern == nil || *f.RecurrencePattern == "") {
		return apperr.WithDetails(apperr.KindValidation, "recurring events need a recurrence_pattern", map[string]string{"field": "recurrence_pattern"})
	}
	if !f.IsRecurring && f.RecurrencePattern != nil {
		return apperr.WithDetails(apperr.KindValidation, "recurrence_pattern requires is_recurring", map[string]string{"field": "recurrence_pattern"})
	}
	return nil
}

// Storable reports whether t survives a round trip through unix
// nanoseconds, the persisted form. That holds for years 1678 to 2262.
func Storable(t time.Time) bool {
	return time.Unix(0, t.UnixNano()).Equal(t)
}

func outOfRange(field string, t time.Time) error {
	return apperr.WithDetails(apperr.KindValidation, field+" is outside the supported range", map[string]string{
		"field": field,
		field:   t.UTC().Format(time.RFC3339),
	})
}

// EventPatch is a partial update. Each field is independently present or
// absent; absent fields keep the event's current value.
type EventPatch struct {
	Title             Optional[string]    `json:"title"`
	Description       Optional[string]    `json:"description"`
	Start             Optional[time.Time] `json:"start_time"`
	End               Optional[time.Time] `json:"end_time"`
	Location          Optional[*string]   `json:"location"`
	IsRecurring       Optional[bool]      `json:"is_recurring"`
	RecurrencePattern Optional[*string]   `json:"recurrence_pattern"`
}

// IsEmpty reports whether the patch sets no field.
func (p EventPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Start.Set && !p.End.Set &&
		!p.Location.Set && !p.IsRecurring.Set && !p.RecurrencePattern.Set
}

// Apply returns the prospective fields after overlaying the patch on the
// current event. The event itself is not modified.
func (p EventPatch) Apply(e Event) EventFields {
	f := e.Fields()
	f.Title = p.Title.Or(f.Title)
	f.Description = p.Description.Or(f.Description)
	f.Start = p.Start.Or(f.Start)
	f.End = p.End.Or(f.End)
	f.Location = p.Location.Or(f.Location)
	f.IsRecurring = p.IsRecurring.Or(f.IsRecurring)
	f.RecurrencePattern = p.RecurrencePattern.Or(f.RecurrencePattern)
	return f.Normalize()
}

// WithFields returns a copy of the event carrying the given fields.
func (e Event) WithFields(f EventFields) Event {
	e.Title = f.Title
	e.Description = f.Description
	e.Start = f.Start
	e.End = f.End
	e.Location = f.Location
	e.IsRecurring = f.IsRecurring
	e.RecurrencePattern = f.RecurrencePattern
	return e
}

// Permission grants a non-owner principal a role on an event.
// At most one row exists per (EventID, UserID).
type Permission struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Grant is one entry of a share request.
type Grant struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func normalizeOptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := norm.NFC.String(strings.TrimSpace(*s))
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
