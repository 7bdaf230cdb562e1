package calendar

import (
	"fmt"
	"strconv"

	ical "github.com/arran4/golang-ical"

	"github.com/roach88/collabevents/internal/domain"
)

// DefaultProductID identifies this service in exported calendars.
const DefaultProductID = "-//collabevents//collabevents//EN"

// UID returns the stable iCalendar UID of an event.
func UID(ev domain.Event) string {
	return fmt.Sprintf("event-%d@collabevents", ev.ID)
}

// Export renders the event as a single-VEVENT calendar. sequence is the
// number of recorded versions, so each accepted mutation bumps SEQUENCE.
func Export(ev domain.Event, sequence int, productID string) (string, error) {
	if productID == "" {
		productID = DefaultProductID
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	vevent := cal.AddEvent(UID(ev))
	vevent.SetDtStampTime(ev.UpdatedAt.UTC())
	vevent.SetCreatedTime(ev.CreatedAt.UTC())
	vevent.SetModifiedAt(ev.UpdatedAt.UTC())
	vevent.SetStartAt(ev.Start.UTC())
	vevent.SetEndAt(ev.End.UTC())
	vevent.SetSummary(ev.Title)
	if ev.Description != "" {
		vevent.SetDescription(ev.Description)
	}
	if ev.Location != nil {
		vevent.SetLocation(*ev.Location)
	}
	vevent.SetProperty(ical.ComponentPropertySequence, strconv.Itoa(sequence))

	if ev.IsRecurring && ev.RecurrencePattern != nil {
		rule, err := RRuleFor(*ev.RecurrencePattern)
		if err != nil {
			return "", fmt.Errorf("export event %d: %w", ev.ID, err)
		}
		vevent.SetProperty(ical.ComponentPropertyRrule, rule)
	}

	return cal.Serialize(), nil
}
