// Package calendar bridges events to iCalendar (RFC 5545): recurrence
// rule validation and VEVENT export. Occurrence expansion is out of scope;
// recurring events are stored and exported with their rule only.
package calendar

import (
	"fmt"
	"strings"

	"github.com/teambition/rrule-go"

	"github.com/roach88/collabevents/internal/apperr"
)

// keywordRules maps the shorthand patterns accepted by the API to RRULEs.
var keywordRules = map[string]string{
	"daily":   "FREQ=DAILY",
	"weekly":  "FREQ=WEEKLY",
	"monthly": "FREQ=MONTHLY",
	"yearly":  "FREQ=YEARLY",
}

// RRuleFor returns the RRULE value (without the "RRULE:" prefix) for a
// recurrence pattern. Patterns are either a keyword (daily, weekly,
// monthly, yearly) or an RFC 5545 RRULE.
func RRuleFor(pattern string) (string, error) {
	p := strings.TrimSpace(pattern)
	if rule, ok := keywordRules[strings.ToLower(p)]; ok {
		return rule, nil
	}

	p = strings.TrimPrefix(p, "RRULE:")
	if p == "" {
		return "", fmt.Errorf("empty recurrence pattern")
	}
	if _, err := rrule.StrToRRule(p); err != nil {
		return "", fmt.Errorf("invalid recurrence rule %q: %w", pattern, err)
	}
	return p, nil
}

// ValidateRecurrence reports a validation error for patterns RRuleFor
// rejects.
func ValidateRecurrence(pattern string) error {
	if _, err := RRuleFor(pattern); err != nil {
		return apperr.WithDetails(apperr.KindValidation, err.Error(), map[string]string{
			"field": "recurrence_pattern",
		})
	}
	return nil
}
