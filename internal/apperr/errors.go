// Package apperr defines the error kinds surfaced by the event engine.
//
// Every failure the engine reports to a caller carries exactly one Kind:
//
//   - not_found: event, version, permission or notification absent (or a
//     version that belongs to a different event)
//   - forbidden: the principal lacks the capability for the operation
//   - conflict: the event interval overlaps another event of the same owner
//   - validation: malformed interval or payload
//   - storage_failure: the transactional write failed
//
// None of these are retried by the engine. Callers map them to user-facing
// outcomes (HTTP status, CLI exit code) with KindOf.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind categorizes an engine error.
type Kind string

const (
	// KindNotFound indicates the addressed entity does not exist.
	KindNotFound Kind = "not_found"

	// KindForbidden indicates a failed capability check.
	KindForbidden Kind = "forbidden"

	// KindConflict indicates an overlapping time interval.
	KindConflict Kind = "conflict"

	// KindValidation indicates a malformed request.
	KindValidation Kind = "validation"

	// KindStorage indicates the persistent store failed.
	KindStorage Kind = "storage_failure"
)

// Sentinels for errors.Is comparisons. Matching is by Kind only.
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrValidation = &Error{Kind: KindValidation}
	ErrStorage    = &Error{Kind: KindStorage}
)

// Error is the structured engine error.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Message is a human-readable description safe to show to callers.
	Message string

	// Details carries identifying context (event_id, title, field, ...).
	Details map[string]string

	// Err is the underlying cause. Never shown to callers for storage failures.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, formatDetails(e.Details))
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails creates an error carrying identifying details.
func WithDetails(kind Kind, message string, details map[string]string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// NotFound creates a not_found error.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Forbidden creates a forbidden error.
func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Storage wraps a store failure. The message stays generic so callers never
// see driver internals; the cause remains available through Unwrap.
func Storage(op string, cause error) *Error {
	return Wrap(KindStorage, op+" failed", cause)
}

// KindOf returns the Kind of err, or the empty Kind if err is not an *Error.
// Uses errors.As so wrapped errors are recognized.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// DetailsOf returns the details attached to err, if any.
func DetailsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// IsNotFound reports whether err is a not_found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsForbidden reports whether err is a forbidden error.
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsStorage reports whether err is a storage_failure error.
func IsStorage(err error) bool { return KindOf(err) == KindStorage }

func formatDetails(details map[string]string) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+details[k])
	}
	return strings.Join(parts, ", ")
}
