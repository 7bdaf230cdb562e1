// Package batch reads event batches for bulk import.
//
// A batch file holds a top-level "events" list. YAML (.yaml, .yml), JSON
// (.json) and CUE (.cue) files are accepted; all three share one record
// shape:
//
//	events:
//	  - title: Standup
//	    start_time: 2025-03-10T10:00:00Z
//	    duration: 30m           # or end_time
//	    location: Room 1
//	    is_recurring: true
//	    recurrence_pattern: weekly
//
// Loading only parses; the engine validates intervals, recurrence rules and
// conflicts when the batch is created.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/collabevents/internal/domain"
)

// Format identifies a batch file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// Record is one event entry as written in a batch file.
type Record struct {
	Title             string  `yaml:"title"`
	Description       string  `yaml:"description"`
	Start             string  `yaml:"start_time"`
	End               string  `yaml:"end_time"`
	Duration          string  `yaml:"duration"`
	Location          *string `yaml:"location"`
	IsRecurring       bool    `yaml:"is_recurring"`
	RecurrencePattern *string `yaml:"recurrence_pattern"`
}

type file struct {
	Events []Record `yaml:"events"`
}

// LoadError reports a malformed batch file or entry.
type LoadError struct {
	Path    string
	Index   int // -1 for file-level errors
	Field   string
	Message string
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, "events[%d]", e.Index)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("unsupported batch file %q (want .yaml, .yml, .json or .cue)", path)
}

// LoadFile reads a batch file and converts it to event fields.
func LoadFile(path string) ([]domain.EventFields, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	out, err := Parse(data, format)
	var le *LoadError
	if errors.As(err, &le) {
		le.Path = path
	}
	return out, err
}

// Parse decodes a batch in the given format.
func Parse(data []byte, format Format) ([]domain.EventFields, error) {
	var (
		records []Record
		err     error
	)
	switch format {
	case FormatYAML, FormatJSON:
		records, err = decodeYAML(data)
	case FormatCUE:
		records, err = decodeCUE(data)
	default:
		return nil, fmt.Errorf("unsupported batch format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &LoadError{Index: -1, Message: "batch contains no events"}
	}

	out := make([]domain.EventFields, 0, len(records))
	for i, r := range records {
		f, err := r.Fields()
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				le.Index = i
			}
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Fields converts the record into event fields. Exactly one of end_time
// and duration must be given.
func (r Record) Fields() (domain.EventFields, error) {
	start, err := parseTime("start_time", r.Start)
	if err != nil {
		return domain.EventFields{}, err
	}

	var end time.Time
	switch {
	case r.End != "" && r.Duration != "":
		return domain.EventFields{}, &LoadError{Field: "duration", Message: "end_time and duration are mutually exclusive"}
	case r.Duration != "":
		d, err := time.ParseDuration(r.Duration)
		if err != nil {
			return domain.EventFields{}, &LoadError{Field: "duration", Message: err.Error()}
		}
		end = start.Add(d)
	default:
		end, err = parseTime("end_time", r.End)
		if err != nil {
			return domain.EventFields{}, err
		}
	}

	return domain.EventFields{
		Title:             r.Title,
		Description:       r.Description,
		Start:             start,
		End:               end,
		Location:          r.Location,
		IsRecurring:       r.IsRecurring,
		RecurrencePattern: r.RecurrencePattern,
	}, nil
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &LoadError{Field: field, Message: "is required"}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &LoadError{Field: field, Message: fmt.Sprintf("%q is not an RFC 3339 timestamp", s)}
	}
	return t.UTC(), nil
}
