package batch

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/domain"
)

var want = []domain.EventFields{
	{
		Title:             "Standup",
		Description:       "Daily sync",
		Start:             time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		End:               time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC),
		Location:          domain.StringPtr("Room 1"),
		IsRecurring:       true,
		RecurrencePattern: domain.StringPtr("daily"),
	},
	{
		Title: "Planning",
		Start: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
	},
}

func TestLoadFile_Formats(t *testing.T) {
	for _, name := range []string{"standup.yaml", "standup.json", "standup.cue"} {
		t.Run(name, func(t *testing.T) {
			got, err := LoadFile(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.json": FormatJSON,
		"a.cue":  FormatCUE,
	}
	for path, format := range tests {
		got, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, format, got, path)
	}

	_, err := FormatOf("events.csv")
	assert.Error(t, err)
}

func TestParse_EntryErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		index int
		field string
	}{
		{
			name:  "missing start",
			data:  "events:\n  - title: A\n    end_time: 2025-03-10T10:00:00Z\n",
			index: 0,
			field: "start_time",
		},
		{
			name:  "bad end",
			data:  "events:\n  - title: A\n    start_time: 2025-03-10T09:00:00Z\n    end_time: 2025-03-10T10:00:00Z\n  - title: B\n    start_time: 2025-03-10T11:00:00Z\n    end_time: tomorrow\n",
			index: 1,
			field: "end_time",
		},
		{
			name:  "bad duration",
			data:  "events:\n  - title: A\n    start_time: 2025-03-10T09:00:00Z\n    duration: forever\n",
			index: 0,
			field: "duration",
		},
		{
			name:  "end and duration",
			data:  "events:\n  - title: A\n    start_time: 2025-03-10T09:00:00Z\n    end_time: 2025-03-10T10:00:00Z\n    duration: 1h\n",
			index: 0,
			field: "duration",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatYAML)
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %v", err)
			assert.Equal(t, tt.index, le.Index)
			assert.Equal(t, tt.field, le.Field)
		})
	}
}

func TestParse_FileErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"empty yaml", "", FormatYAML},
		{"no events", "events: []\n", FormatYAML},
		{"unknown field", "events:\n  - titel: A\n", FormatYAML},
		{"broken json", `{"events": [`, FormatJSON},
		{"broken cue", "events: [", FormatCUE},
		{"cue without events", "other: 1\n", FormatCUE},
		{"cue events not a list", "events: {a: 1}\n", FormatCUE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %v", err)
			assert.Equal(t, -1, le.Index)
		})
	}
}

func TestParse_CUETypeError(t *testing.T) {
	_, err := Parse([]byte(`events: [{title: 42, start_time: "2025-03-10T09:00:00Z", duration: "1h"}]`), FormatCUE)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 0, le.Index)
	assert.Equal(t, "title", le.Field)
}

func TestLoadError_Message(t *testing.T) {
	err := &LoadError{Path: "batch.yaml", Index: 2, Field: "end_time", Message: "is required"}
	assert.Equal(t, "batch.yaml: events[2].end_time: is required", err.Error())

	fileLevel := &LoadError{Index: -1, Message: "batch contains no events"}
	assert.Equal(t, "batch contains no events", fileLevel.Error())
}

func TestLoadFile_PathInError(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}
