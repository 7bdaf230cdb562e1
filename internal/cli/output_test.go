package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/apperr"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data, nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("not_found", "event 7 not found", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "event 7 not found", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"event_id": "1", "title": "Standup"}
	err := formatter.Error("conflict", "overlaps event 1", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("3 events imported", nil)
	require.NoError(t, err)
	assert.Equal(t, "3 events imported\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("not_found", "event 7 not found", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [not_found]")
	assert.Contains(t, buf.String(), "event 7 not found")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"event_id": "1"}
	err := formatter.Error("not_found", "event 7 not found", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [not_found]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		wantLog  bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("loaded %d events from %s", 3, "week.yaml")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "loaded 3 events from week.yaml")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestOutputFormatter_TextSuccessWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success(map[string]int{"count": 2}, func(w io.Writer) {
		fmt.Fprintln(w, "two events")
	})
	require.NoError(t, err)
	assert.Equal(t, "two events\n", buf.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
		wantMsg  string
	}{
		{
			name:     "rejected",
			err:      apperr.WithDetails(apperr.KindConflict, "overlaps event 1", map[string]string{"event_id": "1"}),
			wantCode: ExitFailure,
			wantKind: "conflict",
			wantMsg:  "overlaps event 1",
		},
		{
			name:     "wrapped rejection",
			err:      fmt.Errorf("outer: %w", apperr.Forbidden("viewer cannot edit")),
			wantCode: ExitFailure,
			wantKind: "forbidden",
			wantMsg:  "viewer cannot edit",
		},
		{
			name:     "storage",
			err:      apperr.Storage("update event", errors.New("disk I/O error")),
			wantCode: ExitCommandError,
			wantKind: "storage_failure",
			wantMsg:  "update event failed",
		},
		{
			name:     "untyped",
			err:      errors.New("boom"),
			wantCode: ExitCommandError,
			wantKind: "command_error",
			wantMsg:  "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail("op", tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.True(t, Reported(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantKind, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}
}

func TestOutputFormatter_FailDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	_ = formatter.Fail("create event", apperr.WithDetails(apperr.KindConflict, "overlap", map[string]string{"title": "Standup"}))
	assert.Contains(t, buf.String(), `"details":{"title":"Standup"}`)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))

	assert.False(t, Reported(NewExitError(ExitFailure, "x")))
	assert.False(t, Reported(errors.New("plain")))
}
