package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// cliEnv runs root commands against one temporary database. The env file
// points at a missing file so a developer's .env never leaks in.
type cliEnv struct {
	db      string
	envFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("COLLAB_DB_PATH", "")
	t.Setenv("COLLAB_TOKEN_SECRET", "")
	return &cliEnv{
		db:      filepath.Join(dir, "data", "events.db"),
		envFile: filepath.Join(dir, "missing.env"),
	}
}

// run executes the root command and returns its stdout.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", e.db, "--env-file", e.envFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// mustJSON runs the command with --format json, requires success and
// decodes the data payload into T.
func mustJSON[T any](t *testing.T, e *cliEnv, args ...string) T {
	t.Helper()
	out, err := e.run(t, append([]string{"--format", "json"}, args...)...)
	require.NoError(t, err, out)

	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

// jsonError runs the command with --format json, requires failure and
// returns the reported error body.
func jsonError(t *testing.T, e *cliEnv, args ...string) (CLIError, error) {
	t.Helper()
	out, err := e.run(t, append([]string{"--format", "json"}, args...)...)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	return *resp.Error, err
}
