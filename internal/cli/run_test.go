package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mega/internal/engine"
	"github.com/roach88/mega/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_Stdout(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"reference", nil, "10.00\n12\n48\n84\n"},
		{"identity", []string{"--contestant", "identity"}, "10.00\n3\n12\n21\n"},
		{"zero rows", []string{"--rows", "0"}, "10.00\n"},
		{"wide problem", []string{"--problem", "../../problems/wide.cue"}, "60.75\n40\n140\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := executeRoot(t, append([]string{"run"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
			assert.Contains(t, stderr, "run started")
		})
	}
}

func TestRun_VerboseLogsTables(t *testing.T) {
	_, stderr, err := executeRoot(t, "run", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestRun_QuotaExceeded(t *testing.T) {
	stdout, _, err := executeRoot(t, "run", "--max-calls", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "exceeded max calls quota")
	assert.Equal(t, "10.00\n", stdout)
}

func TestRun_CommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown contestant", []string{"--contestant", "nobody"}, "failed to start run"},
		{"missing problem", []string{"--problem", "/nonexistent/p.cue"}, "failed to load problem"},
		{"invalid problem", []string{"--problem", "../problem/testdata/bad_rows.cue"}, "failed to load problem"},
		{"negative rows", []string{"--rows", "-1"}, "invalid --rows"},
		{"rows beyond int32", []string{"--rows", "2147483648"}, "invalid --rows"},
		{"zero quota", []string{"--max-calls", "0"}, "invalid --max-calls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeRoot(t, append([]string{"run"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, stdout)
		})
	}
}

func TestRun_JSON(t *testing.T) {
	stdout, _, err := executeRoot(t, "run", "--format", "json", "--contestant", "identity")
	require.NoError(t, err)

	var resp struct {
		Status   string     `json:"status"`
		RunToken string     `json:"run_token"`
		Data     RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RunToken)
	assert.Equal(t, resp.RunToken, resp.Data.RunToken)
	assert.Equal(t, "10.00\n3\n12\n21\n", resp.Data.Stdout)
	assert.Equal(t, "identity", resp.Data.Contestant)
	assert.Equal(t, 10, resp.Data.Events)
}

func TestRun_JSONFailure(t *testing.T) {
	stdout, _, err := executeRoot(t, "run", "--format", "json", "--max-calls", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_RUN_FAILED", resp.Error.Code)
}

func TestRun_PersistsToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mega.db")
	stdout := &bytes.Buffer{}

	cmd := newRunCommand(&RunOptions{
		RootOptions:    &RootOptions{Format: "text"},
		TokenGenerator: engine.NewFixedGenerator("run-fixed"),
	})
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--db", dbPath})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "10.00\n12\n48\n84\n", stdout.String())

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(context.Background(), "run-fixed")
	require.NoError(t, err)
	assert.Equal(t, store.RunOK, run.Status)
	assert.Equal(t, "10.00\n12\n48\n84\n", run.Stdout)
	assert.Equal(t, "reference", run.Contestant)

	calls, err := st.ListCalls(context.Background(), "run-fixed", "")
	require.NoError(t, err)
	assert.Len(t, calls, 5)
}
