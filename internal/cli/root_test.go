package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mega/internal/contestant"
	"github.com/roach88/mega/internal/engine"
	"github.com/roach88/mega/internal/problem"
	"github.com/roach88/mega/internal/store"
)

// executeRoot runs the root command with args and returns stdout and stderr.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seedDatabase records a reference run "run-a" and an identity run "run-b".
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mega.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	sess := engine.NewSession(
		engine.WithStore(st),
		engine.WithTokenGenerator(engine.NewFixedGenerator("run-a", "run-b")),
		engine.WithLogger(discardLogger()),
	)
	ctx := context.Background()
	for _, name := range []string{contestant.Reference, contestant.Identity} {
		_, err := sess.Run(ctx, engine.RunConfig{Problem: problem.Default(), Contestant: name}, nil)
		require.NoError(t, err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "mega", cmd.Use)
	assert.Contains(t, cmd.Long, "contestant")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"run", "test", "trace", "replay", "validate"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"problem", "rows", "contestant", "db", "max-calls"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "flag --%s", name)
	}
	assert.Equal(t, "reference", runCmd.Flags().Lookup("contestant").DefValue)
	assert.Equal(t, "64", runCmd.Flags().Lookup("max-calls").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := executeRoot(t, "run", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestOpenExistingStore_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")

	_, err := openExistingStore(path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.NoFileExists(t, path)
}
