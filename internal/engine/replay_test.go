package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mega/internal/contestant"
	"github.com/roach88/mega/internal/problem"
)

func TestReplay_ReproducesIDs(t *testing.T) {
	st := openMemoryStore(t)
	sess := newTestSession(st)
	ctx := context.Background()

	_, err := sess.Run(ctx, referenceConfig(), nil)
	require.NoError(t, err)

	report, err := Replay(ctx, st, "run-1", discardLogger())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Equal(t, 10, report.StoredEvents)
	assert.Equal(t, 10, report.ReplayedEvents)
	assert.Empty(t, report.Mismatches)
}

func TestReplay_SecondRunResumesAtStoredSeq(t *testing.T) {
	st := openMemoryStore(t)
	sess := newTestSession(st)
	ctx := context.Background()

	_, err := sess.Run(ctx, referenceConfig(), nil)
	require.NoError(t, err)
	_, err = sess.Run(ctx, RunConfig{Problem: problem.Default(), Contestant: contestant.Identity}, nil)
	require.NoError(t, err)

	report, err := Replay(ctx, st, "run-2", discardLogger())
	require.NoError(t, err)
	assert.True(t, report.OK(), "mismatches: %v", report.Mismatches)
}

func TestReplay_FailedRun(t *testing.T) {
	st := openMemoryStore(t)
	sess := newTestSession(st, WithMaxCalls(3))
	ctx := context.Background()

	_, err := sess.Run(ctx, referenceConfig(), nil)
	var stepsErr *StepsExceededError
	require.ErrorAs(t, err, &stepsErr)

	run, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 3, run.MaxCalls)

	report, err := Replay(ctx, st, "run-1", discardLogger())
	require.NoError(t, err)
	assert.True(t, report.OK(), "mismatches: %v", report.Mismatches)
	assert.NoError(t, report.Err())
	assert.Equal(t, 6, report.StoredEvents)
	assert.Equal(t, report.StoredEvents, report.ReplayedEvents)
}

func TestReplay_LegacyRunUsesDefaultQuota(t *testing.T) {
	st := openMemoryStore(t)
	sess := newTestSession(st)
	ctx := context.Background()

	_, err := sess.Run(ctx, referenceConfig(), nil)
	require.NoError(t, err)

	_, err = st.DB().Exec(`UPDATE runs SET max_calls = 0 WHERE token = ?`, "run-1")
	require.NoError(t, err)

	report, err := Replay(ctx, st, "run-1", discardLogger())
	require.NoError(t, err)
	assert.True(t, report.OK(), "mismatches: %v", report.Mismatches)
}

func TestReplay_DetectsTamperedArgs(t *testing.T) {
	st := openMemoryStore(t)
	sess := newTestSession(st)
	ctx := context.Background()

	_, err := sess.Run(ctx, referenceConfig(), nil)
	require.NoError(t, err)

	_, err = st.DB().Exec(`UPDATE runs SET row_count = 2 WHERE token = ?`, "run-1")
	require.NoError(t, err)

	report, err := Replay(ctx, st, "run-1", discardLogger())
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.False(t, report.StdoutMatch)
	require.NotEmpty(t, report.Mismatches)
	// Solve is unaffected by the row count.
	assert.Equal(t, 2, report.Mismatches[0].Index)

	err = report.Err()
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeReplayMismatch, re.Code)
	assert.Equal(t, "run-1", re.RunToken)
	assert.Contains(t, err.Error(), "stdout differs")
}

func TestReplay_DetectsTamperedStdout(t *testing.T) {
	st := openMemoryStore(t)
	sess := newTestSession(st)
	ctx := context.Background()

	_, err := sess.Run(ctx, referenceConfig(), nil)
	require.NoError(t, err)

	_, err = st.DB().Exec(`UPDATE runs SET stdout = 'nope' WHERE token = ?`, "run-1")
	require.NoError(t, err)

	report, err := Replay(ctx, st, "run-1", discardLogger())
	require.NoError(t, err)
	assert.False(t, report.StdoutMatch)
	assert.Empty(t, report.Mismatches)
}

func TestReplay_UnknownRun(t *testing.T) {
	st := openMemoryStore(t)

	_, err := Replay(context.Background(), st, "missing", discardLogger())
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
}
