package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/mega/internal/problem"
	"github.com/roach88/mega/internal/store"
)

// Mismatch is one position where the replayed trace diverged from the log.
// An empty ID means the event is missing on that side.
type Mismatch struct {
	Index      int    `json:"index"`
	StoredID   string `json:"stored_id"`
	ReplayedID string `json:"replayed_id"`
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	RunToken       string     `json:"run_token"`
	StoredEvents   int        `json:"stored_events"`
	ReplayedEvents int        `json:"replayed_events"`
	StdoutMatch    bool       `json:"stdout_match"`
	Mismatches     []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether the replay reproduced the log exactly.
func (r *ReplayReport) OK() bool {
	return r.StdoutMatch && len(r.Mismatches) == 0 && r.StoredEvents == r.ReplayedEvents
}

// Err returns a REPLAY_MISMATCH RuntimeError describing the divergence, or
// nil when the replay matched.
func (r *ReplayReport) Err() error {
	if r.OK() {
		return nil
	}
	msg := fmt.Sprintf("%d of %d events diverged", len(r.Mismatches), max(r.StoredEvents, r.ReplayedEvents))
	if !r.StdoutMatch {
		msg += ", stdout differs"
	}
	return &RuntimeError{
		Code:     ErrCodeReplayMismatch,
		Message:  msg,
		RunToken: r.RunToken,
	}
}

// Replay re-executes the run identified by token in memory and compares the
// result with the log.
//
// The replay uses the stored run token, problem, contestant and call quota,
// and a clock
// positioned at the run's first seq, so an unchanged driver and contestant
// reproduce every invocation and completion ID exactly. Replay never writes
// to st.
func Replay(ctx context.Context, st *store.Store, token string, logger *slog.Logger) (*ReplayReport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	run, err := st.GetRun(ctx, token)
	if err != nil {
		return nil, storeError(token, "get run", err)
	}
	stored, err := st.ReplayRun(ctx, token)
	if err != nil {
		return nil, storeError(token, "replay run", err)
	}

	inputs, err := ParseInputs(run.Inputs)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", token, err)
	}

	var start int64
	if len(stored) > 0 {
		start = stored[0].Seq - 1
	}

	// Runs recorded before the quota was stored carry 0.
	maxCalls := run.MaxCalls
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}

	sess := NewSession(
		WithClock(NewClockAt(start)),
		WithTokenGenerator(NewFixedGenerator(token)),
		WithLogger(logger),
		WithMaxCalls(maxCalls),
	)
	res, err := sess.Run(ctx, RunConfig{
		Problem: problem.Problem{
			Name:    run.Problem,
			Rows:    run.Rows,
			Columns: run.Columns,
			Inputs:  inputs,
		},
		Contestant: run.Contestant,
	}, io.Discard)
	if res == nil {
		return nil, fmt.Errorf("replay %s: %w", token, err)
	}

	report := &ReplayReport{
		RunToken:       token,
		StoredEvents:   len(stored),
		ReplayedEvents: len(res.Trace),
		StdoutMatch:    res.Stdout == run.Stdout,
	}
	for i := 0; i < max(len(stored), len(res.Trace)); i++ {
		var storedID, replayedID string
		if i < len(stored) {
			storedID = stored[i].ID()
		}
		if i < len(res.Trace) {
			replayedID = res.Trace[i].ID()
		}
		if storedID != replayedID {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Index:      i,
				StoredID:   storedID,
				ReplayedID: replayedID,
			})
		}
	}

	if !report.OK() {
		logger.Warn("replay diverged",
			"run", token,
			"stored", report.StoredEvents,
			"replayed", report.ReplayedEvents,
			"mismatches", len(report.Mismatches),
		)
	}
	return report, nil
}
