package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/mega/internal/contestant"
	"github.com/roach88/mega/internal/engine"
	"github.com/roach88/mega/internal/problem"
	"github.com/roach88/mega/internal/store"
	"github.com/roach88/mega/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock and a fixed run token, so repeated runs produce identical traces.
// An error is returned only when the run could not be set up; a run that
// fails is reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	p := problem.Default()
	if scenario.Problem != "" {
		var err error
		if p, err = problem.LoadFile(scenario.Problem); err != nil {
			return nil, fmt.Errorf("load problem: %w", err)
		}
	}
	if scenario.Rows != nil {
		p.Rows = *scenario.Rows
	}

	name := scenario.Contestant
	if name == "" {
		name = contestant.Reference
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	opts := []engine.SessionOption{
		engine.WithStore(st),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithTokenGenerator(testutil.NewFixedTokenGenerator(scenario.RunToken)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if scenario.MaxCalls > 0 {
		opts = append(opts, engine.WithMaxCalls(scenario.MaxCalls))
	}
	sess := engine.NewSession(opts...)

	res, runErr := sess.Run(ctx, engine.RunConfig{Problem: p, Contestant: name}, nil)
	if res == nil {
		return nil, fmt.Errorf("run scenario %s: %w", scenario.Name, runErr)
	}

	result := NewResult()
	result.RunToken = res.RunToken
	result.Stdout = res.Stdout
	result.Trace = traceFromEvents(res.Trace)
	if runErr != nil {
		result.RunError = runErr.Error()
	}

	checkExpect(result, scenario.Expect, runErr)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func checkExpect(result *Result, expect *ExpectClause, runErr error) {
	if expect == nil {
		if runErr != nil {
			result.AddError(fmt.Sprintf("unexpected run error: %v", runErr))
		}
		return
	}

	if expect.Stdout != nil && *expect.Stdout != result.Stdout {
		result.AddError(fmt.Sprintf("stdout mismatch:\n  Expected: %q\n  Actual: %q", *expect.Stdout, result.Stdout))
	}

	switch {
	case expect.Error == "" && runErr != nil:
		result.AddError(fmt.Sprintf("unexpected run error: %v", runErr))
	case expect.Error != "" && runErr == nil:
		result.AddError(fmt.Sprintf("expected run error containing %q, run succeeded", expect.Error))
	case expect.Error != "" && !strings.Contains(runErr.Error(), expect.Error):
		result.AddError(fmt.Sprintf("run error %q does not contain %q", runErr.Error(), expect.Error))
	}
}
