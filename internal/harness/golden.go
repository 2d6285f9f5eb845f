package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mega/internal/ir"
)

// DefaultGoldenDir is where RunWithGolden and AssertGolden keep fixtures.
const DefaultGoldenDir = "testdata/golden"

// TraceSnapshot captures what a scenario produced. It serializes to
// canonical JSON so golden files compare byte for byte.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunToken     string       `json:"run_token"`
	Stdout       string       `json:"stdout"`
	RunError     string       `json:"run_error,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(scenarioName string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: scenarioName,
		RunToken:     result.RunToken,
		Stdout:       result.Stdout,
		RunError:     result.RunError,
		Trace:        result.Trace,
	}
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Empty args and results are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type":       event.Type,
			"seq":        event.Seq,
			"action_uri": event.ActionURI,
		}
		if len(event.Args) > 0 {
			eventMap["args"] = event.Args
		}
		if event.Outcome != "" {
			eventMap["outcome"] = event.Outcome
		}
		if len(event.Result) > 0 {
			eventMap["result"] = event.Result
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"run_token":     s.RunToken,
		"stdout":        s.Stdout,
		"trace":         traceList,
	}
	if s.RunError != "" {
		result["run_error"] = s.RunError
	}
	return result
}

// MarshalCanonical renders the snapshot as canonical JSON, the golden file
// format.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be run. A snapshot mismatch fails
// t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against
// testdata/golden/{scenarioName}.golden.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	return AssertGoldenIn(t, DefaultGoldenDir, scenarioName, result)
}

// AssertGoldenIn is AssertGolden with an explicit fixture directory.
func AssertGoldenIn(t *testing.T, dir, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
