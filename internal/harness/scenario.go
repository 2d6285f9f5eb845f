package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mega/internal/contestant"
)

// Scenario defines one conformance run and what it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Problem is an optional CUE problem file. Relative paths are resolved
	// against the scenario file's directory. Empty means the built-in problem.
	Problem string `yaml:"problem,omitempty"`

	// Contestant names a registered contestant. Defaults to "reference".
	Contestant string `yaml:"contestant,omitempty"`

	// Rows overrides the problem's row count.
	Rows *int `yaml:"rows,omitempty"`

	// MaxCalls overrides the per-run call quota.
	MaxCalls int `yaml:"max_calls,omitempty"`

	// RunToken is the fixed run token. Defaults to "test-run-default".
	RunToken string `yaml:"run_token,omitempty"`

	// Expect checks stdout and the run error.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the trace and the stored run.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected visible outcome of a run.
type ExpectClause struct {
	// Stdout, when set, must equal the captured driver output exactly.
	Stdout *string `yaml:"stdout,omitempty"`

	// Error, when non-empty, must be a substring of the run error. When
	// empty, the run must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an invocation of Action whose args contain Args
	// - "trace_order": Actions are first invoked in this order
	// - "trace_count": Action is invoked exactly Count times
	// - "final_state": one row of Table matching Where has the Expect values
	Type string `yaml:"type"`

	// Action is the action name (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected invocation arguments (trace_contains).
	// Subset match: only specified fields are validated.
	Args map[string]any `yaml:"args,omitempty"`

	// Outcome, when set, is the expected completion outcome of the matched
	// invocation (trace_contains).
	Outcome string `yaml:"outcome,omitempty"`

	// Table is the store table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state). All fields must match.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of invocations (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected action order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields. A relative problem path is
// resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Problem != "" && !filepath.IsAbs(scenario.Problem) {
		scenario.Problem = filepath.Join(filepath.Dir(path), scenario.Problem)
	}
	if scenario.Problem != "" {
		if _, err := os.Stat(scenario.Problem); err != nil {
			return nil, fmt.Errorf("invalid scenario: problem file not found: %s", scenario.Problem)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	if s.Contestant != "" && !slices.Contains(contestant.Names(), s.Contestant) {
		return fmt.Errorf("unknown contestant %q: must be one of %v", s.Contestant, contestant.Names())
	}

	if s.Rows != nil && *s.Rows < 0 {
		return fmt.Errorf("rows must be non-negative")
	}

	if s.MaxCalls < 0 {
		return fmt.Errorf("max_calls must be non-negative")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
