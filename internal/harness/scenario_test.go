package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: test_scenario
description: "Reference run"
contestant: identity
rows: 2
run_token: tok-1
expect:
  stdout: "10.00\n3\n12\n"
assertions:
  - type: trace_contains
    action: Encoder.encode
    args:
      count: 2
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "identity", scenario.Contestant)
	require.NotNil(t, scenario.Rows)
	assert.Equal(t, 2, *scenario.Rows)
	assert.Equal(t, "tok-1", scenario.RunToken)
	require.NotNil(t, scenario.Expect)
	require.NotNil(t, scenario.Expect.Stdout)
	assert.Equal(t, "10.00\n3\n12\n", *scenario.Expect.Stdout)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, 2, scenario.Assertions[0].Args["count"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_ResolvesProblemPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.cue"), []byte("problem: {}\n"), 0644))
	path := writeScenario(t, dir, `
name: relative_problem
description: "Problem next to the scenario"
problem: p.cue
expect:
  error: ""
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "p.cue"), scenario.Problem)
}

func TestLoadScenario_MissingProblem(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: missing_problem
description: "Problem file does not exist"
problem: nope.cue
expect:
  error: ""
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem file not found")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "Misspelled field"
contestnat: reference
expect:
  error: ""
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nexpect: {}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nexpect: {}\n",
			wantErr: "description is required",
		},
		{
			name:    "nothing to check",
			yaml:    "name: n\ndescription: d\n",
			wantErr: "expect or assertions is required",
		},
		{
			name:    "unknown contestant",
			yaml:    "name: n\ndescription: d\ncontestant: bogus\nexpect: {}\n",
			wantErr: `unknown contestant "bogus"`,
		},
		{
			name:    "negative rows",
			yaml:    "name: n\ndescription: d\nrows: -1\nexpect: {}\n",
			wantErr: "rows must be non-negative",
		},
		{
			name:    "negative max calls",
			yaml:    "name: n\ndescription: d\nmax_calls: -2\nexpect: {}\n",
			wantErr: "max_calls must be non-negative",
		},
		{
			name:    "assertion without type",
			yaml:    "name: n\ndescription: d\nassertions:\n  - action: Main.send\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "trace_contains without action",
			yaml:    "name: n\ndescription: d\nassertions:\n  - type: trace_contains\n",
			wantErr: "action is required for trace_contains",
		},
		{
			name:    "trace_order without actions",
			yaml:    "name: n\ndescription: d\nassertions:\n  - type: trace_order\n",
			wantErr: "actions list is required for trace_order",
		},
		{
			name:    "trace_count negative",
			yaml:    "name: n\ndescription: d\nassertions:\n  - type: trace_count\n    action: Main.send\n    count: -1\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "final_state without table",
			yaml:    "name: n\ndescription: d\nassertions:\n  - type: final_state\n    expect: {status: ok}\n",
			wantErr: "table is required for final_state",
		},
		{
			name:    "final_state without expect",
			yaml:    "name: n\ndescription: d\nassertions:\n  - type: final_state\n    table: runs\n",
			wantErr: "expect is required for final_state",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\nassertions:\n  - type: trace_sorted\n",
			wantErr: `unknown assertion type "trace_sorted"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
