package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoScenarioDir = "../../testdata/scenarios"

// TestDemoScenarios runs every checked-in scenario and compares it with its
// golden snapshot.
func TestDemoScenarios(t *testing.T) {
	files, err := FindScenarioFiles(demoScenarioDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match its file")

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)

			ok, err := CompareGolden(GoldenPath(file), NewSnapshot(scenario.Name, result))
			require.NoError(t, err)
			assert.True(t, ok, "snapshot differs from %s", GoldenPath(file))
		})
	}
}

func TestDemoScenarios_Quota(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(demoScenarioDir, "quota_exceeded.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, "encode: decode: run test-run-004 exceeded max calls quota: 4 calls > 3 limit", result.RunError)
	assert.Len(t, result.Trace, 6)
}
