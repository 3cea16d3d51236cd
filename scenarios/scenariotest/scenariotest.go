// Package scenariotest runs test scenarios as go subtests
package scenariotest

import (
	"strings"
	"testing"

	"github.com/jitsucom/airbyte-scenarios/scenarios"
	"github.com/jitsucom/airbyte-scenarios/scenarios/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run executes the scenario and reports every failed step as a test failure
func Run(t *testing.T, ts *scenarios.TestScenario) *runner.Result {
	t.Helper()
	require.NotNil(t, ts, "scenario is nil")
	result := runner.Run(ts)
	for _, step := range result.Steps {
		if step.Skipped {
			t.Logf("%s: skipped", step.Name)
			continue
		}
		assert.True(t, step.Passed, "%s: %s", step.Name, step.Error)
	}
	return result
}

// RunAll builds every scenario and runs it in its own subtest named after the scenario
func RunAll(t *testing.T, builders ...*scenarios.TestScenarioBuilder) {
	for _, b := range builders {
		ts, err := b.Build()
		name := "unnamed"
		if ts != nil {
			name = ts.Name()
		}
		t.Run(strings.ReplaceAll(name, " ", "_"), func(t *testing.T) {
			require.NoError(t, err)
			Run(t, ts)
		})
	}
}
