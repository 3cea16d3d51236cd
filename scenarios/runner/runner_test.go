package runner

import (
	"testing"
	"time"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/filebased"
	"github.com/jitsucom/airbyte-scenarios/scenarios"
	"github.com/stretchr/testify/require"
)

var modified = time.Date(2023, 6, 5, 3, 54, 7, 0, time.UTC)

const modifiedStr = "2023-06-05T03:54:07.000000Z"

func csvScenario() *scenarios.TestScenarioBuilder {
	return scenarios.NewTestScenarioBuilder().
		SetName("csv_single_stream").
		SetConfig(airbyte.ConnectorConfig{"streams": []any{
			map[string]any{"name": "stream1", "globs": []any{"*"}, "validation_policy": "emit_record"},
		}}).
		SetExpectedCheckStatus(airbyte.CheckStatusSuccess).
		SetExpectedCatalog(&airbyte.Catalog{Streams: []airbyte.Stream{{
			Name: "stream1",
			JSONSchema: map[string]any{"type": "object", "properties": map[string]any{
				"col1":                      map[string]any{"type": "string"},
				filebased.LastModifiedField: map[string]any{"type": "string", "format": "date-time"},
				filebased.FileURLField:      map[string]any{"type": "string"},
			}},
			SupportedSyncModes:  []airbyte.SyncMode{airbyte.SyncModeFullRefresh, airbyte.SyncModeIncremental},
			SourceDefinedCursor: true,
			DefaultCursorField:  []string{filebased.LastModifiedField},
		}}}).
		SetExpectedRecords([]scenarios.ExpectedRecord{{Stream: "stream1", Data: map[string]any{
			"col1":                      "val11",
			filebased.LastModifiedField: modifiedStr,
			filebased.FileURLField:      "a.csv",
		}}}).
		SetExpectedLogs([]airbyte.LogMessage{
			{Level: airbyte.LogLevelInfo, Message: "Syncing stream: stream1"},
			{Level: airbyte.LogLevelInfo, Message: "Read 1 records"},
		}).
		SetSourceBuilder(scenarios.NewFileBasedSourceBuilder().
			SetFileType(filebased.FileTypeCSV).
			SetFiles(map[string]filebased.InMemoryFile{
				"a.csv": {Contents: [][]any{{"col1"}, {"val11"}}, LastModified: modified},
			}))
}

func stepByName(r *Result, name string) StepResult {
	for _, s := range r.Steps {
		if s.Name == name {
			return s
		}
	}
	return StepResult{}
}

func TestPassingScenario(t *testing.T) {
	require := require.New(t)

	result := Run(csvScenario().MustBuild())
	require.True(result.Passed, "failures: %v", result.Failures())
	require.Equal("csv_single_stream", result.ScenarioName)
	require.NotEmpty(result.RunID)
	require.Len(result.Steps, 3)
	for _, s := range result.Steps {
		require.False(s.Skipped, s.Name)
	}
	require.Empty(result.Failures())
}

func TestStepsWithoutExpectationsAreSkipped(t *testing.T) {
	require := require.New(t)

	result := Run(csvScenario().SetExpectedCheckStatus("").SetExpectedCatalog(nil).MustBuild())
	require.True(result.Passed)
	require.True(stepByName(result, StepCheck).Skipped)
	require.True(stepByName(result, StepDiscover).Skipped)
	require.True(stepByName(result, StepRead).Skipped)
}

func TestEmptyExpectedCatalogStillReads(t *testing.T) {
	require := require.New(t)

	result := Run(csvScenario().
		SetExpectedCatalog(&airbyte.Catalog{}).
		SetExpectedRecords(nil).
		SetExpectedLogs(nil).
		MustBuild())
	read := stepByName(result, StepRead)
	require.False(read.Skipped)
	require.True(read.Passed, read.Error)
	require.Contains(stepByName(result, StepDiscover).Error, "catalog mismatch")
}

func TestRecordsMismatch(t *testing.T) {
	require := require.New(t)

	result := Run(csvScenario().SetExpectedRecords([]scenarios.ExpectedRecord{{Stream: "stream1", Data: map[string]any{"col1": "other"}}}).MustBuild())
	require.False(result.Passed)
	read := stepByName(result, StepRead)
	require.False(read.Passed)
	require.Contains(read.Error, "records mismatch")
	require.Contains(read.Error, "item #0")
	require.True(stepByName(result, StepCheck).Passed)
	require.True(stepByName(result, StepDiscover).Passed)
}

func TestLogsAreOrderedSubsequence(t *testing.T) {
	require := require.New(t)

	result := Run(csvScenario().SetExpectedLogs([]airbyte.LogMessage{
		{Level: airbyte.LogLevelInfo, Message: "Read 1 records"},
		{Level: airbyte.LogLevelInfo, Message: "Syncing stream"},
	}).MustBuild())
	require.False(result.Passed)
	require.Contains(stepByName(result, StepRead).Error, "Syncing stream")

	require.NoError(verifyLogs(nil, []airbyte.LogMessage{{Level: airbyte.LogLevelWarn, Message: "x"}}))
	require.Error(verifyLogs([]airbyte.LogMessage{{Level: airbyte.LogLevelWarn, Message: "x"}},
		[]airbyte.LogMessage{{Level: airbyte.LogLevelInfo, Message: "x"}}))
}

func TestDiscoverMismatch(t *testing.T) {
	require := require.New(t)

	b := csvScenario()
	catalog := &airbyte.Catalog{Streams: []airbyte.Stream{{Name: "stream1", JSONSchema: map[string]any{"type": "object"}}}}
	result := Run(b.SetExpectedCatalog(catalog).MustBuild())
	require.False(result.Passed)
	require.Contains(stepByName(result, StepDiscover).Error, "catalog mismatch")
}

func TestExpectedErrors(t *testing.T) {
	require := require.New(t)

	badConfig := airbyte.ConnectorConfig{"streams": []any{
		map[string]any{"name": "stream1", "globs": []any{"*"}, "validation_policy": "no_such_policy"},
	}}
	expected := scenarios.ExpectedError{Type: airbyte.ConfigValidationError, Message: "no_such_policy"}
	result := Run(csvScenario().
		SetConfig(badConfig).
		SetExpectedCheckStatus("").
		SetExpectedCheckError(expected).
		SetExpectedDiscoverError(expected).
		SetExpectedReadError(expected).
		MustBuild())
	require.True(result.Passed, "failures: %v", result.Failures())

	// error is expected but the operation succeeds
	result = Run(csvScenario().SetExpectedReadError(expected).MustBuild())
	require.False(result.Passed)
	require.Contains(stepByName(result, StepRead).Error, "got no error")

	// unexpected error
	result = Run(csvScenario().SetConfig(badConfig).MustBuild())
	require.False(result.Passed)
	require.Contains(stepByName(result, StepCheck).Error, "unexpected error")
}

func TestIncrementalOutputState(t *testing.T) {
	require := require.New(t)

	inc := &scenarios.IncrementalScenarioConfig{
		InputState: []map[string]any{},
		ExpectedOutputState: map[string]any{"stream1": map[string]any{
			"history":                   map[string]any{"a.csv": modifiedStr},
			filebased.LastModifiedField: modifiedStr + "_a.csv",
		}},
	}
	result := Run(csvScenario().SetIncrementalScenarioConfig(inc).MustBuild())
	require.True(result.Passed, "failures: %v", result.Failures())

	// file is already synced: nothing is read, state is kept
	inc = &scenarios.IncrementalScenarioConfig{
		InputState: []map[string]any{{
			"type": "STREAM",
			"stream": map[string]any{
				"stream_descriptor": map[string]any{"name": "stream1"},
				"stream_state":      map[string]any{"history": map[string]any{"a.csv": modifiedStr}},
			},
		}},
		ExpectedOutputState: map[string]any{"stream1": map[string]any{
			"history":                   map[string]any{"a.csv": "2000-01-01T00:00:00.000000Z"},
			filebased.LastModifiedField: modifiedStr + "_a.csv",
		}},
	}
	result = Run(csvScenario().SetIncrementalScenarioConfig(inc).SetExpectedRecords(nil).SetExpectedLogs(nil).MustBuild())
	require.False(result.Passed)
	require.Contains(stepByName(result, StepRead).Error, "output state mismatch")
	require.NotContains(stepByName(result, StepRead).Error, "records mismatch")
}

type panicSource struct{ airbyte.Source }

func (panicSource) Check(config airbyte.ConnectorConfig, logTracker airbyte.LogTracker) (*airbyte.ConnectionStatus, error) {
	panic("boom")
}

func TestPanicFailsStep(t *testing.T) {
	require := require.New(t)

	ts := scenarios.NewTestScenarioBuilder().
		SetName("panic").
		SetExpectedCheckStatus(airbyte.CheckStatusSuccess).
		SetSourceBuilder(scenarios.NewSourceProvider(panicSource{})).
		MustBuild()
	result := Run(ts)
	require.False(result.Passed)
	require.Equal("panic: boom", stepByName(result, StepCheck).Error)
	require.True(stepByName(result, StepRead).Skipped)
}
