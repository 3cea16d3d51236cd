package scenariotest

import (
	"testing"
	"time"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/filebased"
	"github.com/jitsucom/airbyte-scenarios/scenarios"
)

var modified = time.Date(2023, 6, 5, 3, 54, 7, 0, time.UTC)

func jsonlScenario(name string, policy string) *scenarios.TestScenarioBuilder {
	return scenarios.NewTestScenarioBuilder().
		SetName(name).
		SetConfig(airbyte.ConnectorConfig{"streams": []any{
			map[string]any{"name": "stream1", "globs": []any{"*.jsonl"}, "validation_policy": policy,
				"input_schema": `{"type": "object", "properties": {"id": {"type": "integer"}}}`},
		}}).
		SetExpectedCheckStatus(airbyte.CheckStatusSuccess).
		SetSourceBuilder(scenarios.NewFileBasedSourceBuilder().
			SetFileType(filebased.FileTypeJSONL).
			SetFiles(map[string]filebased.InMemoryFile{
				"a.jsonl": {Contents: []map[string]any{{"id": 1}, {"id": "x"}}, LastModified: modified},
			}))
}

func withRead(b *scenarios.TestScenarioBuilder, records ...int) *scenarios.TestScenarioBuilder {
	expected := make([]scenarios.ExpectedRecord, 0, len(records))
	for _, id := range records {
		expected = append(expected, scenarios.ExpectedRecord{Stream: "stream1", Data: map[string]any{
			"id":                        id,
			filebased.LastModifiedField: "2023-06-05T03:54:07.000000Z",
			filebased.FileURLField:      "a.jsonl",
		}})
	}
	return b.SetExpectedCatalog(&airbyte.Catalog{Streams: []airbyte.Stream{{
		Name: "stream1",
		JSONSchema: map[string]any{"type": "object", "properties": map[string]any{
			"id":                        map[string]any{"type": "integer"},
			filebased.LastModifiedField: map[string]any{"type": "string", "format": "date-time"},
			filebased.FileURLField:      map[string]any{"type": "string"},
		}},
		SupportedSyncModes:  []airbyte.SyncMode{airbyte.SyncModeFullRefresh, airbyte.SyncModeIncremental},
		SourceDefinedCursor: true,
		DefaultCursorField:  []string{filebased.LastModifiedField},
	}}}).SetExpectedRecords(expected)
}

func TestRunAll(t *testing.T) {
	RunAll(t,
		jsonlScenario("check only", filebased.ValidationPolicyEmitRecord),
		withRead(jsonlScenario("skip record", filebased.ValidationPolicySkipRecord), 1).
			SetExpectedLogs([]airbyte.LogMessage{{Level: airbyte.LogLevelWarn, Message: "n_skipped=1 validation_policy=skip_record"}}),
		withRead(jsonlScenario("wait for discover", filebased.ValidationPolicyWaitForDiscover)).
			SetExpectedReadError(scenarios.ExpectedError{Type: filebased.StopSync, Message: "Stopping sync"}),
	)
}

func TestRunReturnsResult(t *testing.T) {
	result := Run(t, withRead(jsonlScenario("emit record", filebased.ValidationPolicyEmitRecord)).
		SetExpectedRecords([]scenarios.ExpectedRecord{
			{Stream: "stream1", Data: map[string]any{"id": 1, filebased.LastModifiedField: "2023-06-05T03:54:07.000000Z", filebased.FileURLField: "a.jsonl"}},
			{Stream: "stream1", Data: map[string]any{"id": "x", filebased.LastModifiedField: "2023-06-05T03:54:07.000000Z", filebased.FileURLField: "a.jsonl"}},
		}).MustBuild())
	if !result.Passed {
		t.Fatalf("expected scenario to pass: %v", result.Failures())
	}
}
