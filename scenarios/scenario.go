package scenarios

import (
	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/types"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
)

// IncrementalScenarioConfig is state passed to read and state expected at the end of it
type IncrementalScenarioConfig struct {
	InputState []map[string]any `mapstructure:"input_state"`
	// ExpectedOutputState final state of every stream keyed by stream name. Nil means not checked
	ExpectedOutputState map[string]any `mapstructure:"expected_output_state"`
}

// ExpectedRecord is a record expected to be emitted by read
type ExpectedRecord struct {
	Stream string         `mapstructure:"stream"`
	Data   map[string]any `mapstructure:"data"`
}

// ScenarioParams are all attributes of a scenario
type ScenarioParams struct {
	Name                  string
	Config                airbyte.ConnectorConfig
	ExpectedCheckStatus   airbyte.CheckStatus
	ExpectedCatalog       *airbyte.Catalog
	ExpectedLogs          []airbyte.LogMessage
	ExpectedRecords       []ExpectedRecord
	ExpectedCheckError    ExpectedError
	ExpectedDiscoverError ExpectedError
	ExpectedReadError     ExpectedError
	IncrementalConfig     *IncrementalScenarioConfig
	Source                airbyte.Source
}

// TestScenario is a validated test case: connector config, source under test and expected outcomes
type TestScenario struct {
	params ScenarioParams
}

// only streams names are needed from connector config
type configuredStreams struct {
	Streams []struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"streams"`
}

// NewTestScenario validates params and creates scenario.
// Fails with AssertionFailed when name is empty or expected catalog has streams missing in config
func NewTestScenario(params ScenarioParams) (*TestScenario, error) {
	ts := &TestScenario{params: params}
	if err := ts.validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TestScenario) validate() error {
	if ts.params.Name == "" {
		return AssertionFailed.New("scenario name is required")
	}
	if ts.params.ExpectedCatalog == nil || len(ts.params.ExpectedCatalog.Streams) == 0 {
		return nil
	}
	cfg := configuredStreams{}
	if err := utils.ParseObject(map[string]any(ts.params.Config), &cfg); err != nil {
		return AssertionFailed.Wrap(err, "scenario %s: config streams are malformed", ts.params.Name)
	}
	streams := types.NewSet[string]()
	for _, s := range cfg.Streams {
		streams.Put(s.Name)
	}
	expected := types.NewSet(ts.params.ExpectedCatalog.StreamNames()...)
	if !expected.IsSubsetOf(streams) {
		return AssertionFailed.New("scenario %s: expected catalog streams %v are missing in config streams",
			ts.params.Name, expected.Difference(streams))
	}
	return nil
}

func (ts *TestScenario) Name() string {
	return ts.params.Name
}

func (ts *TestScenario) Config() airbyte.ConnectorConfig {
	return ts.params.Config
}

// ExpectedCheckStatus empty status means check status isn't verified
func (ts *TestScenario) ExpectedCheckStatus() airbyte.CheckStatus {
	return ts.params.ExpectedCheckStatus
}

func (ts *TestScenario) ExpectedCatalog() *airbyte.Catalog {
	return ts.params.ExpectedCatalog
}

func (ts *TestScenario) ExpectedLogs() []airbyte.LogMessage {
	return ts.params.ExpectedLogs
}

func (ts *TestScenario) ExpectedRecords() []ExpectedRecord {
	return ts.params.ExpectedRecords
}

func (ts *TestScenario) ExpectedCheckError() ExpectedError {
	return ts.params.ExpectedCheckError
}

func (ts *TestScenario) ExpectedDiscoverError() ExpectedError {
	return ts.params.ExpectedDiscoverError
}

func (ts *TestScenario) ExpectedReadError() ExpectedError {
	return ts.params.ExpectedReadError
}

func (ts *TestScenario) IncrementalConfig() *IncrementalScenarioConfig {
	return ts.params.IncrementalConfig
}

func (ts *TestScenario) Source() airbyte.Source {
	return ts.params.Source
}

// SyncMode incremental when scenario has incremental config
func (ts *TestScenario) SyncMode() airbyte.SyncMode {
	return syncMode(ts.params.IncrementalConfig)
}

// ConfiguredCatalog projects expected catalog into configured catalog with provided sync mode.
// Returns nil when scenario has no expected catalog, empty catalog when expected catalog has no streams
func (ts *TestScenario) ConfiguredCatalog(mode airbyte.SyncMode) *airbyte.ConfiguredCatalog {
	return ts.params.ExpectedCatalog.Configure(mode)
}

// InputState returns state passed to read. Empty when scenario isn't incremental
func (ts *TestScenario) InputState() []map[string]any {
	if ts.params.IncrementalConfig == nil || ts.params.IncrementalConfig.InputState == nil {
		return []map[string]any{}
	}
	return ts.params.IncrementalConfig.InputState
}

func syncMode(incremental *IncrementalScenarioConfig) airbyte.SyncMode {
	return utils.Ternary(incremental != nil, airbyte.SyncModeIncremental, airbyte.SyncModeFullRefresh)
}
