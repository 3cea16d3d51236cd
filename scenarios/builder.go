package scenarios

import (
	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/mitchellh/copystructure"
)

// TestScenarioBuilder accumulates scenario attributes. Setters may be called in any order, last write wins.
// Build may be called repeatedly: every call builds a new source and an independent scenario
type TestScenarioBuilder struct {
	name                  string
	config                airbyte.ConnectorConfig
	expectedCheckStatus   airbyte.CheckStatus
	expectedCatalog       *airbyte.Catalog
	expectedLogs          []airbyte.LogMessage
	expectedRecords       []ExpectedRecord
	expectedCheckError    ExpectedError
	expectedDiscoverError ExpectedError
	expectedReadError     ExpectedError
	incrementalConfig     *IncrementalScenarioConfig
	sourceBuilder         SourceBuilder
}

// NewTestScenarioBuilder creates builder with file based source builder
func NewTestScenarioBuilder() *TestScenarioBuilder {
	return &TestScenarioBuilder{
		config:        airbyte.ConnectorConfig{},
		sourceBuilder: NewFileBasedSourceBuilder(),
	}
}

func (b *TestScenarioBuilder) SetName(name string) *TestScenarioBuilder {
	b.name = name
	return b
}

func (b *TestScenarioBuilder) SetConfig(config airbyte.ConnectorConfig) *TestScenarioBuilder {
	b.config = config
	return b
}

func (b *TestScenarioBuilder) SetExpectedCheckStatus(status airbyte.CheckStatus) *TestScenarioBuilder {
	b.expectedCheckStatus = status
	return b
}

func (b *TestScenarioBuilder) SetExpectedCatalog(catalog *airbyte.Catalog) *TestScenarioBuilder {
	b.expectedCatalog = catalog
	return b
}

func (b *TestScenarioBuilder) SetExpectedLogs(logs []airbyte.LogMessage) *TestScenarioBuilder {
	b.expectedLogs = logs
	return b
}

func (b *TestScenarioBuilder) SetExpectedRecords(records []ExpectedRecord) *TestScenarioBuilder {
	b.expectedRecords = records
	return b
}

func (b *TestScenarioBuilder) SetIncrementalScenarioConfig(config *IncrementalScenarioConfig) *TestScenarioBuilder {
	b.incrementalConfig = config
	return b
}

func (b *TestScenarioBuilder) SetExpectedCheckError(expected ExpectedError) *TestScenarioBuilder {
	b.expectedCheckError = expected
	return b
}

func (b *TestScenarioBuilder) SetExpectedDiscoverError(expected ExpectedError) *TestScenarioBuilder {
	b.expectedDiscoverError = expected
	return b
}

func (b *TestScenarioBuilder) SetExpectedReadError(expected ExpectedError) *TestScenarioBuilder {
	b.expectedReadError = expected
	return b
}

// SetSourceBuilder attaches builder of the source under test
func (b *TestScenarioBuilder) SetSourceBuilder(sourceBuilder SourceBuilder) *TestScenarioBuilder {
	b.sourceBuilder = sourceBuilder
	return b
}

func (b *TestScenarioBuilder) SourceBuilder() SourceBuilder {
	return b.sourceBuilder
}

// Copy returns deep copy of the builder. Modifying the copy never affects the original
func (b *TestScenarioBuilder) Copy() *TestScenarioBuilder {
	c := *b
	c.config = deepCopy(b.config)
	c.expectedCatalog = deepCopy(b.expectedCatalog)
	c.expectedLogs = deepCopy(b.expectedLogs)
	c.expectedRecords = deepCopy(b.expectedRecords)
	c.incrementalConfig = deepCopy(b.incrementalConfig)
	if b.sourceBuilder != nil {
		c.sourceBuilder = b.sourceBuilder.Clone()
	}
	return &c
}

// Build derives configured catalog from expected catalog, builds the source and validates the scenario
func (b *TestScenarioBuilder) Build() (*TestScenario, error) {
	if b.name == "" {
		return nil, AssertionFailed.New("scenario name is required")
	}
	if b.sourceBuilder == nil {
		return nil, ConfigurationError.New("source builder is not set")
	}
	source, err := b.sourceBuilder.Build(b.expectedCatalog.Configure(syncMode(b.incrementalConfig)))
	if err != nil {
		return nil, err
	}
	return NewTestScenario(ScenarioParams{
		Name:                  b.name,
		Config:                b.config,
		ExpectedCheckStatus:   b.expectedCheckStatus,
		ExpectedCatalog:       b.expectedCatalog,
		ExpectedLogs:          b.expectedLogs,
		ExpectedRecords:       b.expectedRecords,
		ExpectedCheckError:    b.expectedCheckError,
		ExpectedDiscoverError: b.expectedDiscoverError,
		ExpectedReadError:     b.expectedReadError,
		IncrementalConfig:     b.incrementalConfig,
		Source:                source,
	})
}

// MustBuild is Build that panics on error
func (b *TestScenarioBuilder) MustBuild() *TestScenario {
	ts, err := b.Build()
	if err != nil {
		panic(err)
	}
	return ts
}

func deepCopy[T any](v T) T {
	c, err := copystructure.Copy(v)
	if err != nil {
		panic(err)
	}
	res, _ := c.(T)
	return res
}
