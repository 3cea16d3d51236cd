package loader

import (
	"fmt"
	"path/filepath"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/declarative"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/filebased"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	"github.com/jitsucom/airbyte-scenarios/scenarios"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Definition is a scenario described in a hjson, json or yaml document
type Definition struct {
	Name         string                               `mapstructure:"name"`
	Description  string                               `mapstructure:"description"`
	Config       map[string]any                       `mapstructure:"config"`
	Source       SourceDefinition                     `mapstructure:"source"`
	Expectations Expectations                         `mapstructure:"expectations"`
	Incremental  *scenarios.IncrementalScenarioConfig `mapstructure:"incremental"`

	// Path of the definition file. Empty for definitions parsed from memory
	Path string         `mapstructure:"-"`
	raw  map[string]any `mapstructure:"-"`
}

// SourceDefinition describes either in-memory files of a file based source
// or declarative manifest with the table of mocked responses
type SourceDefinition struct {
	FileType         string                            `mapstructure:"file_type"`
	Files            map[string]filebased.InMemoryFile `mapstructure:"files"`
	FileWriteOptions filebased.FileWriteOptions        `mapstructure:"file_write_options"`
	Manifest         map[string]any                    `mapstructure:"manifest"`
	ManifestPath     string                            `mapstructure:"manifest_path"`
	Requests         []RequestMock                     `mapstructure:"requests"`
}

func (sd SourceDefinition) isDeclarative() bool {
	return len(sd.Manifest) > 0 || sd.ManifestPath != ""
}

// RequestMock is a single entry of the mock table. Non-string body is serialized as json
type RequestMock struct {
	Path       string `mapstructure:"path"`
	StatusCode int    `mapstructure:"status_code"`
	Body       any    `mapstructure:"body"`
}

type Expectations struct {
	CheckStatus   string             `mapstructure:"check_status"`
	Catalog       map[string]any     `mapstructure:"catalog"`
	Records       []RecordDefinition `mapstructure:"records"`
	Logs          []LogDefinition    `mapstructure:"logs"`
	CheckError    *ErrorDefinition   `mapstructure:"check_error"`
	DiscoverError *ErrorDefinition   `mapstructure:"discover_error"`
	ReadError     *ErrorDefinition   `mapstructure:"read_error"`
}

type RecordDefinition struct {
	Stream string         `mapstructure:"stream"`
	Data   map[string]any `mapstructure:"data"`
}

type LogDefinition struct {
	Level   string `mapstructure:"level"`
	Message string `mapstructure:"message"`
}

// ErrorDefinition refers error type by its full name, e.g. filebased.stop_sync
type ErrorDefinition struct {
	Type    string `mapstructure:"type"`
	Message string `mapstructure:"message"`
}

// ParseDefinition decodes definition from generic document
func ParseDefinition(raw map[string]any) (*Definition, error) {
	d := &Definition{}
	if err := utils.DecodeMap(raw, d); err != nil {
		return nil, fmt.Errorf("failed to decode scenario definition: %w", err)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	d.raw = raw
	return d, nil
}

// Hash identifies definition content. Changes when the document changes
func (d *Definition) Hash() (string, error) {
	return utils.HashAnyString(d.raw)
}

// Builder creates scenario builder from the definition
func (d *Definition) Builder() (*scenarios.TestScenarioBuilder, error) {
	b := scenarios.NewTestScenarioBuilder().
		SetName(d.Name).
		SetExpectedCheckStatus(airbyte.CheckStatus(d.Expectations.CheckStatus)).
		SetIncrementalScenarioConfig(d.Incremental)

	if d.Config != nil {
		b.SetConfig(d.Config)
	}
	if d.Expectations.Catalog != nil {
		catalog := &airbyte.Catalog{}
		if err := convert(d.Expectations.Catalog, catalog); err != nil {
			return nil, fmt.Errorf("scenario %s: invalid expected catalog: %w", d.Name, err)
		}
		b.SetExpectedCatalog(catalog)
	}
	if d.Expectations.Records != nil {
		b.SetExpectedRecords(utils.ArrayMap(d.Expectations.Records, func(r RecordDefinition) scenarios.ExpectedRecord {
			return scenarios.ExpectedRecord{Stream: r.Stream, Data: r.Data}
		}))
	}
	if d.Expectations.Logs != nil {
		b.SetExpectedLogs(utils.ArrayMap(d.Expectations.Logs, func(l LogDefinition) airbyte.LogMessage {
			return airbyte.LogMessage{Level: airbyte.LogLevel(l.Level), Message: l.Message}
		}))
	}
	for _, e := range []struct {
		def *ErrorDefinition
		set func(scenarios.ExpectedError) *scenarios.TestScenarioBuilder
	}{
		{d.Expectations.CheckError, b.SetExpectedCheckError},
		{d.Expectations.DiscoverError, b.SetExpectedDiscoverError},
		{d.Expectations.ReadError, b.SetExpectedReadError},
	} {
		if e.def == nil {
			continue
		}
		expected, err := expectedError(e.def)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", d.Name, err)
		}
		e.set(expected)
	}

	sourceBuilder, err := d.sourceBuilder()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", d.Name, err)
	}
	return b.SetSourceBuilder(sourceBuilder), nil
}

func (d *Definition) sourceBuilder() (scenarios.SourceBuilder, error) {
	sd := d.Source
	if !sd.isDeclarative() {
		fb := scenarios.NewFileBasedSourceBuilder().
			SetFileType(sd.FileType).
			SetFileWriteOptions(sd.FileWriteOptions)
		if sd.Files != nil {
			fb.SetFiles(sd.Files)
		}
		return fb, nil
	}
	var manifest *declarative.Manifest
	var err error
	if sd.ManifestPath != "" {
		path := sd.ManifestPath
		if !filepath.IsAbs(path) && d.Path != "" {
			path = filepath.Join(filepath.Dir(d.Path), path)
		}
		manifest, err = declarative.LoadManifestFile(path)
	} else {
		manifest, err = declarative.ManifestFromMap(sd.Manifest)
	}
	if err != nil {
		return nil, err
	}
	mapping, err := d.RequestMapping()
	if err != nil {
		return nil, err
	}
	return scenarios.NewMockedHttpRequestsSourceBuilder(declarative.NewSource(manifest)).SetRequestResponseMapping(mapping), nil
}

// RequestMapping returns the table of mocked responses. Status code defaults to 200
func (d *Definition) RequestMapping() (scenarios.RequestResponseMapping, error) {
	mapping := scenarios.RequestResponseMapping{}
	for _, r := range d.Source.Requests {
		body, err := bodyString(r.Body)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", r.Path, err)
		}
		mapping[scenarios.RequestDescriptor{Path: r.Path}] = scenarios.ResponseDescriptor{
			StatusCode: utils.Ternary(r.StatusCode == 0, 200, r.StatusCode),
			Body:       body,
		}
	}
	return mapping, nil
}

func bodyString(body any) (string, error) {
	switch b := body.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	default:
		s, err := json.Marshal(b)
		return string(s), err
	}
}

func expectedError(def *ErrorDefinition) (scenarios.ExpectedError, error) {
	expected := scenarios.ExpectedError{Message: def.Message}
	if def.Type != "" {
		t, ok := ErrorType(def.Type)
		if !ok {
			return expected, fmt.Errorf("unknown error type: %s", def.Type)
		}
		expected.Type = t
	}
	return expected, nil
}

// convert decodes generic value into struct using its json tags
func convert(value any, result any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}
