package scenarios

import (
	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/filebased"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/httpstream"
	"github.com/mitchellh/copystructure"
)

// SourceBuilder materializes source under test for the configured catalog of a scenario
type SourceBuilder interface {
	Build(catalog *airbyte.ConfiguredCatalog) (airbyte.Source, error)
	// Clone returns builder that can be modified independently
	Clone() SourceBuilder
}

// SourceProvider returns pre-built source ignoring the catalog
type SourceProvider struct {
	source airbyte.Source
}

func NewSourceProvider(source airbyte.Source) *SourceProvider {
	return &SourceProvider{source: source}
}

func (sp *SourceProvider) Build(catalog *airbyte.ConfiguredCatalog) (airbyte.Source, error) {
	return sp.source, nil
}

// Clone shares the source: it is opaque and can't be copied
func (sp *SourceProvider) Clone() SourceBuilder {
	return &SourceProvider{source: sp.source}
}

// MockedHttpRequestsSourceBuilder binds http source to a dispatcher that replays responses from the mock table
type MockedHttpRequestsSourceBuilder struct {
	source  *httpstream.Source
	mapping RequestResponseMapping
}

func NewMockedHttpRequestsSourceBuilder(source *httpstream.Source) *MockedHttpRequestsSourceBuilder {
	return &MockedHttpRequestsSourceBuilder{source: source, mapping: RequestResponseMapping{}}
}

func (mb *MockedHttpRequestsSourceBuilder) SetRequestResponseMapping(mapping RequestResponseMapping) *MockedHttpRequestsSourceBuilder {
	mb.mapping = mapping.clone()
	return mb
}

// AddResponse adds single entry to the mock table
func (mb *MockedHttpRequestsSourceBuilder) AddResponse(path string, statusCode int, body string) *MockedHttpRequestsSourceBuilder {
	if mb.mapping == nil {
		mb.mapping = RequestResponseMapping{}
	}
	mb.mapping[RequestDescriptor{Path: path}] = ResponseDescriptor{StatusCode: statusCode, Body: body}
	return mb
}

func (mb *MockedHttpRequestsSourceBuilder) Mapping() RequestResponseMapping {
	return mb.mapping.clone()
}

// Build returns copy of the source bound to a new ReplayDispatcher. The original source is left intact
func (mb *MockedHttpRequestsSourceBuilder) Build(catalog *airbyte.ConfiguredCatalog) (airbyte.Source, error) {
	if mb.source == nil {
		return nil, ConfigurationError.New("source is not set")
	}
	return mb.source.WithDispatcher(NewReplayDispatcher(mb.mapping)), nil
}

func (mb *MockedHttpRequestsSourceBuilder) Clone() SourceBuilder {
	return &MockedHttpRequestsSourceBuilder{source: mb.source, mapping: mb.mapping.clone()}
}

// FileBasedSourceBuilder assembles file based source over in-memory files
type FileBasedSourceBuilder struct {
	files                map[string]filebased.InMemoryFile
	fileType             string
	parsers              map[string]filebased.FileTypeParser
	availabilityStrategy filebased.AvailabilityStrategy
	discoveryPolicy      filebased.DiscoveryPolicy
	validationPolicies   map[string]filebased.ValidationPolicy
	streamReader         filebased.StreamReader
	fileWriteOptions     filebased.FileWriteOptions
}

func NewFileBasedSourceBuilder() *FileBasedSourceBuilder {
	return &FileBasedSourceBuilder{
		files:           map[string]filebased.InMemoryFile{},
		parsers:         filebased.DefaultParsers(),
		discoveryPolicy: filebased.DefaultDiscoveryPolicy{},
	}
}

func (fb *FileBasedSourceBuilder) SetFiles(files map[string]filebased.InMemoryFile) *FileBasedSourceBuilder {
	fb.files = files
	return fb
}

func (fb *FileBasedSourceBuilder) SetFileType(fileType string) *FileBasedSourceBuilder {
	fb.fileType = fileType
	return fb
}

func (fb *FileBasedSourceBuilder) SetParsers(parsers map[string]filebased.FileTypeParser) *FileBasedSourceBuilder {
	fb.parsers = parsers
	return fb
}

func (fb *FileBasedSourceBuilder) SetAvailabilityStrategy(strategy filebased.AvailabilityStrategy) *FileBasedSourceBuilder {
	fb.availabilityStrategy = strategy
	return fb
}

func (fb *FileBasedSourceBuilder) SetDiscoveryPolicy(policy filebased.DiscoveryPolicy) *FileBasedSourceBuilder {
	fb.discoveryPolicy = policy
	return fb
}

func (fb *FileBasedSourceBuilder) SetValidationPolicies(policies map[string]filebased.ValidationPolicy) *FileBasedSourceBuilder {
	fb.validationPolicies = policies
	return fb
}

func (fb *FileBasedSourceBuilder) SetStreamReader(reader filebased.StreamReader) *FileBasedSourceBuilder {
	fb.streamReader = reader
	return fb
}

func (fb *FileBasedSourceBuilder) SetFileWriteOptions(options filebased.FileWriteOptions) *FileBasedSourceBuilder {
	fb.fileWriteOptions = options
	return fb
}

func (fb *FileBasedSourceBuilder) Files() map[string]filebased.InMemoryFile {
	return fb.files
}

func (fb *FileBasedSourceBuilder) FileType() string {
	return fb.fileType
}

// Build fails with ConfigurationError when file type is not set.
// Built source reads a snapshot of the file set
func (fb *FileBasedSourceBuilder) Build(catalog *airbyte.ConfiguredCatalog) (airbyte.Source, error) {
	if fb.fileType == "" {
		return nil, ConfigurationError.New("file_type is not set")
	}
	reader := fb.streamReader
	if reader == nil {
		reader = filebased.NewInMemoryStreamReader(copyFiles(fb.files), fb.fileType, fb.fileWriteOptions)
	}
	return filebased.NewSource(filebased.Options{
		StreamReader:         reader,
		FileType:             fb.fileType,
		Parsers:              fb.parsers,
		AvailabilityStrategy: fb.availabilityStrategy,
		DiscoveryPolicy:      fb.discoveryPolicy,
		ValidationPolicies:   fb.validationPolicies,
		Catalog:              catalog,
	}), nil
}

// Clone deep copies file set. Parsers, policies and stream reader are shared
func (fb *FileBasedSourceBuilder) Clone() SourceBuilder {
	c := *fb
	c.files = copyFiles(fb.files)
	c.parsers = cloneMap(fb.parsers)
	c.validationPolicies = cloneMap(fb.validationPolicies)
	return &c
}

func copyFiles(files map[string]filebased.InMemoryFile) map[string]filebased.InMemoryFile {
	if files == nil {
		return nil
	}
	return copystructure.Must(copystructure.Copy(files)).(map[string]filebased.InMemoryFile)
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	c := make(map[string]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
