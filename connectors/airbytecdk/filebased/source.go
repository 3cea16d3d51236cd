package filebased

import (
	"fmt"
	"sort"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
)

// Options of file based source. Zero values are replaced with defaults
type Options struct {
	StreamReader StreamReader
	// FileType is used for streams that don't set format.filetype
	FileType             string
	Parsers              map[string]FileTypeParser
	AvailabilityStrategy AvailabilityStrategy
	DiscoveryPolicy      DiscoveryPolicy
	ValidationPolicies   map[string]ValidationPolicy
	// Catalog is used by Read when no catalog is passed
	Catalog        *airbyte.ConfiguredCatalog
	Specification  *airbyte.ConnectorSpecification
	MaxHistorySize int
}

// Source reads files provided by StreamReader
type Source struct {
	opts Options
}

func NewSource(opts Options) *Source {
	if len(opts.Parsers) == 0 {
		opts.Parsers = DefaultParsers()
	}
	if opts.AvailabilityStrategy == nil {
		opts.AvailabilityStrategy = DefaultAvailabilityStrategy{}
	}
	if opts.DiscoveryPolicy == nil {
		opts.DiscoveryPolicy = DefaultDiscoveryPolicy{}
	}
	if len(opts.ValidationPolicies) == 0 {
		opts.ValidationPolicies = DefaultValidationPolicies()
	}
	if opts.MaxHistorySize <= 0 {
		opts.MaxHistorySize = defaultMaxHistorySize
	}
	return &Source{opts: opts}
}

func (s *Source) ConfiguredCatalog() *airbyte.ConfiguredCatalog {
	return s.opts.Catalog
}

func (s *Source) StreamReader() StreamReader {
	return s.opts.StreamReader
}

// Streams creates streams described by config
func (s *Source) Streams(config airbyte.ConnectorConfig) ([]*Stream, error) {
	if s.opts.StreamReader == nil {
		return nil, ConfigValidationError.New("stream reader is not set")
	}
	cfg, err := ParseConfig(config, s.opts.FileType)
	if err != nil {
		return nil, err
	}
	streams := make([]*Stream, 0, len(cfg.Streams))
	for _, sc := range cfg.Streams {
		parser, ok := s.opts.Parsers[sc.Format.FileType]
		if !ok {
			return nil, MissingParser.New("No parser is available for file type: %s. stream=%s", sc.Format.FileType, sc.Name)
		}
		policy, ok := s.opts.ValidationPolicies[sc.ValidationPolicy]
		if !ok {
			return nil, ConfigValidationError.New("validation policy %s is not supported. stream=%s", sc.ValidationPolicy, sc.Name)
		}
		streams = append(streams, &Stream{
			config:    sc,
			reader:    s.opts.StreamReader,
			parser:    parser,
			policy:    policy,
			discovery: s.opts.DiscoveryPolicy,
		})
	}
	return streams, nil
}

func (s *Source) Spec(logTracker airbyte.LogTracker) (*airbyte.ConnectorSpecification, error) {
	if s.opts.Specification != nil {
		return s.opts.Specification, nil
	}
	return &airbyte.ConnectorSpecification{
		SupportsIncremental:           true,
		SupportedDestinationSyncModes: []airbyte.DestinationSyncMode{airbyte.DestinationSyncModeOverwrite, airbyte.DestinationSyncModeAppend},
		ConnectionSpecification: map[string]any{
			"type":     "object",
			"required": []any{"streams"},
			"properties": map[string]any{
				"streams": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"name", "globs"},
						"properties": map[string]any{
							"name":              map[string]any{"type": "string"},
							"globs":             map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"validation_policy": map[string]any{"type": "string", "enum": []any{ValidationPolicyEmitRecord, ValidationPolicySkipRecord, ValidationPolicyWaitForDiscover}},
							"input_schema":      map[string]any{"type": "string"},
							"primary_key":       map[string]any{"type": "string"},
							"format":            map[string]any{"type": "object"},
						},
					},
				},
			},
		},
	}, nil
}

func (s *Source) Check(config airbyte.ConnectorConfig, logTracker airbyte.LogTracker) (*airbyte.ConnectionStatus, error) {
	streams, err := s.Streams(config)
	if err != nil {
		return nil, err
	}
	for _, stream := range streams {
		if ok, reason := s.opts.AvailabilityStrategy.CheckAvailability(stream); !ok {
			_ = logTracker.Log(airbyte.LogLevelError, reason)
			return airbyte.FailedStatus(reason), nil
		}
	}
	return airbyte.SucceededStatus(), nil
}

func (s *Source) Discover(config airbyte.ConnectorConfig, logTracker airbyte.LogTracker) (*airbyte.Catalog, error) {
	streams, err := s.Streams(config)
	if err != nil {
		return nil, err
	}
	catalog := &airbyte.Catalog{Streams: make([]airbyte.Stream, 0, len(streams))}
	for _, stream := range streams {
		described, err := stream.Describe()
		if err != nil {
			return nil, err
		}
		catalog.Streams = append(catalog.Streams, described)
	}
	return catalog, nil
}

func (s *Source) Read(config airbyte.ConnectorConfig, state []airbyte.StateMessage, configuredCat *airbyte.ConfiguredCatalog,
	tracker airbyte.MessageTracker) error {
	streams, err := s.Streams(config)
	if err != nil {
		return err
	}
	configuredCat = utils.Nvl(configuredCat, s.opts.Catalog)
	if configuredCat == nil {
		return airbyte.ConfigValidationError.New("configured catalog is required")
	}
	for _, cs := range configuredCat.Streams {
		idx := utils.ArrayIndexOf(streams, func(st *Stream) bool { return st.Name() == cs.Stream.Name })
		if idx < 0 {
			return airbyte.ConfigValidationError.New("The stream %s in your connection configuration was not found in the source.", cs.Stream.Name)
		}
		if err = s.readStream(streams[idx], cs, state, tracker); err != nil {
			return err
		}
	}
	return nil
}

func (s *Source) readStream(stream *Stream, cs airbyte.ConfiguredStream, state []airbyte.StateMessage, tracker airbyte.MessageTracker) error {
	_ = tracker.Log(airbyte.LogLevelInfo, fmt.Sprintf("Syncing stream: %s", stream.Name()))
	schema := cs.Stream.JSONSchema
	if len(schema) == 0 {
		var err error
		if schema, err = stream.Schema(); err != nil {
			return err
		}
	}
	files, err := stream.ListFiles()
	if err != nil {
		return err
	}
	incremental := cs.SyncMode == airbyte.SyncModeIncremental
	var cursor *fileCursor
	if incremental {
		cursor = newFileCursor(airbyte.StreamStateOf(state, stream.Name()), s.opts.MaxHistorySize)
		sort.SliceStable(files, func(i, j int) bool {
			if files[i].LastModified.Equal(files[j].LastModified) {
				return files[i].URI < files[j].URI
			}
			return files[i].LastModified.Before(files[j].LastModified)
		})
	}
	emit := func(record map[string]any) error {
		return tracker.Record(record, stream.Name(), cs.Stream.Namespace)
	}
	total := 0
	stateEmitted := false
	for _, file := range files {
		if incremental && !cursor.shouldSync(file) {
			continue
		}
		stats, err := stream.readFile(file, schema, emit)
		if err != nil {
			return err
		}
		total += stats.records
		if stats.invalid > 0 {
			_ = tracker.Log(airbyte.LogLevelWarn, fmt.Sprintf(
				"Records in file did not pass validation policy. stream=%s file=%s n_skipped=%d validation_policy=%s",
				stream.Name(), file.URI, stats.skipped, stream.policy.Name()))
		}
		if incremental {
			cursor.add(file)
			if err = tracker.State(airbyte.NewStreamState(stream.Name(), cs.Stream.Namespace, cursor.state())); err != nil {
				return err
			}
			stateEmitted = true
		}
	}
	if incremental && !stateEmitted {
		if err = tracker.State(airbyte.NewStreamState(stream.Name(), cs.Stream.Namespace, cursor.state())); err != nil {
			return err
		}
	}
	_ = tracker.Log(airbyte.LogLevelInfo, fmt.Sprintf("Read %d records from %s stream", total, stream.Name()))
	return nil
}
