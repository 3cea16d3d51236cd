package filebased

import (
	"sort"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/joomcode/errorx"
)

// Stream is a single stream of file based source: files matched by globs parsed with the parser of stream's file type
type Stream struct {
	config    StreamConfig
	reader    StreamReader
	parser    FileTypeParser
	policy    ValidationPolicy
	discovery DiscoveryPolicy
}

func (s *Stream) Name() string {
	return s.config.Name
}

func (s *Stream) Config() StreamConfig {
	return s.config
}

func (s *Stream) ListFiles() ([]RemoteFile, error) {
	files, err := s.reader.GetMatchingFiles(s.config.Globs)
	if err != nil {
		return nil, errorx.Decorate(err, "stream=%s", s.Name())
	}
	return files, nil
}

// ParseFirstRecord checks that at least one record of the file can be parsed
func (s *Stream) ParseFirstRecord(file RemoteFile) error {
	rc, err := s.reader.Open(file)
	if err != nil {
		return err
	}
	defer rc.Close()
	err = s.parser.ParseRecords(s.config.Format, rc, func(record map[string]any) error {
		return errEnoughRecords
	})
	if err != nil && err != errEnoughRecords {
		return err
	}
	return nil
}

// Schema returns user provided schema or the one inferred from the most recently modified files
func (s *Stream) Schema() (map[string]any, error) {
	if input := s.config.ParsedInputSchema(); input != nil {
		return withFileFields(input), nil
	}
	files, err := s.ListFiles()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].LastModified.After(files[j].LastModified)
	})
	if limit := s.discovery.MaxFilesForSchemaInference(); limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	fieldTypes := map[string]string{}
	for _, file := range files {
		fileTypes, err := s.inferFile(file)
		if err != nil {
			return nil, errorx.Decorate(err, "stream=%s file=%s", s.Name(), file.URI)
		}
		if err = mergeSchemas(fieldTypes, fileTypes); err != nil {
			return nil, errorx.Decorate(err, "stream=%s file=%s", s.Name(), file.URI)
		}
	}
	return toJSONSchema(fieldTypes), nil
}

func (s *Stream) inferFile(file RemoteFile) (map[string]string, error) {
	rc, err := s.reader.Open(file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.parser.InferSchema(s.config.Format, rc)
}

// Describe returns catalog entry of the stream
func (s *Stream) Describe() (airbyte.Stream, error) {
	schema, err := s.Schema()
	if err != nil {
		return airbyte.Stream{}, err
	}
	var pk [][]string
	if s.config.PrimaryKey != "" {
		pk = [][]string{{s.config.PrimaryKey}}
	}
	return airbyte.Stream{
		Name:                    s.Name(),
		JSONSchema:              schema,
		SupportedSyncModes:      []airbyte.SyncMode{airbyte.SyncModeFullRefresh, airbyte.SyncModeIncremental},
		SourceDefinedCursor:     true,
		DefaultCursorField:      []string{LastModifiedField},
		SourceDefinedPrimaryKey: pk,
	}, nil
}

type fileStats struct {
	records int
	invalid int
	skipped int
}

// readFile emits records of the file that pass validation policy
func (s *Stream) readFile(file RemoteFile, schema map[string]any, emit func(record map[string]any) error) (fileStats, error) {
	stats := fileStats{}
	rc, err := s.reader.Open(file)
	if err != nil {
		return stats, err
	}
	defer rc.Close()
	lastModified := formatLastModified(file.LastModified)
	err = s.parser.ParseRecords(s.config.Format, rc, func(record map[string]any) error {
		record[LastModifiedField] = lastModified
		record[FileURLField] = file.URI
		if !conformsToSchema(record, schema) {
			stats.invalid++
		}
		pass, err := s.policy.RecordPassesValidation(record, schema)
		if err != nil {
			return err
		}
		if !pass {
			stats.skipped++
			return nil
		}
		stats.records++
		return emit(record)
	})
	if err != nil {
		return stats, errorx.Decorate(err, "stream=%s file=%s", s.Name(), file.URI)
	}
	return stats, nil
}
