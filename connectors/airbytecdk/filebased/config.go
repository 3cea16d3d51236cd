package filebased

import (
	"fmt"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	FileTypeCSV   = "csv"
	FileTypeJSONL = "jsonl"
	FileTypeAvro  = "avro"

	defaultValidationPolicy = ValidationPolicyEmitRecord
)

// Config is a connector config of file based source
type Config struct {
	Streams []StreamConfig `mapstructure:"streams"`
}

type StreamConfig struct {
	Name   string       `mapstructure:"name"`
	Globs  []string     `mapstructure:"globs"`
	Format FormatConfig `mapstructure:"format"`
	// ValidationPolicy name of policy applied to records not conforming to the schema. Default: emit_record
	ValidationPolicy string `mapstructure:"validation_policy"`
	// InputSchema user provided json schema of stream records: json string or object
	InputSchema any    `mapstructure:"input_schema"`
	PrimaryKey  string `mapstructure:"primary_key"`

	inputSchema map[string]any
}

type FormatConfig struct {
	// FileType falls back to source's default file type
	FileType                string   `mapstructure:"filetype"`
	Delimiter               string   `mapstructure:"delimiter"`
	QuoteChar               string   `mapstructure:"quote_char"`
	SkipRowsBeforeHeader    int      `mapstructure:"skip_rows_before_header"`
	AutogenerateColumnNames bool     `mapstructure:"autogenerate_column_names"`
	NullValues              []string `mapstructure:"null_values"`
}

// ParsedInputSchema returns user provided schema or nil
func (sc *StreamConfig) ParsedInputSchema() map[string]any {
	return sc.inputSchema
}

// ParseConfig decodes and validates connector config. Streams without file type get defaultFileType
func ParseConfig(raw airbyte.ConnectorConfig, defaultFileType string) (*Config, error) {
	config := &Config{}
	if err := utils.ParseObject(map[string]any(raw), config); err != nil {
		return nil, ConfigValidationError.Wrap(err, "failed to decode config")
	}
	var errs *multierror.Error
	if len(config.Streams) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("at least one stream is required"))
	}
	names := make([]string, 0, len(config.Streams))
	for i := range config.Streams {
		sc := &config.Streams[i]
		names = append(names, sc.Name)
		if sc.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("stream #%d: name is required", i))
		}
		sc.Format.FileType = utils.NvlString(sc.Format.FileType, defaultFileType)
		sc.ValidationPolicy = utils.NvlString(sc.ValidationPolicy, defaultValidationPolicy)
		if err := sc.validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("stream %s: %v", sc.Name, err))
		}
	}
	for _, dup := range utils.ArrayDuplicates(names) {
		errs = multierror.Append(errs, fmt.Errorf("duplicate stream name: %s", dup))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, ConfigValidationError.Wrap(err, "invalid config")
	}
	return config, nil
}

func (sc *StreamConfig) validate() error {
	var errs *multierror.Error
	if len(sc.Globs) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("globs are required"))
	}
	for _, g := range sc.Globs {
		if !doublestar.ValidatePattern(g) {
			errs = multierror.Append(errs, fmt.Errorf("invalid glob: %s", g))
		}
	}
	if sc.Format.FileType == "" {
		errs = multierror.Append(errs, fmt.Errorf("format.filetype is required"))
	}
	if sc.Format.Delimiter != "" && utf8.RuneCountInString(sc.Format.Delimiter) != 1 {
		errs = multierror.Append(errs, fmt.Errorf("delimiter must be a single character: %q", sc.Format.Delimiter))
	}
	if sc.Format.QuoteChar != "" && sc.Format.QuoteChar != `"` {
		errs = multierror.Append(errs, fmt.Errorf("only '\"' is supported as quote_char, got: %q", sc.Format.QuoteChar))
	}
	if sc.Format.SkipRowsBeforeHeader < 0 {
		errs = multierror.Append(errs, fmt.Errorf("skip_rows_before_header must not be negative"))
	}
	switch s := sc.InputSchema.(type) {
	case nil:
	case string:
		if s != "" {
			schema := map[string]any{}
			if err := json.Unmarshal([]byte(s), &schema); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("input_schema is not a valid json object: %v", err))
			} else {
				sc.inputSchema = schema
			}
		}
	case map[string]any:
		sc.inputSchema = s
	default:
		errs = multierror.Append(errs, fmt.Errorf("unsupported input_schema type: %T", sc.InputSchema))
	}
	return errs.ErrorOrNil()
}
