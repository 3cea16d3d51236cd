package filebased

import (
	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/joomcode/errorx"
)

var (
	Errors = errorx.NewNamespace("filebased")

	// ConfigValidationError file based stream configuration is invalid
	ConfigValidationError = airbyte.ConfigValidationError.NewSubtype("file_based_config")
	// MissingParser no parser registered for stream's file type
	MissingParser = Errors.NewType("missing_parser")
	// SchemaInferenceError field types of different files (or records) can't be merged
	SchemaInferenceError = Errors.NewType("schema_inference")
	// RecordParseError file content can't be parsed into records
	RecordParseError = Errors.NewType("record_parse")
	// StopSync record doesn't conform to the schema and validation policy requires sync to stop
	StopSync = Errors.NewType("stop_sync")
	// FileReadError stream reader failed to list or open files
	FileReadError = Errors.NewType("file_read")
)
