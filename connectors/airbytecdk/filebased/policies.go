package filebased

import (
	"fmt"
)

const (
	ValidationPolicyEmitRecord      = "emit_record"
	ValidationPolicySkipRecord      = "skip_record"
	ValidationPolicyWaitForDiscover = "wait_for_discover"

	defaultMaxFilesForSchemaInference = 10
)

// ValidationPolicy decides what to do with records not conforming to the stream schema
type ValidationPolicy interface {
	Name() string
	// RecordPassesValidation reports whether record must be emitted.
	// Returns StopSync error when sync must be stopped
	RecordPassesValidation(record map[string]any, schema map[string]any) (bool, error)
}

// DefaultValidationPolicies returns new map of all built-in validation policies by name
func DefaultValidationPolicies() map[string]ValidationPolicy {
	return map[string]ValidationPolicy{
		ValidationPolicyEmitRecord:      EmitRecordPolicy{},
		ValidationPolicySkipRecord:      SkipRecordPolicy{},
		ValidationPolicyWaitForDiscover: WaitForDiscoverPolicy{},
	}
}

// EmitRecordPolicy emits every record
type EmitRecordPolicy struct{}

func (EmitRecordPolicy) Name() string {
	return ValidationPolicyEmitRecord
}

func (EmitRecordPolicy) RecordPassesValidation(record map[string]any, schema map[string]any) (bool, error) {
	return true, nil
}

// SkipRecordPolicy drops records not conforming to the schema
type SkipRecordPolicy struct{}

func (SkipRecordPolicy) Name() string {
	return ValidationPolicySkipRecord
}

func (SkipRecordPolicy) RecordPassesValidation(record map[string]any, schema map[string]any) (bool, error) {
	return conformsToSchema(record, schema), nil
}

// WaitForDiscoverPolicy stops sync on the first record not conforming to the schema
type WaitForDiscoverPolicy struct{}

func (WaitForDiscoverPolicy) Name() string {
	return ValidationPolicyWaitForDiscover
}

func (WaitForDiscoverPolicy) RecordPassesValidation(record map[string]any, schema map[string]any) (bool, error) {
	if !conformsToSchema(record, schema) {
		return false, StopSync.New("Stopping sync in accordance with the configured validation policy. Records in file did not conform to the schema.")
	}
	return true, nil
}

// DiscoveryPolicy limits work done during discover
type DiscoveryPolicy interface {
	// MaxFilesForSchemaInference number of most recently modified files used to infer schema
	MaxFilesForSchemaInference() int
}

type DefaultDiscoveryPolicy struct{}

func (DefaultDiscoveryPolicy) MaxFilesForSchemaInference() int {
	return defaultMaxFilesForSchemaInference
}

// AvailabilityStrategy checks that stream can be read
type AvailabilityStrategy interface {
	// CheckAvailability returns false and a reason when stream is unavailable
	CheckAvailability(stream *Stream) (bool, string)
}

// DefaultAvailabilityStrategy requires at least one matching file whose first record can be parsed
type DefaultAvailabilityStrategy struct{}

func (DefaultAvailabilityStrategy) CheckAvailability(stream *Stream) (bool, string) {
	files, err := stream.ListFiles()
	if err != nil {
		return false, fmt.Sprintf("Unable to list files of stream %s: %v", stream.Name(), err)
	}
	if len(files) == 0 {
		return false, fmt.Sprintf("No files were identified in the stream %s. Setup a glob that matches files.", stream.Name())
	}
	if err = stream.ParseFirstRecord(files[0]); err != nil {
		return false, fmt.Sprintf("Unable to parse file %s of stream %s: %v", files[0].URI, stream.Name(), err)
	}
	return true, ""
}
