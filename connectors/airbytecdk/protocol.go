package airbyte

import (
	"errors"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Should conform to https://github.com/airbytehq/airbyte/blob/master/airbyte-protocol/models/src/main/resources/airbyte_protocol/airbyte_protocol.yaml

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type cmd string

const (
	cmdSpec     cmd = "spec"
	cmdCheck    cmd = "check"
	cmdDiscover cmd = "discover"
	cmdRead     cmd = "read"
)

type msgType string

const (
	msgTypeRecord         msgType = "RECORD"
	msgTypeState          msgType = "STATE"
	msgTypeLog            msgType = "LOG"
	msgTypeConnectionStat msgType = "CONNECTION_STATUS"
	msgTypeCatalog        msgType = "CATALOG"
	msgTypeSpec           msgType = "SPEC"
)

var errInvalidTypePayload = errors.New("message type and payload are invalid")

type message struct {
	Type                    msgType `json:"type"`
	*RecordMessage          `json:"record,omitempty"`
	*StateMessage           `json:"state,omitempty"`
	*LogMessage             `json:"log,omitempty"`
	*ConnectorSpecification `json:"spec,omitempty"`
	*ConnectionStatus       `json:"connectionStatus,omitempty"`
	*Catalog                `json:"catalog,omitempty"`
}

// message MarshalJSON is a custom marshaller which validates the messageType with the sub-struct
func (m *message) MarshalJSON() ([]byte, error) {
	payloads := 0
	for _, present := range []bool{m.RecordMessage != nil, m.StateMessage != nil, m.LogMessage != nil,
		m.ConnectorSpecification != nil, m.ConnectionStatus != nil, m.Catalog != nil} {
		if present {
			payloads++
		}
	}
	if payloads != 1 {
		return nil, errInvalidTypePayload
	}
	switch m.Type {
	case msgTypeRecord:
		if m.RecordMessage == nil {
			return nil, errInvalidTypePayload
		}
	case msgTypeState:
		if m.StateMessage == nil {
			return nil, errInvalidTypePayload
		}
	case msgTypeLog:
		if m.LogMessage == nil {
			return nil, errInvalidTypePayload
		}
	case msgTypeConnectionStat:
		if m.ConnectionStatus == nil {
			return nil, errInvalidTypePayload
		}
	case msgTypeCatalog:
		if m.Catalog == nil {
			return nil, errInvalidTypePayload
		}
	case msgTypeSpec:
		if m.ConnectorSpecification == nil {
			return nil, errInvalidTypePayload
		}
	}

	type m2 message
	return json.Marshal(m2(*m))
}

// write emits data outbound from your src/destination to airbyte workers
func write(w io.Writer, m *message) error {
	return json.NewEncoder(w).Encode(m)
}

// ConnectorConfig is connector configuration as provided by user. Connectors decode it into their own typed structs
type ConnectorConfig = map[string]any

// RecordMessage defines a record as per airbyte - a "data point"
type RecordMessage struct {
	EmittedAt int64          `json:"emitted_at"`
	Namespace string         `json:"namespace,omitempty"`
	Data      map[string]any `json:"data"`
	Stream    string         `json:"stream"`
}

// LogLevel defines the log levels that can be emitted with airbyte logs
type LogLevel string

const (
	LogLevelFatal LogLevel = "FATAL"
	LogLevelError LogLevel = "ERROR"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelTrace LogLevel = "TRACE"
)

type LogMessage struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}

type CheckStatus string

const (
	CheckStatusSuccess CheckStatus = "SUCCEEDED"
	CheckStatusFailed  CheckStatus = "FAILED"
)

type ConnectionStatus struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

func SucceededStatus() *ConnectionStatus {
	return &ConnectionStatus{Status: CheckStatusSuccess}
}

func FailedStatus(message string) *ConnectionStatus {
	return &ConnectionStatus{Status: CheckStatusFailed, Message: message}
}

// Catalog defines the complete available schema you can sync with a source
// This should not be mistaken with ConfiguredCatalog which is the "selected" schema you want to sync
type Catalog struct {
	Streams []Stream `json:"streams"`
}

// Stream defines a single "schema" you'd like to sync - think of this as a table, collection, topic, etc. In airbyte terminology these are "streams"
type Stream struct {
	Name                    string         `json:"name"`
	JSONSchema              map[string]any `json:"json_schema"`
	SupportedSyncModes      []SyncMode     `json:"supported_sync_modes,omitempty"`
	SourceDefinedCursor     bool           `json:"source_defined_cursor,omitempty"`
	DefaultCursorField      []string       `json:"default_cursor_field,omitempty"`
	SourceDefinedPrimaryKey [][]string     `json:"source_defined_primary_key,omitempty"`
	Namespace               string         `json:"namespace,omitempty"`
}

// StreamNames returns names of catalog streams in catalog order
func (c *Catalog) StreamNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.Streams))
	for i, s := range c.Streams {
		names[i] = s.Name
	}
	return names
}

// Configure projects every stream of the catalog into a configured stream with provided sync mode.
// Destination sync mode is always 'append'. Returns nil for nil catalog, catalog without streams gives empty configured catalog
func (c *Catalog) Configure(syncMode SyncMode) *ConfiguredCatalog {
	if c == nil {
		return nil
	}
	configured := &ConfiguredCatalog{Streams: make([]ConfiguredStream, 0, len(c.Streams))}
	for _, stream := range c.Streams {
		configured.Streams = append(configured.Streams, ConfiguredStream{
			Stream:              stream,
			SyncMode:            syncMode,
			DestinationSyncMode: DestinationSyncModeAppend,
		})
	}
	return configured
}

// ConfiguredCatalog is the "selected" schema you want to sync
// This should not be mistaken with Catalog which represents the complete available schema to sync
type ConfiguredCatalog struct {
	Streams []ConfiguredStream `json:"streams"`
}

// Stream returns configured stream by name
func (c *ConfiguredCatalog) Stream(name string) (*ConfiguredStream, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Streams {
		if c.Streams[i].Stream.Name == name {
			return &c.Streams[i], true
		}
	}
	return nil, false
}

// ConfiguredStream defines a single selected stream to sync
type ConfiguredStream struct {
	Stream              Stream              `json:"stream"`
	SyncMode            SyncMode            `json:"sync_mode"`
	CursorField         []string            `json:"cursor_field,omitempty"`
	DestinationSyncMode DestinationSyncMode `json:"destination_sync_mode"`
	PrimaryKey          [][]string          `json:"primary_key,omitempty"`
}

// SyncMode defines the modes that your source is able to sync in
type SyncMode string

const (
	// SyncModeFullRefresh means the data will be wiped and fully synced on each run
	SyncModeFullRefresh SyncMode = "full_refresh"
	// SyncModeIncremental is used for incremental syncs
	SyncModeIncremental SyncMode = "incremental"
)

// DestinationSyncMode represents how the destination should interpret your data
type DestinationSyncMode string

const (
	// DestinationSyncModeAppend is used for the destination to know it needs to append data
	DestinationSyncModeAppend DestinationSyncMode = "append"
	// DestinationSyncModeOverwrite is used to indicate the destination should overwrite data
	DestinationSyncModeOverwrite DestinationSyncMode = "overwrite"
)

// ConnectorSpecification is used to define the connector wide settings. Every connection using your connector will comply to these settings
type ConnectorSpecification struct {
	DocumentationURL              string                `json:"documentationUrl,omitempty"`
	ChangeLogURL                  string                `json:"changeLogUrl,omitempty"`
	SupportsIncremental           bool                  `json:"supportsIncremental"`
	SupportedDestinationSyncModes []DestinationSyncMode `json:"supported_destination_sync_modes"`
	ConnectionSpecification       map[string]any        `json:"connectionSpecification"`
}

// LogWriter is exported for documentation purposes - only use this through LogTracker or MessageTracker
// to ensure thread-safe behavior with the writer
type LogWriter func(level LogLevel, s string) error

// StateWriter is exported for documentation purposes - only use this through MessageTracker
type StateWriter func(s *StateMessage) error

// RecordWriter is exported for documentation purposes - only use this through MessageTracker
type RecordWriter func(v map[string]any, streamName string, namespace string) error

func newLogWriter(w io.Writer) LogWriter {
	return func(lvl LogLevel, s string) error {
		return write(w, &message{
			Type: msgTypeLog,
			LogMessage: &LogMessage{
				Level:   lvl,
				Message: s,
			},
		})
	}

}
func newStateWriter(w io.Writer) StateWriter {
	return func(s *StateMessage) error {
		return write(w, &message{
			Type:         msgTypeState,
			StateMessage: s,
		})
	}
}

func newRecordWriter(w io.Writer) RecordWriter {
	return func(s map[string]any, stream string, namespace string) error {
		return write(w, &message{
			Type: msgTypeRecord,
			RecordMessage: &RecordMessage{
				EmittedAt: time.Now().UnixMilli(),
				Data:      s,
				Namespace: namespace,
				Stream:    stream,
			},
		})
	}
}
