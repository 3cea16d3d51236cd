package httpstream

import (
	"fmt"
	"time"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	"github.com/joomcode/errorx"
)

const defaultRequestTimeout = time.Minute

// StreamsFactory creates source streams for provided config
type StreamsFactory func(config airbyte.ConnectorConfig) ([]Stream, error)

// Source is airbyte.Source over http streams.
// Every stream returned by Streams is bound to the source's Dispatcher
type Source struct {
	specification *airbyte.ConnectorSpecification
	factory       StreamsFactory
	checkStreams  []string
	dispatcher    Dispatcher
}

// NewSource creates source sending requests over network.
// checkStreams are read during Check. When empty, the first stream is used
func NewSource(specification *airbyte.ConnectorSpecification, factory StreamsFactory, checkStreams ...string) *Source {
	return &Source{
		specification: specification,
		factory:       factory,
		checkStreams:  checkStreams,
		dispatcher:    NewNetworkDispatcher(defaultRequestTimeout),
	}
}

// WithDispatcher returns copy of the source bound to provided dispatcher
func (s *Source) WithDispatcher(dispatcher Dispatcher) *Source {
	c := *s
	c.checkStreams = append([]string(nil), s.checkStreams...)
	c.dispatcher = dispatcher
	return &c
}

func (s *Source) Dispatcher() Dispatcher {
	return s.dispatcher
}

// Streams enumerates streams bound to the source's dispatcher.
// Streams returned by the factory are never modified, so the factory may return cached streams
func (s *Source) Streams(config airbyte.ConnectorConfig) ([]Stream, error) {
	streams, err := s.factory(config)
	if err != nil {
		return nil, err
	}
	bound := make([]Stream, 0, len(streams))
	for _, stream := range streams {
		b, err := BindDispatcher(stream, s.dispatcher)
		if err != nil {
			return nil, err
		}
		bound = append(bound, b)
	}
	return bound, nil
}

// BindDispatcher returns shallow copy of the stream that sends requests with dispatcher
func BindDispatcher(stream Stream, dispatcher Dispatcher) (Stream, error) {
	switch st := stream.(type) {
	case *HttpStream:
		c := *st
		c.dispatcher = dispatcher
		return &c, nil
	case *DeclarativeStream:
		if st.Retriever == nil {
			return nil, UnsupportedStream.New("declarative stream %s has no retriever", st.StreamName)
		}
		c := *st
		r := *st.Retriever
		r.Dispatcher = dispatcher
		c.Retriever = &r
		return &c, nil
	default:
		return nil, UnsupportedStream.New("unexpected stream type %T: %s", stream, stream.Name())
	}
}

func (s *Source) Spec(logTracker airbyte.LogTracker) (*airbyte.ConnectorSpecification, error) {
	if s.specification != nil {
		return s.specification, nil
	}
	return &airbyte.ConnectorSpecification{
		SupportedDestinationSyncModes: []airbyte.DestinationSyncMode{airbyte.DestinationSyncModeAppend},
		ConnectionSpecification:       map[string]any{"type": "object", "properties": map[string]any{}},
	}, nil
}

func (s *Source) Check(config airbyte.ConnectorConfig, logTracker airbyte.LogTracker) (*airbyte.ConnectionStatus, error) {
	streams, err := s.Streams(config)
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 {
		return airbyte.FailedStatus("source has no streams"), nil
	}
	names := s.checkStreams
	if len(names) == 0 {
		names = []string{streams[0].Name()}
	}
	for _, name := range names {
		idx := utils.ArrayIndexOf(streams, func(st Stream) bool { return st.Name() == name })
		if idx < 0 {
			return nil, airbyte.ConfigValidationError.New("check stream %s is not defined", name)
		}
		if _, err = streams[idx].ReadRecords(); err != nil {
			_ = logTracker.Log(airbyte.LogLevelError, fmt.Sprintf("check of stream %s failed: %v", name, err))
			return airbyte.FailedStatus(fmt.Sprintf("Unable to connect to stream %s - %v", name, err)), nil
		}
	}
	return airbyte.SucceededStatus(), nil
}

func (s *Source) Discover(config airbyte.ConnectorConfig, logTracker airbyte.LogTracker) (*airbyte.Catalog, error) {
	streams, err := s.Streams(config)
	if err != nil {
		return nil, err
	}
	return &airbyte.Catalog{Streams: utils.ArrayMap(streams, Stream.Describe)}, nil
}

func (s *Source) Read(config airbyte.ConnectorConfig, state []airbyte.StateMessage, configuredCat *airbyte.ConfiguredCatalog,
	tracker airbyte.MessageTracker) error {
	streams, err := s.Streams(config)
	if err != nil {
		return err
	}
	if configuredCat == nil {
		return airbyte.ConfigValidationError.New("configured catalog is required")
	}
	for _, cs := range configuredCat.Streams {
		idx := utils.ArrayIndexOf(streams, func(st Stream) bool { return st.Name() == cs.Stream.Name })
		if idx < 0 {
			return airbyte.ConfigValidationError.New("The stream %s in your connection configuration was not found in the source.", cs.Stream.Name)
		}
		stream := streams[idx]
		_ = tracker.Log(airbyte.LogLevelInfo, fmt.Sprintf("Syncing stream: %s", stream.Name()))
		records, err := stream.ReadRecords()
		if err != nil {
			return errorx.Decorate(err, "stream %s", stream.Name())
		}
		for _, record := range records {
			if err = tracker.Record(record, stream.Name(), cs.Stream.Namespace); err != nil {
				return err
			}
		}
		_ = tracker.Log(airbyte.LogLevelInfo, fmt.Sprintf("Read %d records from %s stream", len(records), stream.Name()))
	}
	return nil
}
