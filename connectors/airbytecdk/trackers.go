package airbyte

import (
	"io"
	"sync"
	"time"
)

// MessageTracker is used to encap State tracking, Record tracking and Log tracking
// It's thread safe
type MessageTracker struct {
	// State will save per-stream or global state message
	State StateWriter
	// Record will emit a record (data point) out to airbyte to sync with appropriate timestamps
	Record RecordWriter
	// Log logs out to airbyte
	Log LogWriter
}

// LogTracker is a single struct which holds a tracker which can be used for logs
type LogTracker struct {
	Log LogWriter
}

// NewMessageTracker creates tracker that writes protocol messages to w
func NewMessageTracker(w io.Writer) MessageTracker {
	w = newSafeWriter(w)
	return MessageTracker{
		Record: newRecordWriter(w),
		State:  newStateWriter(w),
		Log:    newLogWriter(w),
	}
}

// LogTracker returns LogTracker sharing the same log writer
func (mt MessageTracker) LogTracker() LogTracker {
	return LogTracker{Log: mt.Log}
}

// Collector accumulates messages emitted by a source in memory.
// Used to run sources in-process, e.g. in tests
type Collector struct {
	sync.Mutex
	records []RecordMessage
	states  []StateMessage
	logs    []LogMessage
}

func NewCollector() *Collector {
	return &Collector{}
}

// Tracker returns MessageTracker that writes into the collector
func (c *Collector) Tracker() MessageTracker {
	return MessageTracker{
		Record: func(v map[string]any, streamName string, namespace string) error {
			c.Lock()
			defer c.Unlock()
			c.records = append(c.records, RecordMessage{
				EmittedAt: time.Now().UnixMilli(),
				Data:      v,
				Namespace: namespace,
				Stream:    streamName,
			})
			return nil
		},
		State: func(s *StateMessage) error {
			c.Lock()
			defer c.Unlock()
			c.states = append(c.states, *s)
			return nil
		},
		Log: func(level LogLevel, s string) error {
			c.Lock()
			defer c.Unlock()
			c.logs = append(c.logs, LogMessage{Level: level, Message: s})
			return nil
		},
	}
}

func (c *Collector) LogTracker() LogTracker {
	return c.Tracker().LogTracker()
}

func (c *Collector) Records() []RecordMessage {
	c.Lock()
	defer c.Unlock()
	return append([]RecordMessage(nil), c.records...)
}

func (c *Collector) States() []StateMessage {
	c.Lock()
	defer c.Unlock()
	return append([]StateMessage(nil), c.states...)
}

func (c *Collector) Logs() []LogMessage {
	c.Lock()
	defer c.Unlock()
	return append([]LogMessage(nil), c.logs...)
}

// FinalStreamStates returns the last emitted state of every stream keyed by stream name
func (c *Collector) FinalStreamStates() map[string]any {
	c.Lock()
	defer c.Unlock()
	res := map[string]any{}
	for _, st := range c.states {
		switch st.Type {
		case StateTypeStream:
			res[st.Stream.StreamDescriptor.Name] = st.Stream.StreamState
		case StateTypeGlobal:
			for _, ss := range st.Global.StreamStates {
				res[ss.StreamDescriptor.Name] = ss.StreamState
			}
		default:
			for k, v := range st.Data {
				res[k] = v
			}
		}
	}
	return res
}
