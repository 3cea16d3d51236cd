package airbyte

type StateType string

const (
	StateTypeStream StateType = "STREAM"
	StateTypeGlobal StateType = "GLOBAL"
	StateTypeLegacy StateType = "LEGACY"
)

type StreamDescriptor struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

type StreamState struct {
	StreamDescriptor StreamDescriptor `json:"stream_descriptor"`
	StreamState      map[string]any   `json:"stream_state,omitempty"`
}

type GlobalState struct {
	SharedState  map[string]any `json:"shared_state,omitempty"`
	StreamStates []StreamState  `json:"stream_states,omitempty"`
}

// StateMessage is used to store data between syncs - useful for incremental syncs and state storage
type StateMessage struct {
	Type   StateType      `json:"type,omitempty"`
	Stream *StreamState   `json:"stream,omitempty"`
	Global *GlobalState   `json:"global,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// NewStreamState creates per-stream state message
func NewStreamState(stream string, namespace string, state map[string]any) *StateMessage {
	return &StateMessage{
		Type: StateTypeStream,
		Stream: &StreamState{
			StreamDescriptor: StreamDescriptor{Name: stream, Namespace: namespace},
			StreamState:      state,
		},
	}
}

// ParseState parses sequence of raw state objects into state messages.
// Objects without type but with 'data' are treated as legacy state
func ParseState(raw []map[string]any) ([]StateMessage, error) {
	states := make([]StateMessage, 0, len(raw))
	for i, r := range raw {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, ProtocolError.Wrap(err, "failed to serialize state #%d", i)
		}
		var st StateMessage
		if err = json.Unmarshal(b, &st); err != nil {
			return nil, ProtocolError.Wrap(err, "failed to parse state #%d", i)
		}
		if st.Type == "" {
			if st.Data == nil {
				return nil, ProtocolError.New("state #%d has neither type nor data", i)
			}
			st.Type = StateTypeLegacy
		}
		switch st.Type {
		case StateTypeStream:
			if st.Stream == nil || st.Stream.StreamDescriptor.Name == "" {
				return nil, ProtocolError.New("stream state #%d has no stream descriptor", i)
			}
		case StateTypeGlobal:
			if st.Global == nil {
				return nil, ProtocolError.New("global state #%d has no 'global' object", i)
			}
		case StateTypeLegacy:
		default:
			return nil, ProtocolError.New("state #%d has unknown type: %s", i, st.Type)
		}
		states = append(states, st)
	}
	return states, nil
}

// StreamStateOf returns the latest state of the named stream from the sequence of state messages
func StreamStateOf(states []StateMessage, stream string) map[string]any {
	var res map[string]any
	for _, st := range states {
		switch st.Type {
		case StateTypeStream:
			if st.Stream.StreamDescriptor.Name == stream {
				res = st.Stream.StreamState
			}
		case StateTypeGlobal:
			for _, ss := range st.Global.StreamStates {
				if ss.StreamDescriptor.Name == stream {
					res = ss.StreamState
				}
			}
		case StateTypeLegacy:
			if s, ok := st.Data[stream].(map[string]any); ok {
				res = s
			}
		}
	}
	return res
}
