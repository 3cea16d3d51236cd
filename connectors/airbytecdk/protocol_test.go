package airbyte

import (
	"bytes"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

func TestMessageMarshalValidation(t *testing.T) {
	require := require.New(t)

	_, err := json.Marshal(&message{Type: msgTypeRecord, LogMessage: &LogMessage{Level: LogLevelInfo}})
	require.Error(err)

	_, err = json.Marshal(&message{Type: msgTypeRecord,
		RecordMessage: &RecordMessage{Stream: "s"}, LogMessage: &LogMessage{Level: LogLevelInfo}})
	require.Error(err)

	var buf bytes.Buffer
	err = write(&buf, &message{Type: msgTypeLog, LogMessage: &LogMessage{Level: LogLevelWarn, Message: "hello"}})
	require.NoError(err)
	require.JSONEq(`{"type":"LOG","log":{"level":"WARN","message":"hello"}}`, buf.String())
}

func TestCatalogConfigure(t *testing.T) {
	require := require.New(t)

	var empty *Catalog
	require.Nil(empty.Configure(SyncModeFullRefresh))
	configuredEmpty := (&Catalog{}).Configure(SyncModeFullRefresh)
	require.NotNil(configuredEmpty)
	require.Empty(configuredEmpty.Streams)

	catalog := &Catalog{Streams: []Stream{{Name: "a"}, {Name: "b", Namespace: "ns"}}}
	configured := catalog.Configure(SyncModeIncremental)
	require.Len(configured.Streams, 2)
	for _, cs := range configured.Streams {
		require.Equal(SyncModeIncremental, cs.SyncMode)
		require.Equal(DestinationSyncModeAppend, cs.DestinationSyncMode)
	}
	cs, ok := configured.Stream("b")
	require.True(ok)
	require.Equal("ns", cs.Stream.Namespace)
	_, ok = configured.Stream("c")
	require.False(ok)
	require.Equal([]string{"a", "b"}, catalog.StreamNames())
}

func TestParseState(t *testing.T) {
	require := require.New(t)

	states, err := ParseState([]map[string]any{
		{"type": "STREAM", "stream": map[string]any{
			"stream_descriptor": map[string]any{"name": "users"},
			"stream_state":      map[string]any{"cursor": "a"},
		}},
		{"data": map[string]any{"orders": map[string]any{"cursor": "b"}}},
		{"type": "GLOBAL", "global": map[string]any{"stream_states": []any{
			map[string]any{"stream_descriptor": map[string]any{"name": "users"}, "stream_state": map[string]any{"cursor": "c"}},
		}}},
	})
	require.NoError(err)
	require.Len(states, 3)
	require.Equal(StateTypeLegacy, states[1].Type)
	require.Equal(map[string]any{"cursor": "c"}, StreamStateOf(states, "users"))
	require.Equal(map[string]any{"cursor": "b"}, StreamStateOf(states, "orders"))
	require.Nil(StreamStateOf(states, "unknown"))

	_, err = ParseState([]map[string]any{{"type": "STREAM"}})
	require.True(errorx.IsOfType(err, ProtocolError))
	_, err = ParseState([]map[string]any{{"foo": "bar"}})
	require.True(errorx.IsOfType(err, ProtocolError))
	_, err = ParseState([]map[string]any{{"type": "PARTIAL", "data": map[string]any{}}})
	require.ErrorContains(err, "unknown type")
}

func TestCollectorFinalStreamStates(t *testing.T) {
	require := require.New(t)

	c := NewCollector()
	tracker := c.Tracker()
	require.NoError(tracker.State(NewStreamState("users", "", map[string]any{"cursor": 1})))
	require.NoError(tracker.State(NewStreamState("users", "", map[string]any{"cursor": 2})))
	require.NoError(tracker.State(&StateMessage{Type: StateTypeLegacy, Data: map[string]any{"orders": "x"}}))
	require.NoError(tracker.Record(map[string]any{"id": 1}, "users", ""))
	require.NoError(tracker.Log(LogLevelInfo, "done"))

	require.Equal(map[string]any{"users": map[string]any{"cursor": 2}, "orders": "x"}, c.FinalStreamStates())
	require.Len(c.States(), 3)
	require.Len(c.Records(), 1)
	require.Equal([]LogMessage{{Level: LogLevelInfo, Message: "done"}}, c.Logs())
}
