package httpstream

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

type staticStream struct {
	name string
}

func (s staticStream) Name() string                           { return s.name }
func (s staticStream) Describe() airbyte.Stream               { return airbyte.Stream{Name: s.name} }
func (s staticStream) ReadRecords() ([]map[string]any, error) { return nil, nil }

func cannedDispatcher(status int, body string) (Dispatcher, *[]string) {
	var paths []string
	return DispatcherFunc(func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.RequestURI())
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{},
			Request:    req,
		}, nil
	}), &paths
}

func testSource() *Source {
	return NewSource(nil, func(config airbyte.ConnectorConfig) ([]Stream, error) {
		return []Stream{
			&HttpStream{StreamName: "users", URLBase: "https://api.example.com", Path: "/users",
				Params: map[string]string{"limit": "10"}},
			&DeclarativeStream{StreamName: "orders", Retriever: &SimpleRetriever{
				Requester:      &Requester{URLBase: "https://api.example.com/", Path: "orders", Authenticator: BearerAuthenticator{Token: "secret"}},
				RecordSelector: RecordSelector{FieldPath: []string{"data"}},
			}},
		}, nil
	})
}

func TestStreamsBindDispatcher(t *testing.T) {
	require := require.New(t)

	dispatcher, paths := cannedDispatcher(200, `{"data":[{"id":1},{"id":2}]}`)
	src := testSource().WithDispatcher(dispatcher)

	streams, err := src.Streams(airbyte.ConnectorConfig{})
	require.NoError(err)
	require.Len(streams, 2)

	records, err := streams[1].ReadRecords()
	require.NoError(err)
	require.Equal([]map[string]any{{"id": float64(1)}, {"id": float64(2)}}, records)
	require.Equal([]string{"/orders"}, *paths)

	//enumerating streams again binds dispatcher again
	streams, err = src.Streams(airbyte.ConnectorConfig{})
	require.NoError(err)
	records, err = streams[0].ReadRecords()
	require.NoError(err)
	require.Len(records, 1, "plain stream doesn't select 'data' and gets the whole object")
	require.Equal([]string{"/orders", "/users?limit=10"}, *paths)
}

func TestWithDispatcherKeepsOriginal(t *testing.T) {
	require := require.New(t)

	original := testSource()
	dispatcher, _ := cannedDispatcher(200, `[]`)
	bound := original.WithDispatcher(dispatcher)

	require.IsType(&NetworkDispatcher{}, original.Dispatcher())
	require.NotSame(original, bound)
}

func TestSharedStreamsKeepOwnDispatchers(t *testing.T) {
	require := require.New(t)

	cached := []Stream{
		&HttpStream{StreamName: "users", URLBase: "https://api.example.com", Path: "/users"},
		&DeclarativeStream{StreamName: "orders", Retriever: &SimpleRetriever{
			Requester: &Requester{URLBase: "https://api.example.com", Path: "/orders"},
		}},
	}
	original := NewSource(nil, func(config airbyte.ConnectorConfig) ([]Stream, error) {
		return cached, nil
	})
	first, firstPaths := cannedDispatcher(200, `[]`)
	second, secondPaths := cannedDispatcher(200, `[]`)
	a, err := original.WithDispatcher(first).Streams(airbyte.ConnectorConfig{})
	require.NoError(err)
	b, err := original.WithDispatcher(second).Streams(airbyte.ConnectorConfig{})
	require.NoError(err)

	for _, st := range a {
		_, err = st.ReadRecords()
		require.NoError(err)
	}
	for _, st := range b {
		_, err = st.ReadRecords()
		require.NoError(err)
	}
	require.Equal([]string{"/users", "/orders"}, *firstPaths)
	require.Equal([]string{"/users", "/orders"}, *secondPaths)
	require.Nil(cached[0].(*HttpStream).dispatcher)
	require.Nil(cached[1].(*DeclarativeStream).Retriever.Dispatcher)
}

func TestUnsupportedStreamShape(t *testing.T) {
	require := require.New(t)

	src := NewSource(nil, func(config airbyte.ConnectorConfig) ([]Stream, error) {
		return []Stream{staticStream{name: "static"}}, nil
	})
	_, err := src.Streams(airbyte.ConnectorConfig{})
	require.Error(err)
	require.True(errorx.IsOfType(err, UnsupportedStream))
	require.Contains(err.Error(), "static")

	_, err = src.Discover(airbyte.ConnectorConfig{}, airbyte.NewCollector().LogTracker())
	require.True(errorx.IsOfType(err, UnsupportedStream))
}

func TestNetworkDispatcher(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"a"}]}`))
	}))
	defer server.Close()

	src := NewSource(nil, func(config airbyte.ConnectorConfig) ([]Stream, error) {
		return []Stream{&DeclarativeStream{StreamName: "items", Retriever: &SimpleRetriever{
			Requester:      &Requester{URLBase: server.URL, Path: "/items", Authenticator: BearerAuthenticator{Token: config["token"].(string)}},
			RecordSelector: RecordSelector{FieldPath: []string{"data"}},
		}}}, nil
	})

	collector := airbyte.NewCollector()
	status, err := src.Check(airbyte.ConnectorConfig{"token": "secret"}, collector.LogTracker())
	require.NoError(err)
	require.Equal(airbyte.CheckStatusSuccess, status.Status)

	status, err = src.Check(airbyte.ConnectorConfig{"token": "wrong"}, collector.LogTracker())
	require.NoError(err)
	require.Equal(airbyte.CheckStatusFailed, status.Status)
	require.Contains(status.Message, "401")

	catalog, err := src.Discover(airbyte.ConnectorConfig{"token": "secret"}, collector.LogTracker())
	require.NoError(err)
	err = src.Read(airbyte.ConnectorConfig{"token": "secret"}, nil, catalog.Configure(airbyte.SyncModeFullRefresh), collector.Tracker())
	require.NoError(err)
	require.Len(collector.Records(), 1)
	require.Equal("items", collector.Records()[0].Stream)
	require.Equal("a", collector.Records()[0].Data["id"])
}

func TestReadHTTPError(t *testing.T) {
	require := require.New(t)

	dispatcher, _ := cannedDispatcher(500, "boom")
	src := testSource().WithDispatcher(dispatcher)
	catalog := &airbyte.Catalog{Streams: []airbyte.Stream{{Name: "orders"}}}

	err := src.Read(airbyte.ConnectorConfig{}, nil, catalog.Configure(airbyte.SyncModeFullRefresh), airbyte.NewCollector().Tracker())
	require.Error(err)
	require.True(errorx.IsOfType(err, airbyte.HTTPError))
	require.Contains(err.Error(), "/orders")

	catalog = &airbyte.Catalog{Streams: []airbyte.Stream{{Name: "unknown"}}}
	err = src.Read(airbyte.ConnectorConfig{}, nil, catalog.Configure(airbyte.SyncModeFullRefresh), airbyte.NewCollector().Tracker())
	require.True(errorx.IsOfType(err, airbyte.ConfigValidationError))
}
