package declarative

import (
	"io"
	"net/http"
	"strings"
	"testing"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/httpstream"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

const testManifest = `
version: 0.1.0
check:
  stream_names: [stations]
spec:
  documentation_url: https://example.com/docs
  connection_specification:
    type: object
    required: [api_key]
    properties:
      api_key:
        type: string
        airbyte_secret: true
streams:
  - name: stations
    primary_key: id
    retriever:
      requester:
        url_base: https://api.example.com/v1
        path: /stations
        request_parameters:
          region: "{{ config['region'] }}"
        authenticator:
          type: ApiKeyAuthenticator
          header: X-Api-Key
          api_token: "{{ config.api_key }}"
      record_selector:
        extractor:
          field_path: [data]
  - name: measurements
    primary_key: [[station, id], [ts]]
    retriever:
      requester:
        url_base: https://api.example.com/v1
        path: /measurements
        authenticator:
          type: BearerAuthenticator
          api_token: "{{ config.api_key }}"
`

func TestLoadManifest(t *testing.T) {
	require := require.New(t)

	m, err := LoadManifest([]byte(testManifest))
	require.NoError(err)
	require.Equal("0.1.0", m.Version)
	require.Equal([]string{"stations"}, m.Check.StreamNames)
	require.Len(m.Streams, 2)
	require.Equal([]string{"data"}, m.Streams[0].Retriever.RecordSelector.Extractor.FieldPath)

	pk, err := primaryKey(m.Streams[1].PrimaryKey)
	require.NoError(err)
	require.Equal([][]string{{"station", "id"}, {"ts"}}, pk)
}

func TestManifestValidation(t *testing.T) {
	require := require.New(t)

	_, err := LoadManifest([]byte(`
check:
  stream_names: [missing]
streams:
  - name: a
    retriever:
      requester:
        authenticator:
          type: OAuthAuthenticator
  - name: a
    retriever:
      requester:
        url_base: https://api.example.com
`))
	require.Error(err)
	require.True(errorx.IsOfType(err, airbyte.ConfigValidationError))
	msg := err.Error()
	require.Contains(msg, "version is required")
	require.Contains(msg, "url_base is required")
	require.Contains(msg, "unknown authenticator type: OAuthAuthenticator")
	require.Contains(msg, "duplicate stream name: a")
	require.Contains(msg, "check stream missing is not defined")
}

func TestInterpolate(t *testing.T) {
	require := require.New(t)

	config := airbyte.ConnectorConfig{"region": "eu", "limit": 10}
	res, err := Interpolate(`/items?region={{ config['region'] }}&limit={{config.limit}}&r={{ config["region"] }}`, config)
	require.NoError(err)
	require.Equal("/items?region=eu&limit=10&r=eu", res)

	_, err = Interpolate("{{ config.token }}", config)
	require.True(errorx.IsOfType(err, airbyte.ConfigValidationError))
	require.Contains(err.Error(), "token")
}

func TestDeclarativeSource(t *testing.T) {
	require := require.New(t)

	m, err := LoadManifest([]byte(testManifest))
	require.NoError(err)

	var requests []*http.Request
	src := NewSource(m).WithDispatcher(httpstream.DispatcherFunc(func(req *http.Request) (*http.Response, error) {
		requests = append(requests, req)
		body := `[{"station":"s1","id":1,"ts":"2024-01-01"}]`
		if req.URL.Path == "/v1/stations" {
			body = `{"data":[{"id":"s1"},{"id":"s2"}]}`
		}
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
	}))

	collector := airbyte.NewCollector()
	spec, err := src.Spec(collector.LogTracker())
	require.NoError(err)
	require.Equal("https://example.com/docs", spec.DocumentationURL)

	_, err = src.Discover(airbyte.ConnectorConfig{}, collector.LogTracker())
	require.True(errorx.IsOfType(err, airbyte.ConfigValidationError))
	require.Contains(err.Error(), "api_key")

	config := airbyte.ConnectorConfig{"api_key": "k1", "region": "eu"}
	status, err := src.Check(config, collector.LogTracker())
	require.NoError(err)
	require.Equal(airbyte.CheckStatusSuccess, status.Status)
	require.Equal("/v1/stations?region=eu", requests[0].URL.RequestURI())
	require.Equal("k1", requests[0].Header.Get("X-Api-Key"))

	catalog, err := src.Discover(config, collector.LogTracker())
	require.NoError(err)
	require.Equal([]string{"stations", "measurements"}, catalog.StreamNames())
	require.Equal([][]string{{"id"}}, catalog.Streams[0].SourceDefinedPrimaryKey)

	err = src.Read(config, nil, catalog.Configure(airbyte.SyncModeFullRefresh), collector.Tracker())
	require.NoError(err)
	require.Len(collector.Records(), 3)
	require.Equal("Bearer k1", requests[len(requests)-1].Header.Get("Authorization"))
}
