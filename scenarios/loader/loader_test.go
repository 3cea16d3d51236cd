package loader

import (
	"os"
	"path/filepath"
	"testing"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/filebased"
	"github.com/jitsucom/airbyte-scenarios/scenarios"
	"github.com/jitsucom/airbyte-scenarios/scenarios/runner"
	"github.com/stretchr/testify/require"
)

const csvDefinition = `{
  # single csv file
  name: csv_single_stream
  config: {
    streams: [{name: "stream1", globs: ["*"], validation_policy: "emit_record"}]
  }
  source: {
    file_type: csv
    files: {
      "a.csv": {
        contents: [["col1", "col2"], ["val11", "val12"]]
        last_modified: "2023-06-05T03:54:07Z"
      }
    }
  }
  expectations: {
    check_status: SUCCEEDED
    catalog: {
      streams: [{
        name: stream1
        json_schema: {
          type: object
          properties: {
            col1: {type: "string"}
            col2: {type: "string"}
            _ab_source_file_last_modified: {type: "string", format: "date-time"}
            _ab_source_file_url: {type: "string"}
          }
        }
        supported_sync_modes: ["full_refresh", "incremental"]
        source_defined_cursor: true
        default_cursor_field: ["_ab_source_file_last_modified"]
      }]
    }
    records: [{
      stream: stream1
      data: {col1: "val11", col2: "val12", _ab_source_file_last_modified: "2023-06-05T03:54:07.000000Z", _ab_source_file_url: "a.csv"}
    }]
    logs: [{level: "INFO", message: "Syncing stream: stream1"}]
  }
}`

const declarativeDefinition = `
name: declarative stations
config:
  api_key: k1
  streams:
    - name: stations
source:
  manifest:
    version: 0.1.0
    streams:
      - name: stations
        primary_key: id
        retriever:
          requester:
            url_base: https://api.example.com/v1
            path: /stations
            authenticator:
              type: BearerAuthenticator
              api_token: "{{ config.api_key }}"
          record_selector:
            extractor:
              field_path: [data]
  requests:
    - path: /v1/stations
      body: {data: [{id: s1}, {id: s2}]}
expectations:
  check_status: SUCCEEDED
  catalog:
    streams:
      - name: stations
        json_schema: {type: object, properties: {}}
        supported_sync_modes: [full_refresh]
        source_defined_primary_key: [[id]]
  records:
    - {stream: stations, data: {id: s1}}
    - {stream: stations, data: {id: s2}}
`

const unmockedDefinition = `
name: unmocked request
config:
  streams:
    - name: stations
source:
  manifest_path: manifest.yaml
expectations:
  check_status: FAILED
  catalog:
    streams:
      - name: stations
        json_schema: {type: object, properties: {}}
        supported_sync_modes: [full_refresh]
  read_error:
    type: scenarios.unexpected_request
    message: /v1/stations
`

const manifest = `
version: 0.1.0
streams:
  - name: stations
    retriever:
      requester:
        url_base: https://api.example.com/v1
        path: /stations
`

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	require := require.New(t)

	dir := writeFiles(t, map[string]string{
		"a_csv.hjson":       csvDefinition,
		"b_declarative.yml": declarativeDefinition,
		"manifest.txt":      manifest,
		"README.md":         "not a scenario",
	})
	require.NoError(os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	definitions, err := LoadDir(dir)
	require.NoError(err)
	require.Len(definitions, 2)
	require.Equal("csv_single_stream", definitions[0].Name)
	require.Equal(filepath.Join(dir, "a_csv.hjson"), definitions[0].Path)
	require.Equal("declarative stations", definitions[1].Name)

	for _, d := range definitions {
		b, err := d.Builder()
		require.NoError(err)
		result := runner.Run(b.MustBuild())
		require.True(result.Passed, "%s: %v", d.Name, result.Failures())
	}

	csvFile := definitions[0].Source.Files["a.csv"]
	require.Equal(2023, csvFile.LastModified.Year())
}

func TestManifestPathAndErrorTypes(t *testing.T) {
	require := require.New(t)

	dir := writeFiles(t, map[string]string{
		"scenario.yaml": unmockedDefinition,
		"manifest.yaml": manifest,
	})
	d, err := LoadFile(filepath.Join(dir, "scenario.yaml"))
	require.NoError(err)
	b, err := d.Builder()
	require.NoError(err)
	ts := b.MustBuild()
	require.Equal(scenarios.UnexpectedRequest, ts.ExpectedReadError().Type)
	require.Equal([]string{"stations"}, ts.ExpectedCatalog().StreamNames())

	result := runner.Run(ts)
	require.True(result.Passed, "%v", result.Failures())

	d.Expectations.ReadError.Type = "no.such_type"
	_, err = d.Builder()
	require.Error(err)
	require.Contains(err.Error(), "unknown error type: no.such_type")

	typ, ok := ErrorType(filebased.StopSync.FullName())
	require.True(ok)
	require.Same(filebased.StopSync, typ)
	_, ok = ErrorType(airbyte.ConfigValidationError.FullName())
	require.True(ok)
}

func TestLoadErrors(t *testing.T) {
	require := require.New(t)

	dir := writeFiles(t, map[string]string{"broken.json": "{name: "})
	_, err := LoadDir(dir)
	require.Error(err)
	require.Contains(err.Error(), "broken.json")

	dir = writeFiles(t, map[string]string{"noname.yaml": "config: {}"})
	_, err = LoadDir(dir)
	require.ErrorContains(err, "name is required")

	dir = writeFiles(t, map[string]string{"a.hjson": csvDefinition, "b.json": csvDefinition})
	_, err = LoadDir(dir)
	require.ErrorContains(err, "duplicate scenario name")

	_, err = LoadDir(filepath.Join(dir, "missing"))
	require.ErrorContains(err, "reading scenario directory")
}

func TestDefinitionHash(t *testing.T) {
	require := require.New(t)

	dir := writeFiles(t, map[string]string{"a.hjson": csvDefinition, "b.yml": declarativeDefinition})
	a, err := LoadFile(filepath.Join(dir, "a.hjson"))
	require.NoError(err)
	again, err := LoadFile(filepath.Join(dir, "a.hjson"))
	require.NoError(err)
	b, err := LoadFile(filepath.Join(dir, "b.yml"))
	require.NoError(err)

	ha, err := a.Hash()
	require.NoError(err)
	hAgain, _ := again.Hash()
	hb, _ := b.Hash()
	require.Equal(ha, hAgain)
	require.NotEqual(ha, hb)
}
