package filebased

import (
	"strings"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, parser FileTypeParser, format FormatConfig, content string) []map[string]any {
	var records []map[string]any
	err := parser.ParseRecords(format, strings.NewReader(content), func(record map[string]any) error {
		records = append(records, record)
		return nil
	})
	require.NoError(t, err)
	return records
}

func TestCSVParser(t *testing.T) {
	require := require.New(t)
	parser := &CSVParser{}

	records := collect(t, parser, FormatConfig{Delimiter: ";", NullValues: []string{"NA"}}, "id;name\n1;a\n2;NA\n")
	require.Equal([]map[string]any{{"id": "1", "name": "a"}, {"id": "2", "name": nil}}, records)

	records = collect(t, parser, FormatConfig{SkipRowsBeforeHeader: 2}, "garbage\nmore garbage\nid,name\n1,a\n")
	require.Equal([]map[string]any{{"id": "1", "name": "a"}}, records)

	records = collect(t, parser, FormatConfig{AutogenerateColumnNames: true}, "1,a\n2,b\n")
	require.Equal([]map[string]any{{"f0": "1", "f1": "a"}, {"f0": "2", "f1": "b"}}, records)

	schema, err := parser.InferSchema(FormatConfig{}, strings.NewReader("id,name\n1,a\n"))
	require.NoError(err)
	require.Equal(map[string]string{"id": "string", "name": "string"}, schema)

	err = parser.ParseRecords(FormatConfig{}, strings.NewReader("id,name\n1,a,extra\n"), func(map[string]any) error { return nil })
	require.True(errorx.IsOfType(err, RecordParseError))
	require.Contains(err.Error(), "row #1")

	err = parser.ParseRecords(FormatConfig{}, strings.NewReader("id,id\n1,2\n"), func(map[string]any) error { return nil })
	require.True(errorx.IsOfType(err, RecordParseError))
}

func TestJSONLParser(t *testing.T) {
	require := require.New(t)
	parser := &JSONLParser{}

	records := collect(t, parser, FormatConfig{}, "{\"id\":1}\n\n{\"id\":2.5,\"tags\":[\"a\"]}\n")
	require.Len(records, 2)

	schema, err := parser.InferSchema(FormatConfig{}, strings.NewReader("{\"id\":1,\"n\":null}\n{\"id\":2.5,\"flag\":true}\n"))
	require.NoError(err)
	require.Equal(map[string]string{"id": "number", "n": "null", "flag": "boolean"}, schema)

	_, err = parser.InferSchema(FormatConfig{}, strings.NewReader("{\"v\":1}\n{\"v\":{\"nested\":true}}\n"))
	require.True(errorx.IsOfType(err, SchemaInferenceError))

	err = parser.ParseRecords(FormatConfig{}, strings.NewReader("{\"id\":1}\nnot json\n"), func(map[string]any) error { return nil })
	require.True(errorx.IsOfType(err, RecordParseError))
	require.Contains(err.Error(), "line 2")
}

func TestMergeType(t *testing.T) {
	require := require.New(t)

	cases := []struct{ a, b, want string }{
		{"", "integer", "integer"},
		{"null", "string", "string"},
		{"integer", "number", "number"},
		{"boolean", "integer", "integer"},
		{"number", "string", "string"},
		{"object", "object", "object"},
	}
	for _, c := range cases {
		got, err := mergeType(c.a, c.b)
		require.NoError(err)
		require.Equal(c.want, got, "%s + %s", c.a, c.b)
	}
	_, err := mergeType("array", "string")
	require.Error(err)
}

func TestConformsToSchema(t *testing.T) {
	require := require.New(t)

	schema := map[string]any{"properties": map[string]any{
		"id":   map[string]any{"type": "number"},
		"name": map[string]any{"type": []any{"null", "string"}},
	}}
	require.True(conformsToSchema(map[string]any{"id": 1, "name": "x"}, schema))
	require.True(conformsToSchema(map[string]any{"id": nil}, schema))
	require.False(conformsToSchema(map[string]any{"id": "1"}, schema))
	require.False(conformsToSchema(map[string]any{"other": 1}, schema))
}
