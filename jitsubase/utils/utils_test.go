package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type streamConfig struct {
	Name  string         `mapstructure:"name"`
	Globs []string       `mapstructure:"globs"`
	Rest  map[string]any `mapstructure:",remain"`
}

func TestParseObject(t *testing.T) {
	require := require.New(t)

	var fromMap streamConfig
	require.NoError(ParseObject(map[string]any{"name": "stream1", "globs": []any{"*.csv"}, "format": "csv"}, &fromMap))
	require.Equal("stream1", fromMap.Name)
	require.Equal([]string{"*.csv"}, fromMap.Globs)
	require.Equal("csv", fromMap.Rest["format"])

	var fromYaml struct {
		Name string `yaml:"name"`
	}
	require.NoError(ParseObject("name: stream2", &fromYaml))
	require.Equal("stream2", fromYaml.Name)

	require.Error(ParseObject(42, &fromMap))
	require.Error(ParseObject("", &fromMap))
}

func TestUnmarshalDocument(t *testing.T) {
	require := require.New(t)

	doc, err := UnmarshalDocument("scenario.hjson", []byte("{\n name: csv_single_stream\n # comment\n streams: [1, 2]\n}"))
	require.NoError(err)
	require.Equal("csv_single_stream", doc["name"])

	doc, err = UnmarshalDocument("scenario.YAML", []byte("name: jsonl\n"))
	require.NoError(err)
	require.Equal("jsonl", doc["name"])

	_, err = UnmarshalDocument("scenario.txt", []byte("x"))
	require.Error(err)
}

func TestNormalizeJSON(t *testing.T) {
	require := require.New(t)

	a, err := NormalizeJSON(map[string]any{"id": 1, "tags": []string{"a"}})
	require.NoError(err)
	b, err := NormalizeJSON(map[string]any{"id": float64(1), "tags": []any{"a"}})
	require.NoError(err)
	require.Equal(a, b)
}

func TestHashAny(t *testing.T) {
	require := require.New(t)

	h1, err := HashAnyString(map[string]any{"a": 1, "b": []string{"x", "y"}})
	require.NoError(err)
	h2, err := HashAnyString(map[string]any{"b": []string{"x", "y"}, "a": 1})
	require.NoError(err)
	h3, err := HashAnyString(map[string]any{"a": 1, "b": []string{"y", "x"}})
	require.NoError(err)
	require.Equal(h1, h2)
	require.NotEqual(h1, h3)
}

func TestArrays(t *testing.T) {
	require := require.New(t)

	require.Equal([]string{"b", "a"}, ArrayDuplicates([]string{"a", "b", "b", "c", "a"}))
	require.Equal(2, ArrayIndexOf([]int{5, 6, 7}, func(i int) bool { return i == 7 }))
	require.Equal([]int{6}, ArrayFilter([]int{5, 6, 7}, func(i int) bool { return i%2 == 0 }))
	require.Equal("x", NvlString("", "x", "y"))
}
