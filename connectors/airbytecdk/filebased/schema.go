package filebased

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	LastModifiedField = "_ab_source_file_last_modified"
	FileURLField      = "_ab_source_file_url"

	// LastModifiedFormat format of LastModifiedField values and cursor
	LastModifiedFormat = "2006-01-02T15:04:05.000000Z"
)

// widening order of scalar json types
var typeRank = map[string]int{
	"null":    0,
	"boolean": 1,
	"integer": 2,
	"number":  3,
	"string":  4,
}

func valueType(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32:
		return floatType(float64(n))
	case float64:
		return floatType(n)
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "string"
	}
}

func floatType(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return "integer"
	}
	return "number"
}

// mergeType returns type wide enough for values of both types
func mergeType(a, b string) (string, error) {
	switch {
	case a == b, b == "":
		return a, nil
	case a == "":
		return b, nil
	case a == "null":
		return b, nil
	case b == "null":
		return a, nil
	}
	ra, okA := typeRank[a]
	rb, okB := typeRank[b]
	if !okA || !okB {
		return "", fmt.Errorf("types %s and %s are incompatible", a, b)
	}
	if ra > rb {
		return a, nil
	}
	return b, nil
}

func mergeRecordTypes(types map[string]string, record map[string]any) error {
	for k, v := range record {
		merged, err := mergeType(types[k], valueType(v))
		if err != nil {
			return SchemaInferenceError.New("field %s: %v", k, err)
		}
		types[k] = merged
	}
	return nil
}

func mergeSchemas(into, from map[string]string) error {
	for k, t := range from {
		merged, err := mergeType(into[k], t)
		if err != nil {
			return SchemaInferenceError.New("field %s: %v", k, err)
		}
		into[k] = merged
	}
	return nil
}

// toJSONSchema builds stream json schema from field types and adds file metadata fields
func toJSONSchema(fieldTypes map[string]string) map[string]any {
	fields := make([]string, 0, len(fieldTypes))
	for k := range fieldTypes {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	properties := make(map[string]any, len(fieldTypes)+2)
	for _, f := range fields {
		t := fieldTypes[f]
		if t == "null" {
			t = "string"
		}
		properties[f] = map[string]any{"type": t}
	}
	properties[LastModifiedField] = map[string]any{"type": "string", "format": "date-time"}
	properties[FileURLField] = map[string]any{"type": "string"}
	return map[string]any{"type": "object", "properties": properties}
}

// withFileFields adds metadata fields to user provided schema
func withFileFields(schema map[string]any) map[string]any {
	res := make(map[string]any, len(schema))
	for k, v := range schema {
		res[k] = v
	}
	props := map[string]any{}
	if p, ok := schema["properties"].(map[string]any); ok {
		for k, v := range p {
			props[k] = v
		}
	}
	props[LastModifiedField] = map[string]any{"type": "string", "format": "date-time"}
	props[FileURLField] = map[string]any{"type": "string"}
	res["properties"] = props
	if _, ok := res["type"]; !ok {
		res["type"] = "object"
	}
	return res
}

// conformsToSchema checks that record has only known properties with values of compatible type
func conformsToSchema(record map[string]any, schema map[string]any) bool {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return true
	}
	for k, v := range record {
		prop, ok := props[k].(map[string]any)
		if !ok {
			return false
		}
		if !typeAllowed(valueType(v), prop["type"]) {
			return false
		}
	}
	return true
}

func typeAllowed(actual string, declared any) bool {
	switch d := declared.(type) {
	case nil:
		return true
	case string:
		return actual == "null" || isWidening(actual, d)
	case []any:
		for _, t := range d {
			if s, ok := t.(string); ok && (actual == s || isWidening(actual, s)) {
				return true
			}
		}
		return false
	case []string:
		for _, s := range d {
			if actual == s || isWidening(actual, s) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// isWidening reports whether value of actual type fits into declared type
func isWidening(actual, declared string) bool {
	if actual == declared {
		return true
	}
	return actual == "integer" && declared == "number"
}

func formatLastModified(t time.Time) string {
	return t.UTC().Format(LastModifiedFormat)
}
