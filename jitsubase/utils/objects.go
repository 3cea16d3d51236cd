package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/hjson/hjson-go/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseObject parses struct of any type from input object that can be:
//
// map, json/hjson string or yaml string,
//
// already struct of provided type or pointer to it
func ParseObject[K any](inputObject any, result *K) error {
	if result == nil {
		return fmt.Errorf("result variable must be an empty struct of desired type, got nil")
	}
	switch cfg := inputObject.(type) {
	case *K:
		*result = *cfg
	case K:
		*result = cfg
	case map[string]any:
		if err := DecodeMap(cfg, result); err != nil {
			return fmt.Errorf("failed to parse map as %T : %v", result, err)
		}
	case []byte:
		return parseBytes(cfg, result)
	case string:
		return parseBytes([]byte(cfg), result)
	default:
		return fmt.Errorf("can't parse object from type: %T", cfg)
	}
	return nil
}

func parseBytes[K any](cfg []byte, result *K) error {
	if len(cfg) == 0 {
		return fmt.Errorf("failed to parse. input data is empty")
	}
	if cfg[0] == '{' {
		if err := json.Unmarshal(cfg, result); err != nil {
			return fmt.Errorf("failed to parse json as %T : %v", result, err)
		}
	} else {
		if err := yaml.Unmarshal(cfg, result); err != nil {
			return fmt.Errorf("failed to parse yaml as %T : %v", result, err)
		}
	}
	return nil
}

// DecodeMap decodes generic map into struct using `mapstructure` tags.
// Unknown keys are collected into a field tagged `mapstructure:",remain"` when present.
func DecodeMap(input map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// UnmarshalDocument parses hjson (and thus json) or yaml document into generic map depending on file extension
func UnmarshalDocument(fileName string, payload []byte) (map[string]any, error) {
	res := map[string]any{}
	lower := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		if err := yaml.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to parse yaml %s: %v", fileName, err)
		}
	case strings.HasSuffix(lower, ".hjson"), strings.HasSuffix(lower, ".json"):
		if err := hjson.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("failed to parse hjson %s: %v", fileName, err)
		}
	default:
		return nil, fmt.Errorf("unsupported document type: %s", fileName)
	}
	return res, nil
}

// NormalizeJSON round-trips value through json so that values of different go types
// (int vs float64, typed structs vs maps) become comparable
func NormalizeJSON(value any) (any, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var res any
	if err = json.Unmarshal(b, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Nvl returns first not null object or pointer from varargs
//
// return nil if all passed arguments are nil
func Nvl[T comparable](args ...T) T {
	var empty T
	for _, str := range args {
		if str != empty {
			return str
		}
	}
	return empty
}

func Ternary[T any](cond bool, a T, b T) T {
	if cond {
		return a
	}
	return b
}
