package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/filebased"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/httpstream"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/types"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	"github.com/jitsucom/airbyte-scenarios/scenarios"
	"github.com/joomcode/errorx"
)

var supportedExtensions = types.NewSet(".hjson", ".json", ".yaml", ".yml")

var (
	errorTypesMu sync.RWMutex
	errorTypes   = map[string]*errorx.Type{}
)

func init() {
	for _, t := range []*errorx.Type{
		airbyte.ConfigValidationError, airbyte.ProtocolError, airbyte.HTTPError,
		httpstream.UnsupportedStream, httpstream.DispatcherMissing, httpstream.ResponseParseError,
		filebased.ConfigValidationError, filebased.MissingParser, filebased.SchemaInferenceError,
		filebased.RecordParseError, filebased.StopSync, filebased.FileReadError,
		scenarios.AssertionFailed, scenarios.ConfigurationError, scenarios.UnexpectedRequest, scenarios.ExpectationMismatch,
	} {
		RegisterErrorType(t)
	}
}

// RegisterErrorType makes error type available to definitions by its full name
func RegisterErrorType(t *errorx.Type) {
	errorTypesMu.Lock()
	defer errorTypesMu.Unlock()
	errorTypes[t.FullName()] = t
}

func ErrorType(fullName string) (*errorx.Type, bool) {
	errorTypesMu.RLock()
	defer errorTypesMu.RUnlock()
	t, ok := errorTypes[fullName]
	return t, ok
}

// IsDefinitionFile reports whether file has one of supported extensions
func IsDefinitionFile(path string) bool {
	return supportedExtensions.Contains(strings.ToLower(filepath.Ext(path)))
}

// LoadFile parses scenario definition file
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	raw, err := utils.UnmarshalDocument(path, data)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	d, err := ParseDefinition(raw)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// LoadDir loads all definition files from a directory ordered by file name.
// Scenario names must be unique
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	names := types.NewSet[string]()
	var definitions []*Definition
	for _, entry := range entries {
		if entry.IsDir() || !IsDefinitionFile(entry.Name()) {
			continue
		}
		d, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if names.Contains(d.Name) {
			return nil, fmt.Errorf("duplicate scenario name %q in %s", d.Name, d.Path)
		}
		names.Put(d.Name)
		definitions = append(definitions, d)
	}
	return definitions, nil
}
