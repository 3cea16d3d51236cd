package declarative

import (
	"fmt"
	"regexp"
	"strings"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/httpstream"
)

// matches {{ config.key }}, {{ config['key'] }} and {{ config["key"] }}
var configRefRegex = regexp.MustCompile(`\{\{\s*config(?:\.([A-Za-z0-9_]+)|\['([^']+)'\]|\["([^"]+)"\])\s*\}\}`)

// NewSource creates http source which streams are described by manifest
func NewSource(m *Manifest) *httpstream.Source {
	return httpstream.NewSource(specification(m), func(config airbyte.ConnectorConfig) ([]httpstream.Stream, error) {
		return buildStreams(m, config)
	}, m.Check.StreamNames...)
}

func specification(m *Manifest) *airbyte.ConnectorSpecification {
	spec := &airbyte.ConnectorSpecification{
		SupportedDestinationSyncModes: []airbyte.DestinationSyncMode{airbyte.DestinationSyncModeOverwrite, airbyte.DestinationSyncModeAppend},
		ConnectionSpecification:       map[string]any{"type": "object", "properties": map[string]any{}},
	}
	if m.Spec != nil {
		spec.DocumentationURL = m.Spec.DocumentationURL
		if m.Spec.ConnectionSpecification != nil {
			spec.ConnectionSpecification = m.Spec.ConnectionSpecification
		}
	}
	return spec
}

func buildStreams(m *Manifest, config airbyte.ConnectorConfig) ([]httpstream.Stream, error) {
	if err := validateRequired(m, config); err != nil {
		return nil, err
	}
	streams := make([]httpstream.Stream, 0, len(m.Streams))
	for _, sd := range m.Streams {
		rd := sd.Retriever.Requester
		urlBase, err := Interpolate(rd.URLBase, config)
		if err != nil {
			return nil, err
		}
		path, err := Interpolate(rd.Path, config)
		if err != nil {
			return nil, err
		}
		params, err := interpolateMap(rd.RequestParameters, config)
		if err != nil {
			return nil, err
		}
		headers, err := interpolateMap(rd.RequestHeaders, config)
		if err != nil {
			return nil, err
		}
		requester := &httpstream.Requester{
			URLBase:           urlBase,
			Path:              path,
			Method:            rd.HTTPMethod,
			RequestParameters: params,
			RequestHeaders:    headers,
		}
		if rd.Authenticator != nil {
			token, err := Interpolate(rd.Authenticator.APIToken, config)
			if err != nil {
				return nil, err
			}
			switch rd.Authenticator.Type {
			case BearerAuthenticatorType:
				requester.Authenticator = httpstream.BearerAuthenticator{Token: token}
			case ApiKeyAuthenticatorType:
				requester.Authenticator = httpstream.ApiKeyAuthenticator{Header: rd.Authenticator.Header, Token: token}
			}
		}
		pk, _ := primaryKey(sd.PrimaryKey)
		streams = append(streams, &httpstream.DeclarativeStream{
			StreamName: sd.Name,
			Schema:     sd.Schema,
			PrimaryKey: pk,
			Retriever: &httpstream.SimpleRetriever{
				Requester:      requester,
				RecordSelector: httpstream.RecordSelector{FieldPath: sd.Retriever.RecordSelector.Extractor.FieldPath},
			},
		})
	}
	return streams, nil
}

// validateRequired checks that config contains properties listed in 'required' of connection specification
func validateRequired(m *Manifest, config airbyte.ConnectorConfig) error {
	if m.Spec == nil {
		return nil
	}
	required, _ := m.Spec.ConnectionSpecification["required"].([]any)
	var missing []string
	for _, r := range required {
		key := fmt.Sprint(r)
		if v, ok := config[key]; !ok || v == nil || v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return airbyte.ConfigValidationError.New("config is missing required properties: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Interpolate replaces config references in template with config values
func Interpolate(template string, config airbyte.ConnectorConfig) (string, error) {
	var err error
	res := configRefRegex.ReplaceAllStringFunc(template, func(ref string) string {
		groups := configRefRegex.FindStringSubmatch(ref)
		key := groups[1] + groups[2] + groups[3]
		value, ok := config[key]
		if !ok || value == nil {
			if err == nil {
				err = airbyte.ConfigValidationError.New("config value '%s' referenced in '%s' is not set", key, template)
			}
			return ""
		}
		return fmt.Sprint(value)
	})
	if err != nil {
		return "", err
	}
	return res, nil
}

func interpolateMap(m map[string]string, config airbyte.ConnectorConfig) (map[string]string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	res := make(map[string]string, len(m))
	for k, v := range m {
		iv, err := Interpolate(v, config)
		if err != nil {
			return nil, err
		}
		res[k] = iv
	}
	return res, nil
}
