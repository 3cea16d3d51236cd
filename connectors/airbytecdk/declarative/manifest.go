package declarative

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	"gopkg.in/yaml.v3"
)

const (
	BearerAuthenticatorType = "BearerAuthenticator"
	ApiKeyAuthenticatorType = "ApiKeyAuthenticator"
)

// Manifest describes manifest-only connector: streams of a single http api
type Manifest struct {
	Version string             `mapstructure:"version"`
	Check   CheckDefinition    `mapstructure:"check"`
	Spec    *SpecDefinition    `mapstructure:"spec"`
	Streams []StreamDefinition `mapstructure:"streams"`
}

type CheckDefinition struct {
	StreamNames []string `mapstructure:"stream_names"`
}

type SpecDefinition struct {
	DocumentationURL        string         `mapstructure:"documentation_url"`
	ConnectionSpecification map[string]any `mapstructure:"connection_specification"`
}

type StreamDefinition struct {
	Name       string              `mapstructure:"name"`
	PrimaryKey any                 `mapstructure:"primary_key"`
	Schema     map[string]any      `mapstructure:"schema"`
	Retriever  RetrieverDefinition `mapstructure:"retriever"`
}

type RetrieverDefinition struct {
	Requester      RequesterDefinition      `mapstructure:"requester"`
	RecordSelector RecordSelectorDefinition `mapstructure:"record_selector"`
}

type RequesterDefinition struct {
	URLBase           string                   `mapstructure:"url_base"`
	Path              string                   `mapstructure:"path"`
	HTTPMethod        string                   `mapstructure:"http_method"`
	RequestParameters map[string]string        `mapstructure:"request_parameters"`
	RequestHeaders    map[string]string        `mapstructure:"request_headers"`
	Authenticator     *AuthenticatorDefinition `mapstructure:"authenticator"`
}

type AuthenticatorDefinition struct {
	Type     string `mapstructure:"type"`
	APIToken string `mapstructure:"api_token"`
	Header   string `mapstructure:"header"`
}

type RecordSelectorDefinition struct {
	Extractor struct {
		FieldPath []string `mapstructure:"field_path"`
	} `mapstructure:"extractor"`
}

// LoadManifest parses yaml manifest and validates it
func LoadManifest(payload []byte) (*Manifest, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(payload, &raw); err != nil {
		return nil, airbyte.ConfigValidationError.Wrap(err, "failed to parse manifest")
	}
	return ManifestFromMap(raw)
}

// LoadManifestFile reads manifest from yaml file
func LoadManifestFile(path string) (*Manifest, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest %s: %w", path, err)
	}
	return LoadManifest(payload)
}

// ManifestFromMap decodes already parsed manifest document
func ManifestFromMap(raw map[string]any) (*Manifest, error) {
	m := &Manifest{}
	if err := utils.DecodeMap(raw, m); err != nil {
		return nil, airbyte.ConfigValidationError.Wrap(err, "failed to decode manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) Validate() error {
	var errs *multierror.Error
	if m.Version == "" {
		errs = multierror.Append(errs, fmt.Errorf("version is required"))
	}
	if len(m.Streams) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("at least one stream is required"))
	}
	names := make([]string, 0, len(m.Streams))
	for i, s := range m.Streams {
		if s.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("stream #%d: name is required", i))
		}
		names = append(names, s.Name)
		if s.Retriever.Requester.URLBase == "" {
			errs = multierror.Append(errs, fmt.Errorf("stream %s: requester.url_base is required", s.Name))
		}
		if a := s.Retriever.Requester.Authenticator; a != nil {
			switch a.Type {
			case BearerAuthenticatorType:
			case ApiKeyAuthenticatorType:
				if a.Header == "" {
					errs = multierror.Append(errs, fmt.Errorf("stream %s: %s requires header", s.Name, a.Type))
				}
			default:
				errs = multierror.Append(errs, fmt.Errorf("stream %s: unknown authenticator type: %s", s.Name, a.Type))
			}
		}
		if _, err := primaryKey(s.PrimaryKey); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("stream %s: %v", s.Name, err))
		}
	}
	for _, dup := range utils.ArrayDuplicates(names) {
		errs = multierror.Append(errs, fmt.Errorf("duplicate stream name: %s", dup))
	}
	for _, name := range m.Check.StreamNames {
		if !utils.ArrayContains(names, name) {
			errs = multierror.Append(errs, fmt.Errorf("check stream %s is not defined", name))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return airbyte.ConfigValidationError.Wrap(err, "invalid manifest")
	}
	return nil
}

// primaryKey normalizes 'id', ['id', 'ts'] or [['id'], ['nested', 'ts']] into list of field paths
func primaryKey(raw any) ([][]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return [][]string{{v}}, nil
	case []string:
		return utils.ArrayMap(v, func(s string) []string { return []string{s} }), nil
	case []any:
		res := make([][]string, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				res = append(res, []string{it})
			case []any:
				path := make([]string, 0, len(it))
				for _, p := range it {
					s, ok := p.(string)
					if !ok {
						return nil, fmt.Errorf("primary_key path element must be string, got %T", p)
					}
					path = append(path, s)
				}
				res = append(res, path)
			default:
				return nil, fmt.Errorf("unsupported primary_key element type %T", item)
			}
		}
		return res, nil
	default:
		return nil, fmt.Errorf("unsupported primary_key type %T", raw)
	}
}
