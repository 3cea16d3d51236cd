package app

import (
	"sort"
	"time"

	"github.com/jitsucom/airbyte-scenarios/jitsubase/appbase"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	"github.com/jitsucom/airbyte-scenarios/scenario-runner/metrics"
	"github.com/jitsucom/airbyte-scenarios/scenarios/loader"
)

// Scenarios is a snapshot of scenario definitions loaded from the scenarios directory
type Scenarios struct {
	definitions []*loader.Definition
	byName      map[string]*loader.Definition
	hashes      map[string]string
}

func (s *Scenarios) All() []*loader.Definition {
	return s.definitions
}

func (s *Scenarios) Get(name string) (*loader.Definition, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// Hash of definition content
func (s *Scenarios) Hash(name string) string {
	return s.hashes[name]
}

// ScenarioInfo is a public description of loaded scenario
type ScenarioInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
	Hash        string `json:"hash"`
}

func (s *Scenarios) Infos() []ScenarioInfo {
	return utils.ArrayMap(s.definitions, func(d *loader.Definition) ScenarioInfo {
		return ScenarioInfo{Name: d.Name, Description: d.Description, Path: d.Path, Hash: s.hashes[d.Name]}
	})
}

// loadScenarios is a repository loader. Tag is a hash of all definition hashes
func loadScenarios(dir string) (*Scenarios, string, error) {
	definitions, err := loader.LoadDir(dir)
	if err != nil {
		metrics.Reloads("error").Inc()
		return nil, "", err
	}
	sort.Slice(definitions, func(i, j int) bool { return definitions[i].Name < definitions[j].Name })
	s := &Scenarios{
		definitions: definitions,
		byName:      make(map[string]*loader.Definition, len(definitions)),
		hashes:      make(map[string]string, len(definitions)),
	}
	for _, d := range definitions {
		hash, err := d.Hash()
		if err != nil {
			metrics.Reloads("error").Inc()
			return nil, "", err
		}
		s.byName[d.Name] = d
		s.hashes[d.Name] = hash
	}
	tag, err := utils.HashAnyString(s.hashes)
	if err != nil {
		return nil, "", err
	}
	metrics.Reloads("success").Inc()
	metrics.ScenariosLoaded.Set(float64(len(definitions)))
	return s, tag, nil
}

func NewScenariosRepository(config *Config, watch bool) (*appbase.DirRepository[Scenarios], error) {
	debounce := time.Duration(0)
	if watch {
		debounce = time.Duration(config.WatchDebounceMs) * time.Millisecond
	}
	return appbase.NewDirRepository[Scenarios]("scenarios", config.ScenariosPath, loadScenarios, debounce)
}
