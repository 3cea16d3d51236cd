package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/appbase"
	"github.com/jitsucom/airbyte-scenarios/scenarios"
	"github.com/jitsucom/airbyte-scenarios/scenarios/loader"
	"github.com/jitsucom/airbyte-scenarios/scenarios/runner"
	"github.com/joomcode/errorx"
)

const stepBuild = "build"

var (
	Errors = errorx.NewNamespace("scenario_runner")

	ScenarioNotFound = Errors.NewType("scenario_not_found", errorx.NotFound())
)

// ScenarioRunner runs scenarios of the current repository snapshot
type ScenarioRunner struct {
	appbase.Service
	repository    appbase.Repository[Scenarios]
	resultsLogger *ResultsLogger
}

func NewScenarioRunner(repository appbase.Repository[Scenarios], resultsLogger *ResultsLogger) *ScenarioRunner {
	return &ScenarioRunner{
		Service:       appbase.NewServiceBase("scenario_runner"),
		repository:    repository,
		resultsLogger: resultsLogger,
	}
}

// RunAll runs every loaded scenario in name order
func (sr *ScenarioRunner) RunAll() []*runner.Result {
	snapshot := sr.repository.GetData()
	results := make([]*runner.Result, 0, len(snapshot.All()))
	for _, d := range snapshot.All() {
		results = append(results, sr.run(d, snapshot.Hash(d.Name)))
	}
	return results
}

func (sr *ScenarioRunner) Run(name string) (*runner.Result, error) {
	snapshot := sr.repository.GetData()
	d, ok := snapshot.Get(name)
	if !ok {
		return nil, ScenarioNotFound.New("scenario %s not found", name)
	}
	return sr.run(d, snapshot.Hash(name)), nil
}

func (sr *ScenarioRunner) run(d *loader.Definition, hash string) *runner.Result {
	var result *runner.Result
	ts, err := build(d)
	if err != nil {
		sr.Errorf("failed to build scenario %s: %v", d.Name, err)
		result = &runner.Result{
			RunID:        uuid.NewString(),
			ScenarioName: d.Name,
			StartedAt:    time.Now(),
			Steps:        []runner.StepResult{{Name: stepBuild, Error: err.Error()}},
		}
	} else {
		result = runner.Run(ts)
	}
	sr.resultsLogger.Log(result, hash)
	return result
}

func build(d *loader.Definition) (*scenarios.TestScenario, error) {
	builder, err := d.Builder()
	if err != nil {
		return nil, err
	}
	return builder.Build()
}

// Failed returns results of failed runs
func Failed(results []*runner.Result) []*runner.Result {
	var failed []*runner.Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
