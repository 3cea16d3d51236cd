package app

import (
	"fmt"
	"strings"

	"github.com/jitsucom/airbyte-scenarios/jitsubase/appbase"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
)

var Settings = &appbase.AppSettings{
	Name:       "scenario-runner",
	ConfigPath: ".",
	ConfigName: "scenario-runner",
	ConfigType: "env",
	EnvPrefix:  "SCENARIO_RUNNER",
}

// Run starts http server that serves scenarios until shutdown signal
func Run() error {
	application, err := appbase.NewApp[Config](&Context{}, Settings)
	if err != nil {
		return err
	}
	application.Run()
	return nil
}

// RunOnce runs all scenarios and returns error when any of them failed
func RunOnce() error {
	a := &Context{config: &Config{}}
	if err := appbase.InitAppConfig(a.config, Settings); err != nil {
		return err
	}
	if err := a.init(false); err != nil {
		return err
	}
	defer func() {
		_ = a.Cleanup()
	}()
	results := a.scenarioRunner.RunAll()
	failed := Failed(results)
	for _, r := range results {
		status := "PASSED"
		if !r.Passed {
			status = "FAILED"
		}
		logging.Infof("%s %s (%s)", status, r.ScenarioName, r.Duration)
	}
	if len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, r := range failed {
			details = append(details, fmt.Sprintf("%s:\n  %s", r.ScenarioName, strings.Join(r.Failures(), "\n  ")))
		}
		return fmt.Errorf("%d of %d scenarios failed:\n%s", len(failed), len(results), strings.Join(details, "\n"))
	}
	logging.Infof("All %d scenarios passed", len(results))
	return nil
}
