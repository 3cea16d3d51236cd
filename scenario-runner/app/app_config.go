package app

import (
	"github.com/jitsucom/airbyte-scenarios/jitsubase/appbase"
)

// Config is a struct for scenario runner configuration
// It is loaded from `scenario-runner.env` config file or environment variables.
//
// Environment variables requires prefix `SCENARIO_RUNNER_`
type Config struct {
	appbase.Config `mapstructure:",squash"`

	// ScenariosPath directory with scenario definitions (.hjson, .json, .yaml, .yml)
	ScenariosPath string `mapstructure:"SCENARIOS_PATH" default:"scenarios"`
	// WatchDebounceMs scenarios are reloaded after files in ScenariosPath stay unchanged for this period.
	// 0 disables watching
	WatchDebounceMs int `mapstructure:"WATCH_DEBOUNCE_MS" default:"500"`

	// # RESULTS LOG

	// ResultsLogDir directory for results of scenario runs in json lines format. Results are not logged if empty
	ResultsLogDir        string `mapstructure:"RESULTS_LOG_DIR"`
	ResultsLogMaxSizeMb  int    `mapstructure:"RESULTS_LOG_MAX_SIZE_MB" default:"100"`
	ResultsLogMaxBackups int    `mapstructure:"RESULTS_LOG_MAX_BACKUPS" default:"10"`

	// MetricsPort port for prometheus metrics endpoint
	MetricsPort int `mapstructure:"METRICS_PORT" default:"9091"`
}

func (c *Config) PostInit(settings *appbase.AppSettings) error {
	return c.Config.PostInit(settings)
}
