package app

import (
	"io"
	"sync"
	"time"

	"github.com/jitsucom/airbyte-scenarios/jitsubase/appbase"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
	"github.com/jitsucom/airbyte-scenarios/scenario-runner/metrics"
	"github.com/jitsucom/airbyte-scenarios/scenarios/runner"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResultsLogger writes results of scenario runs to a rolling file as json lines
type ResultsLogger struct {
	appbase.Service
	sync.Mutex
	instanceId string
	writer     io.WriteCloser
}

type resultEntry struct {
	InstanceId string    `json:"instanceId"`
	Timestamp  time.Time `json:"timestamp"`
	Hash       string    `json:"hash,omitempty"`
	*runner.Result
}

// NewResultsLogger returns logger that discards results when RESULTS_LOG_DIR is not set
func NewResultsLogger(config *Config) (*ResultsLogger, error) {
	rl := &ResultsLogger{Service: appbase.NewServiceBase("results_logger"), instanceId: config.InstanceId}
	if config.ResultsLogDir == "" {
		return rl, nil
	}
	writer, err := logging.NewRollingWriter(logging.Config{
		FileName:   "results",
		FileDir:    config.ResultsLogDir,
		MaxSizeMB:  config.ResultsLogMaxSizeMb,
		MaxBackups: config.ResultsLogMaxBackups,
		Compress:   true,
	})
	if err != nil {
		return nil, rl.NewError("failed to create results log: %v", err)
	}
	rl.writer = writer
	rl.Infof("Writing results to %s", config.ResultsLogDir)
	return rl, nil
}

func (rl *ResultsLogger) Log(result *runner.Result, hash string) {
	if rl.writer == nil {
		return
	}
	line, err := json.Marshal(resultEntry{InstanceId: rl.instanceId, Timestamp: time.Now().UTC(), Hash: hash, Result: result})
	if err != nil {
		metrics.ResultsLogErrors().Inc()
		rl.Errorf("failed to marshal result of %s: %v", result.ScenarioName, err)
		return
	}
	rl.Lock()
	defer rl.Unlock()
	if _, err = rl.writer.Write(append(line, '\n')); err != nil {
		metrics.ResultsLogErrors().Inc()
		rl.Errorf("failed to write result of %s: %v", result.ScenarioName, err)
	}
}

func (rl *ResultsLogger) Close() error {
	if rl.writer == nil {
		return nil
	}
	return rl.writer.Close()
}
