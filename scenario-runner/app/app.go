package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jitsucom/airbyte-scenarios/jitsubase/appbase"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
)

type Context struct {
	config         *Config
	repository     *appbase.DirRepository[Scenarios]
	resultsLogger  *ResultsLogger
	scenarioRunner *ScenarioRunner
	server         *http.Server
	metricsServer  *MetricsServer
}

func (a *Context) InitContext(settings *appbase.AppSettings) error {
	a.config = &Config{}
	if err := appbase.InitAppConfig(a.config, settings); err != nil {
		return err
	}
	return a.init(true)
}

func (a *Context) init(watch bool) error {
	var err error
	a.repository, err = NewScenariosRepository(a.config, watch)
	if err != nil {
		return err
	}
	logging.Infof("Loaded %d scenarios from %s", len(a.repository.GetData().All()), a.config.ScenariosPath)
	a.resultsLogger, err = NewResultsLogger(a.config)
	if err != nil {
		return err
	}
	a.scenarioRunner = NewScenarioRunner(a.repository, a.resultsLogger)
	if !watch {
		return nil
	}
	router := NewRouter(a)
	a.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", a.config.HTTPPort),
		Handler:     router.Engine(),
		ReadTimeout: time.Minute * 5,
		IdleTimeout: time.Minute * 5,
	}
	a.metricsServer = NewMetricsServer(a.config)
	return nil
}

func (a *Context) ShutdownSignal() error {
	logging.Infof("Shutting down http server...")
	_ = a.server.Shutdown(context.Background())
	return nil
}

func (a *Context) Cleanup() error {
	_ = a.repository.Close()
	_ = a.resultsLogger.Close()
	if a.metricsServer != nil {
		_ = a.metricsServer.Stop()
	}
	return nil
}

func (a *Context) Config() *Config {
	return a.config
}

func (a *Context) Server() *http.Server {
	return a.server
}
