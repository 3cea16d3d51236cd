package main

import (
	"os"

	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
	"github.com/jitsucom/airbyte-scenarios/scenario-runner/app"
)

func main() {
	run := app.Run
	if len(os.Args) > 1 && os.Args[1] == "run" {
		run = app.RunOnce
	}
	if err := run(); err != nil {
		logging.Error(err)
		os.Exit(1)
	}
}
