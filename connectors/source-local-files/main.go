package main

import (
	"os"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/filebased"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
)

// Runs file based source over files under FILES_ROOT (default: current directory).
// FILE_TYPE sets the default format of streams that don't specify one
func main() {
	source := filebased.NewSource(filebased.Options{
		StreamReader: &filebased.LocalStreamReader{Root: utils.NvlString(os.Getenv("FILES_ROOT"), ".")},
		FileType:     utils.NvlString(os.Getenv("FILE_TYPE"), filebased.FileTypeCSV),
	})
	runner := airbyte.NewSourceRunner(source, os.Stdout)
	if err := runner.Start(); err != nil {
		logging.Fatal(err)
	}
}
