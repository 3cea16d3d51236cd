package main

import (
	"os"

	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk/declarative"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
)

// Runs declarative source described by yaml manifest at MANIFEST_PATH (default: manifest.yaml)
func main() {
	manifest, err := declarative.LoadManifestFile(utils.NvlString(os.Getenv("MANIFEST_PATH"), "manifest.yaml"))
	if err != nil {
		logging.Fatal(err)
	}
	runner := airbyte.NewSourceRunner(declarative.NewSource(manifest), os.Stdout)
	if err = runner.Start(); err != nil {
		logging.Fatal(err)
	}
}
