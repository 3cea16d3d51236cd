package airbyte

import (
	"io"
	"os"
)

// SourceRunner acts as an "orchestrator" of sorts to run your source for you
type SourceRunner struct {
	w          io.Writer
	src        Source
	msgTracker MessageTracker
}

// NewSourceRunner takes your defined Source and plugs it in with the rest of airbyte
func NewSourceRunner(src Source, w io.Writer) SourceRunner {
	w = newSafeWriter(w)
	return SourceRunner{
		w:          w,
		src:        src,
		msgTracker: NewMessageTracker(w),
	}
}

// Start starts your source with command line arguments of the process
// Example usage would look like this in your main.go
//
//	func() main {
//		src := newCoolSource()
//		runner := airbyte.NewSourceRunner(src, os.Stdout)
//		err := runner.Start()
//		if err != nil {
//			log.Fatal(err)
//		}
//	}
func (sr SourceRunner) Start() error {
	return sr.StartWithArgs(os.Args[1:])
}

// StartWithArgs runs command described by args, e.g.: read --config config.json --catalog catalog.json --state state.json
func (sr SourceRunner) StartWithArgs(args []string) error {
	ca, err := parseArgs(args)
	if err != nil {
		return err
	}
	logTracker := sr.msgTracker.LogTracker()
	switch ca.command {
	case cmdSpec:
		spec, err := sr.src.Spec(logTracker)
		if err != nil {
			_ = sr.msgTracker.Log(LogLevelError, "failed: "+err.Error())
			return err
		}
		return write(sr.w, &message{
			Type:                   msgTypeSpec,
			ConnectorSpecification: spec,
		})

	case cmdCheck:
		var config ConnectorConfig
		if err = UnmarshalFromPath(ca.configPath, &config); err != nil {
			return err
		}
		status, err := sr.src.Check(config, logTracker)
		if err != nil {
			_ = sr.msgTracker.Log(LogLevelError, err.Error())
			status = FailedStatus(err.Error())
		}
		return write(sr.w, &message{
			Type:             msgTypeConnectionStat,
			ConnectionStatus: status,
		})

	case cmdDiscover:
		var config ConnectorConfig
		if err = UnmarshalFromPath(ca.configPath, &config); err != nil {
			return err
		}
		ct, err := sr.src.Discover(config, logTracker)
		if err != nil {
			return err
		}
		return write(sr.w, &message{
			Type:    msgTypeCatalog,
			Catalog: ct,
		})

	case cmdRead:
		var config ConnectorConfig
		if err = UnmarshalFromPath(ca.configPath, &config); err != nil {
			return err
		}
		var incat ConfiguredCatalog
		if err = UnmarshalFromPath(ca.catalogPath, &incat); err != nil {
			return err
		}
		state, err := ReadStateFromPath(ca.statePath)
		if err != nil {
			return err
		}
		err = sr.src.Read(config, state, &incat, sr.msgTracker)
		if err != nil {
			_ = sr.msgTracker.Log(LogLevelError, "read failed: "+err.Error())
			return err
		}
	}

	return nil
}
