package airbyte

import (
	"fmt"
	"os"
	"strings"
)

type cmdArgs struct {
	command     cmd
	configPath  string
	catalogPath string
	statePath   string
}

func parseArgs(args []string) (*cmdArgs, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("expect one of commands: spec, check, discover, read")
	}
	ca := &cmdArgs{command: cmd(args[0])}
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		flag := rest[i]
		if !strings.HasPrefix(flag, "--") {
			return nil, fmt.Errorf("unexpected argument: %s", flag)
		}
		if i+1 >= len(rest) {
			return nil, fmt.Errorf("expect value for %s", flag)
		}
		value := rest[i+1]
		i++
		switch flag {
		case "--config":
			ca.configPath = value
		case "--catalog":
			ca.catalogPath = value
		case "--state":
			ca.statePath = value
		default:
			return nil, fmt.Errorf("unknown flag: %s", flag)
		}
	}
	switch ca.command {
	case cmdSpec:
	case cmdCheck, cmdDiscover:
		if ca.configPath == "" {
			return nil, fmt.Errorf("expect --config")
		}
	case cmdRead:
		if ca.configPath == "" {
			return nil, fmt.Errorf("expect --config")
		}
		if ca.catalogPath == "" {
			return nil, fmt.Errorf("expect --catalog")
		}
	default:
		return nil, fmt.Errorf("unknown command: %s", ca.command)
	}
	return ca, nil
}

// UnmarshalFromPath is used to unmarshal json files into respective struct's
// this is most commonly used to unmarshal your State between runs and also unmarshal SourceConfig's
func UnmarshalFromPath(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, v)
}

// ReadStateFromPath reads state file. File may contain array of state messages or a single legacy state object.
// Empty path means no state
func ReadStateFromPath(path string) ([]StateMessage, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return nil, nil
	}
	var raw []map[string]any
	if strings.HasPrefix(trimmed, "[") {
		if err = json.Unmarshal(b, &raw); err != nil {
			return nil, ProtocolError.Wrap(err, "failed to parse state file %s", path)
		}
	} else {
		var legacy map[string]any
		if err = json.Unmarshal(b, &legacy); err != nil {
			return nil, ProtocolError.Wrap(err, "failed to parse state file %s", path)
		}
		raw = []map[string]any{{"data": legacy}}
	}
	return ParseState(raw)
}
