package airbyte

import "github.com/joomcode/errorx"

var (
	Errors = errorx.NewNamespace("airbyte")

	// ConfigValidationError connector configuration is malformed or incomplete
	ConfigValidationError = Errors.NewType("config_validation")
	// ProtocolError message or state doesn't conform to the protocol
	ProtocolError = Errors.NewType("protocol")
	// HTTPError upstream api responded with non-successful status
	HTTPError = Errors.NewType("http")
)
