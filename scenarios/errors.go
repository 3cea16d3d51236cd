package scenarios

import (
	"fmt"
	"strings"

	"github.com/joomcode/errorx"
)

var (
	Errors = errorx.NewNamespace("scenarios")

	// AssertionFailed scenario is malformed. It is a bug in the test itself
	AssertionFailed = Errors.NewType("assertion_failed")
	// ConfigurationError required builder setting is missing
	ConfigurationError = Errors.NewType("configuration")
	// UnexpectedRequest source sent request that is absent from the mock table
	UnexpectedRequest = Errors.NewType("unexpected_request")
	// ExpectationMismatch actual outcome of check, discover or read differs from the expected one
	ExpectationMismatch = Errors.NewType("expectation_mismatch")
)

// ExpectedError is an expected failure of an operation: error classification and message substring.
// Zero value means no error is expected
type ExpectedError struct {
	Type    *errorx.Type
	Message string
}

func (e ExpectedError) IsSet() bool {
	return e.Type != nil || e.Message != ""
}

// Matches reports whether err is of expected type and its message contains expected substring
func (e ExpectedError) Matches(err error) bool {
	if err == nil {
		return false
	}
	if e.Type != nil && !errorx.IsOfType(err, e.Type) {
		return false
	}
	return strings.Contains(err.Error(), e.Message)
}

func (e ExpectedError) String() string {
	if !e.IsSet() {
		return "no error"
	}
	typeName := "any error"
	if e.Type != nil {
		typeName = e.Type.FullName()
	}
	return fmt.Sprintf("%s containing %q", typeName, e.Message)
}
