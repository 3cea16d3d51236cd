package runner

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	airbyte "github.com/jitsucom/airbyte-scenarios/connectors/airbytecdk"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/utils"
	"github.com/jitsucom/airbyte-scenarios/scenarios"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	StepCheck    = "check"
	StepDiscover = "discover"
	StepRead     = "read"

	statusPassed  = "passed"
	statusFailed  = "failed"
	statusSkipped = "skipped"
)

// StepResult records the outcome of a single operation of a scenario
type StepResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Skipped  bool          `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
	// Error is empty when passed
	Error string `json:"error,omitempty"`
}

// Result records the outcome of an entire scenario
type Result struct {
	RunID        string        `json:"runId"`
	ScenarioName string        `json:"scenario"`
	Passed       bool          `json:"passed"`
	Steps        []StepResult  `json:"steps"`
	Duration     time.Duration `json:"duration"`
	StartedAt    time.Time     `json:"startedAt"`
}

// Failures returns errors of failed steps prefixed with step name
func (r *Result) Failures() []string {
	var failures []string
	for _, s := range r.Steps {
		if !s.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", s.Name, s.Error))
		}
	}
	return failures
}

// Run executes check, discover and read of the scenario source and compares outcomes with expectations
func Run(ts *scenarios.TestScenario) *Result {
	start := time.Now()
	result := &Result{
		RunID:        uuid.NewString(),
		ScenarioName: ts.Name(),
		Passed:       true,
		StartedAt:    start,
	}
	for _, step := range []struct {
		name string
		fn   func(ts *scenarios.TestScenario) (bool, error)
	}{
		{StepCheck, verifyCheck},
		{StepDiscover, verifyDiscover},
		{StepRead, verifyRead},
	} {
		sr := runStep(ts, step.name, step.fn)
		result.Steps = append(result.Steps, sr)
		if !sr.Passed {
			result.Passed = false
		}
	}
	result.Duration = time.Since(start)
	ScenarioRuns(utils.Ternary(result.Passed, statusPassed, statusFailed)).Inc()
	if result.Passed {
		logging.Debugf("[%s] scenario passed in %s", ts.Name(), result.Duration)
	} else {
		logging.Warnf("[%s] scenario failed:\n%s", ts.Name(), strings.Join(result.Failures(), "\n"))
	}
	return result
}

func runStep(ts *scenarios.TestScenario, name string, fn func(ts *scenarios.TestScenario) (bool, error)) (sr StepResult) {
	start := time.Now()
	sr = StepResult{Name: name}
	defer func() {
		if r := recover(); r != nil {
			sr.Passed = false
			sr.Error = fmt.Sprintf("panic: %v", r)
		}
		sr.Duration = time.Since(start)
		StepDuration(name).Observe(sr.Duration.Seconds())
		status := statusFailed
		if sr.Skipped {
			status = statusSkipped
		} else if sr.Passed {
			status = statusPassed
		}
		StepRuns(name, status).Inc()
	}()
	ran, err := fn(ts)
	sr.Skipped = !ran
	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	sr.Passed = true
	return sr
}

// verifyError compares actual error of an operation with the expected one.
// done is true when the outcome was an error and further checks make no sense
func verifyError(op string, expected scenarios.ExpectedError, err error) (done bool, mismatch error) {
	if expected.IsSet() {
		if err == nil {
			return true, scenarios.ExpectationMismatch.New("%s: expected %s, got no error", op, expected)
		}
		if !expected.Matches(err) {
			return true, scenarios.ExpectationMismatch.New("%s: expected %s, got: %v", op, expected, err)
		}
		return true, nil
	}
	if err != nil {
		return true, scenarios.ExpectationMismatch.Wrap(err, "%s: unexpected error", op)
	}
	return false, nil
}

func verifyCheck(ts *scenarios.TestScenario) (bool, error) {
	if ts.ExpectedCheckStatus() == "" && !ts.ExpectedCheckError().IsSet() {
		return false, nil
	}
	collector := airbyte.NewCollector()
	status, err := ts.Source().Check(ts.Config(), collector.LogTracker())
	if done, mismatch := verifyError(StepCheck, ts.ExpectedCheckError(), err); done {
		return true, mismatch
	}
	if expected := ts.ExpectedCheckStatus(); expected != "" && (status == nil || status.Status != expected) {
		return true, scenarios.ExpectationMismatch.New("check: expected status %s, got: %+v", expected, status)
	}
	return true, nil
}

func verifyDiscover(ts *scenarios.TestScenario) (bool, error) {
	if ts.ExpectedCatalog() == nil && !ts.ExpectedDiscoverError().IsSet() {
		return false, nil
	}
	collector := airbyte.NewCollector()
	catalog, err := ts.Source().Discover(ts.Config(), collector.LogTracker())
	if done, mismatch := verifyError(StepDiscover, ts.ExpectedDiscoverError(), err); done {
		return true, mismatch
	}
	if diff := diffJSON(ts.ExpectedCatalog(), catalog); diff != "" {
		return true, scenarios.ExpectationMismatch.New("discover: catalog mismatch: %s", diff)
	}
	return true, nil
}

func verifyRead(ts *scenarios.TestScenario) (bool, error) {
	catalog := ts.ConfiguredCatalog(ts.SyncMode())
	if catalog == nil && !ts.ExpectedReadError().IsSet() {
		return false, nil
	}
	state, err := airbyte.ParseState(ts.InputState())
	if err != nil {
		return true, scenarios.ExpectationMismatch.Wrap(err, "read: invalid input state")
	}
	collector := airbyte.NewCollector()
	err = ts.Source().Read(ts.Config(), state, catalog, collector.Tracker())
	if done, mismatch := verifyError(StepRead, ts.ExpectedReadError(), err); done {
		return true, mismatch
	}

	var errs *multierror.Error
	actualRecords := make([]map[string]any, 0, len(collector.Records()))
	for _, r := range collector.Records() {
		actualRecords = append(actualRecords, map[string]any{"stream": r.Stream, "data": r.Data})
	}
	expectedRecords := make([]map[string]any, 0, len(ts.ExpectedRecords()))
	for _, r := range ts.ExpectedRecords() {
		expectedRecords = append(expectedRecords, map[string]any{"stream": r.Stream, "data": r.Data})
	}
	if diff := diffJSON(expectedRecords, actualRecords); diff != "" {
		errs = multierror.Append(errs, scenarios.ExpectationMismatch.New("read: records mismatch: %s", diff))
	}
	if err := verifyLogs(ts.ExpectedLogs(), collector.Logs()); err != nil {
		errs = multierror.Append(errs, err)
	}
	if inc := ts.IncrementalConfig(); inc != nil && inc.ExpectedOutputState != nil {
		if diff := diffJSON(inc.ExpectedOutputState, collector.FinalStreamStates()); diff != "" {
			errs = multierror.Append(errs, scenarios.ExpectationMismatch.New("read: output state mismatch: %s", diff))
		}
	}
	return true, errs.ErrorOrNil()
}

// verifyLogs checks that expected logs appear in actual logs in the same order.
// Levels must be equal, expected message must be a substring of actual one
func verifyLogs(expected, actual []airbyte.LogMessage) error {
	i := 0
	for _, a := range actual {
		if i == len(expected) {
			break
		}
		if a.Level == expected[i].Level && strings.Contains(a.Message, expected[i].Message) {
			i++
		}
	}
	if i < len(expected) {
		return scenarios.ExpectationMismatch.New("read: expected log %s %q wasn't found (%d of %d expected logs matched)",
			expected[i].Level, expected[i].Message, i, len(expected))
	}
	return nil
}

// diffJSON compares json representations of values. Returns empty string when they are equal
func diffJSON(expected, actual any) string {
	e, err := utils.NormalizeJSON(expected)
	if err != nil {
		return fmt.Sprintf("failed to normalize expected value: %v", err)
	}
	a, err := utils.NormalizeJSON(actual)
	if err != nil {
		return fmt.Sprintf("failed to normalize actual value: %v", err)
	}
	if reflect.DeepEqual(e, a) {
		return ""
	}
	ea, eok := e.([]any)
	aa, aok := a.([]any)
	if eok && aok {
		if len(ea) != len(aa) {
			return fmt.Sprintf("expected %d items, got %d: %s", len(ea), len(aa), shortJSON(a))
		}
		for i := range ea {
			if !reflect.DeepEqual(ea[i], aa[i]) {
				return fmt.Sprintf("item #%d: expected %s, got %s", i, shortJSON(ea[i]), shortJSON(aa[i]))
			}
		}
	}
	return fmt.Sprintf("expected %s, got %s", shortJSON(e), shortJSON(a))
}

func shortJSON(v any) string {
	b, _ := json.Marshal(v)
	return utils.ShortenStringWithEllipsis(string(b), 1000)
}
