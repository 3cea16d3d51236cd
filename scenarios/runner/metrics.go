package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scenarioRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scenarios",
		Subsystem: "runner",
		Name:      "runs",
		Help:      "Scenario runs by outcome",
	}, []string{"status"})
	ScenarioRuns = func(status string) prometheus.Counter {
		return scenarioRuns.WithLabelValues(status)
	}

	stepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scenarios",
		Subsystem: "runner",
		Name:      "steps",
		Help:      "Scenario steps by step name and outcome",
	}, []string{"step", "status"})
	StepRuns = func(step, status string) prometheus.Counter {
		return stepRuns.WithLabelValues(step, status)
	}

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scenarios",
		Subsystem: "runner",
		Name:      "step_duration_seconds",
		Help:      "Scenario step duration by step name",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"step"})
	StepDuration = func(step string) prometheus.Observer {
		return stepDuration.WithLabelValues(step)
	}
)
