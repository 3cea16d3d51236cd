package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UnknownScenario label value for requests to scenarios that aren't loaded
const UnknownScenario = "unknown"

var (
	reloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scenario_runner",
		Subsystem: "repository",
		Name:      "reloads",
		Help:      "Scenario definitions reloads by status",
	}, []string{"status"})
	Reloads = func(status string) prometheus.Counter {
		return reloads.WithLabelValues(status)
	}

	ScenariosLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scenario_runner",
		Subsystem: "repository",
		Name:      "scenarios",
		Help:      "Number of loaded scenario definitions",
	})

	runRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scenario_runner",
		Subsystem: "handler",
		Name:      "run",
		Help:      "Run handler requests by status",
	}, []string{"status"})
	RunRequests = func(status string) prometheus.Counter {
		return runRequests.WithLabelValues(status)
	}

	replayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scenario_runner",
		Subsystem: "handler",
		Name:      "replay",
		Help:      "Replayed requests by scenario and status",
	}, []string{"scenario", "status"})
	// ReplayRequests scenario label is UnknownScenario for names that aren't loaded
	ReplayRequests = func(scenario, status string) prometheus.Counter {
		return replayRequests.WithLabelValues(scenario, status)
	}

	resultsLogErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenario_runner",
		Subsystem: "results_log",
		Name:      "errors",
		Help:      "Errors writing results log",
	})
	ResultsLogErrors = func() prometheus.Counter {
		return resultsLogErrors
	}
)
