package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-runtests/types"
)

const (
	MetricsNamespace = "runtests"
)

var (
	Debug                bool = true
	validResults              = []types.Status{types.StatusPass, types.StatusFail, types.StatusSkip, types.StatusError}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	// Registry holds every op-runtests metric. It is kept apart from the
	// default registry so a textfile only carries run data.
	Registry = prometheus.NewRegistry()
	factory  = promauto.With(Registry)

	errorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	stepsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "steps_total",
		Help:      "Count of executed steps",
	}, []string{
		"kind",
		"name",
		"result",
	})

	stepDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "step_duration_seconds",
		Help:      "Duration of the last execution of a step",
	}, []string{
		"kind",
		"name",
	})

	runResult = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_result",
		Help:      "Result of a run",
	}, []string{
		"run_id",
		"result",
	})

	runDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a run",
	}, []string{
		"run_id",
	})

	lastRunTimestamp = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordStep(kind types.StepKind, name string, result types.Status, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordStep - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "steps_total",
			"kind", kind,
			"name", name,
			"result", result)
	}
	stepsTotal.WithLabelValues(kind.String(), name, string(result)).Inc()
	stepDuration.WithLabelValues(kind.String(), name).Set(duration.Seconds())
}

func RecordRun(runID string, result types.Status, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordRun - invalid result", "result", result)
		return
	}
	runResult.WithLabelValues(runID, string(result)).Set(1)
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
	lastRunTimestamp.SetToCurrentTime()
}

// WriteTextfile writes every metric in Registry to path in the Prometheus
// text format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func isValidResult(result types.Status) bool {
	return slices.Contains(validResults, result)
}
