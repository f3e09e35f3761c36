// Package ctmetrics records per-mapping duration, coverage, and pass-rate
// gauges on top of internal/metrics, and exposes a snapshot a CLI can print.
// This is ambient observability, not a pipeline feature: it has no bearing
// on report correctness and is safe to run with a NoopCollector.
package ctmetrics

import (
	"strconv"

	"github.com/phrazzld/ctgen/internal/metrics"
	"github.com/phrazzld/ctgen/internal/model"
)

// Recorder wraps a metrics.Collector with the gauges this pipeline cares
// about: mapping duration, coverage percentage, and pass rate.
type Recorder struct {
	collector metrics.Collector
}

// New wraps collector. A nil collector is replaced with a no-op one so
// callers never need a nil check.
func New(collector metrics.Collector) *Recorder {
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	return &Recorder{collector: collector}
}

// StartMapping returns a stop function that records the mapping's wall
// duration when called, labeled by mapping index.
func (r *Recorder) StartMapping(index int) func() {
	return r.collector.StartTimer("mapping.duration", "index", strconv.Itoa(index))
}

// RecordGoldenCoverage records the line-coverage percentage captured for
// one legacy file.
func (r *Recorder) RecordGoldenCoverage(sourceFile string, pct float64) {
	r.collector.SetGauge("mapping.golden_coverage_pct", pct, "file", sourceFile)
}

// RecordTestResult records a mapping's pass rate and refactored-file
// coverage once TestRun has completed.
func (r *Recorder) RecordTestResult(result model.TestResult) {
	if result.Total > 0 {
		r.collector.SetGauge("mapping.pass_rate", float64(result.Passed)/float64(result.Total))
	} else {
		r.collector.SetGauge("mapping.pass_rate", 0)
	}
	r.collector.SetGauge("mapping.test_coverage_pct", result.CoveragePercent)
}

// RecordMappingState increments a counter for the terminal state a
// mapping finished in (DONE, DEGRADED, or FAILED).
func (r *Recorder) RecordMappingState(state model.MappingState) {
	r.collector.IncrCounter("mapping.state", "state", string(state))
}

// Snapshot returns every metric recorded so far, for the CLI to print or
// export at the end of a run.
func (r *Recorder) Snapshot() []metrics.Metric {
	return r.collector.Metrics()
}

// Flush exports and clears the underlying collector's buffer.
func (r *Recorder) Flush() error {
	return r.collector.Flush()
}
