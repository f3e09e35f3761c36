// Package model defines the data entities shared by every pipeline stage:
// the mapping the orchestrator drives, the intermediate LLM-produced
// artifacts, and the three report shapes written at the end of a run.
package model

// ModuleMapping is an immutable pair of legacy and refactored file sets
// describing one unit of work. Created by the upstream planner; every
// pipeline component treats it as read-only.
type ModuleMapping struct {
	BeforeFiles []string `json:"before_files"`
	AfterFiles  []string `json:"after_files"`
}

// MockRecommendation names a seam the driver or test should stub and why.
type MockRecommendation struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// Guidance is produced once per legacy file and consumed by GoldenCapture
// and TestEmit. A zero-value Guidance (all slices nil, Degraded false) is
// a legitimate "nothing notable" result, not an error.
type Guidance struct {
	SideEffects         []string             `json:"side_effects"`
	MockRecommendations []MockRecommendation `json:"mock_recommendations"`
	NondeterminismNotes string               `json:"nondeterminism_notes,omitempty"`
	ExternalDeps        []string             `json:"external_deps"`

	// Degraded is set when the LLM call that should have produced this
	// Guidance failed and a neutral default was substituted instead.
	Degraded bool `json:"degraded,omitempty"`
}

// NeutralGuidance is the all-empty value substituted when the Guidance
// Generator's LLM call is unavailable; the pipeline continues with a
// degraded-but-usable record rather than aborting the mapping.
func NeutralGuidance() Guidance {
	return Guidance{Degraded: true}
}

// GoldenRecord is the captured behavior of one legacy file. Per the data
// model invariant, ExitCode == 0 implies Observations is non-nil; any
// other exit code implies Observations is nil.
type GoldenRecord struct {
	SourceFile      string                 `json:"source_file"`
	Observations    map[string]interface{} `json:"observations"`
	ExitCode        int                    `json:"exit_code"`
	StderrTrailer   string                 `json:"stderr_trailer,omitempty"`
	DurationMs      int64                  `json:"duration_ms"`
	CoveragePercent float64                `json:"coverage_pct"`

	// ScriptPath, LogPath, and CoverageDataPath are the on-disk locations
	// of the driver script, its combined stdout+stderr log, and its
	// coverage-data file, all set by GoldenCapture.
	ScriptPath       string `json:"script_path,omitempty"`
	LogPath          string `json:"log_path,omitempty"`
	CoverageDataPath string `json:"coverage_data_path,omitempty"`

	// NonCapturable is set when the driver script itself failed to
	// import/load (as opposed to a case inside it failing); TestEmit
	// must be skipped for this file when true.
	NonCapturable bool `json:"non_capturable,omitempty"`
}

// Success reports whether this capture produced a usable observation map.
func (g GoldenRecord) Success() bool {
	return g.ExitCode == 0 && g.Observations != nil
}

// EmittedTest is an LLM-generated test file in the target language.
type EmittedTest struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Content  string `json:"content"`

	// LogPath is the on-disk location of the test run's combined log,
	// set once TestRun has executed it.
	LogPath string `json:"log_path,omitempty"`
}

// TestItemStatus is one of the four statuses a runner can report for a
// single test case.
type TestItemStatus string

const (
	TestPassed  TestItemStatus = "passed"
	TestFailed  TestItemStatus = "failed"
	TestError   TestItemStatus = "error"
	TestSkipped TestItemStatus = "skipped"
)

// TestItem is a single test case result, derived from runner output.
type TestItem struct {
	Name   string         `json:"name"`
	Status TestItemStatus `json:"status"`
}

// TestResult aggregates the outcome of running one EmittedTest file.
// Total/Passed/Failed/Errored are always derived from Items, never from
// the runner's own summary line.
type TestResult struct {
	Total           int        `json:"total"`
	Passed          int        `json:"passed"`
	Failed          int        `json:"failed"`
	Errored         int        `json:"errored"`
	Items           []TestItem `json:"test_items"`
	CoveragePercent float64    `json:"coverage_pct"`
	StdoutTail      string     `json:"stdout_tail,omitempty"`
	StderrTail      string     `json:"stderr_tail,omitempty"`
	ExitCode        int        `json:"exit_code"`
}

// NewTestResultFromItems derives the count fields from items, following
// the "never trust the runner's own summary" rule from the runner/parser
// contract.
func NewTestResultFromItems(items []TestItem, coveragePct float64, stdoutTail, stderrTail string, exitCode int) TestResult {
	r := TestResult{
		Items:           items,
		CoveragePercent: coveragePct,
		StdoutTail:      stdoutTail,
		StderrTail:      stderrTail,
		ExitCode:        exitCode,
	}
	for _, it := range items {
		r.Total++
		switch it.Status {
		case TestPassed:
			r.Passed++
		case TestFailed:
			r.Failed++
		case TestError:
			r.Errored++
		}
	}
	return r
}

// RunnerFailureItem synthesizes the single TestItem used when a runner
// produced no parseable output at all, so a TestResult is never empty.
func RunnerFailureItem() TestItem {
	return TestItem{Name: "<runner_failure>", Status: TestError}
}

// UnmappedGoldenKeyItem synthesizes the skipped item used when the Test
// Emitter could not map an observation key to refactored code.
func UnmappedGoldenKeyItem(key string) TestItem {
	return TestItem{Name: "unmapped_golden_key_" + key, Status: TestSkipped}
}

// RiskSeverity is the severity scale used by Review risk warnings.
type RiskSeverity string

const (
	SeverityLow      RiskSeverity = "low"
	SeverityMedium   RiskSeverity = "medium"
	SeverityHigh     RiskSeverity = "high"
	SeverityCritical RiskSeverity = "critical"
)

// RiskWarning flags a risk the golden snapshot may not cover.
type RiskWarning struct {
	Description    string       `json:"description"`
	Severity       RiskSeverity `json:"severity"`
	TestedByGolden bool         `json:"tested_by_golden"`
}

// Review is the Review Generator's analytical output for one mapping.
// FailuresIgnorable is a recommendation to downstream deciders, not an
// authoritative verdict.
type Review struct {
	SemanticDiff      string        `json:"semantic_diff"`
	TestPurpose       string        `json:"test_purpose"`
	ResultAnalysis    string        `json:"result_analysis"`
	FailuresIgnorable bool          `json:"failures_ignorable"`
	IgnorableReason   string        `json:"ignorable_reason,omitempty"`
	RiskWarnings      []RiskWarning `json:"risk_warnings"`

	// Degraded mirrors Guidance.Degraded: set when the Review's own LLM
	// call failed and an empty Review was substituted.
	Degraded bool `json:"degraded,omitempty"`
}

// DegradedReview is substituted when the Review Generator's LLM call is
// unavailable; OverallAssessment at the RunReport level should note the
// degradation separately.
func DegradedReview() Review {
	return Review{
		SemanticDiff:   "review unavailable: LLM call failed",
		Degraded:       true,
		RiskWarnings:   nil,
	}
}

// MappingState is the per-mapping state machine the Orchestrator drives
// each ModuleMapping through.
type MappingState string

const (
	StatePending   MappingState = "PENDING"
	StateCapturing MappingState = "CAPTURING"
	StateEmitting  MappingState = "EMITTING"
	StateRunning   MappingState = "RUNNING"
	StateReviewing MappingState = "REVIEWING"
	StateDone      MappingState = "DONE"
	StateDegraded  MappingState = "DEGRADED"
	StateFailed    MappingState = "FAILED"
)

// ModuleRecord is the aggregate record for one mapping: the mapping
// itself, every GoldenRecord captured from its legacy files, the emitted
// test's metadata, the test result, and two derived lists.
type ModuleRecord struct {
	Mapping ModuleMapping `json:"mapping"`
	State   MappingState  `json:"state"`

	Golden      []GoldenRecord `json:"golden_records"`
	EmittedTest *EmittedTest   `json:"emitted_test,omitempty"`
	TestResult  *TestResult    `json:"test_result,omitempty"`

	// TestedFunctions is the union of observation-map keys across Golden.
	TestedFunctions []string `json:"tested_functions"`

	GoldenScriptPaths []string `json:"golden_script_paths"`
	TestFilePath      string   `json:"test_file_path,omitempty"`
}

// DerivedTestedFunctions computes the union of observation keys across
// every successful GoldenRecord in the mapping, in first-seen order.
func DerivedTestedFunctions(golden []GoldenRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range golden {
		for k := range g.Observations {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

// Summary is the machine-readable gate written to summary.json.
type Summary struct {
	RunID              string  `json:"run_id"`
	BuildSuccess       bool    `json:"build_success"`
	BuildError         string  `json:"build_error,omitempty"`
	OverallPassRate    float64 `json:"overall_pass_rate"`
	OverallCoveragePct float64 `json:"overall_coverage_pct"`
	TotalModules       int     `json:"total_modules"`
	TotalPassed        int     `json:"total_passed"`
	TotalFailed        int     `json:"total_failed"`
	TotalErrored       int     `json:"total_errored"`
}

// TestRecords is the evidence file written to test_records.json.
type TestRecords struct {
	RunID   string         `json:"run_id"`
	Modules []ModuleRecord `json:"modules"`
}

// ReviewRecords is the human-aimed analysis file written to review.json.
type ReviewRecords struct {
	RunID            string   `json:"run_id"`
	Modules          []Review `json:"modules"`
	OverallAssessment string  `json:"overall_assessment"`
}

// RunReport bundles the three output files produced by one orchestrator
// run, keyed by RunID.
type RunReport struct {
	Summary     Summary
	TestRecords TestRecords
	Reviews     ReviewRecords
}

// DependencyGraph is the externally supplied dep graph consumed by the
// Dependency Signature Resolver: nodes are files, edges are references.
type DependencyGraph struct {
	Nodes []DependencyNode `json:"nodes"`
	Edges []DependencyEdge `json:"edges"`
}

// DependencyNode describes one file in the dependency graph.
type DependencyNode struct {
	Path string `json:"path"`
	Lang string `json:"lang"`
	Ext  string `json:"ext"`
}

// DependencyEdge describes one reference between two files.
type DependencyEdge struct {
	Src  string `json:"src"`
	Dst  string `json:"dst"`
	Kind string `json:"kind"`
}
