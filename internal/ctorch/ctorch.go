// Package ctorch implements the Orchestrator (spec §4.9): it owns the
// run directory, drives each ModuleMapping through Guidance →
// GoldenCapture → TestEmit → TestRun → Review in input order, and
// assembles the three report files. No single mapping's failure aborts
// the run; only an upfront build-check failure does (spec §7).
package ctorch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phrazzld/ctgen/internal/ctmetrics"
	"github.com/phrazzld/ctgen/internal/ctpath"
	"github.com/phrazzld/ctgen/internal/depsig"
	"github.com/phrazzld/ctgen/internal/golden"
	"github.com/phrazzld/ctgen/internal/guidance"
	"github.com/phrazzld/ctgen/internal/langplugin"
	"github.com/phrazzld/ctgen/internal/logutil"
	"github.com/phrazzld/ctgen/internal/model"
	"github.com/phrazzld/ctgen/internal/review"
	"github.com/phrazzld/ctgen/internal/testemit"
	"github.com/phrazzld/ctgen/internal/testrun"
)

// Completer is the narrow LLM-facing dependency every pipeline stage
// needs; satisfied by *llmadapter.Adapter in production.
type Completer interface {
	Complete(ctx context.Context, prompt string, schema json.RawMessage, maxTokens int) (json.RawMessage, error)
}

// RunStageTestRequest is the primary entry point's input (spec §6):
// `run_stage_test(run_id, repo_dir, refactored_repo_dir, stage_mappings,
// dep_graph, llm_client, artifacts_root, source_language,
// target_language)`.
type RunStageTestRequest struct {
	RunID             string
	RepoDir           string
	RefactoredRepoDir string
	Mappings          []model.ModuleMapping
	DepGraph          model.DependencyGraph
	ArtifactsRoot     string
	SourceLanguage    string
	TargetLanguage    string
}

// Orchestrator drives a single run end to end.
type Orchestrator struct {
	registry  *langplugin.Registry
	completer Completer
	logger    logutil.LoggerInterface
	metrics   *ctmetrics.Recorder
}

// New builds an Orchestrator. metrics may be nil (a no-op recorder is
// substituted).
func New(registry *langplugin.Registry, completer Completer, logger logutil.LoggerInterface, metrics *ctmetrics.Recorder) *Orchestrator {
	if metrics == nil {
		metrics = ctmetrics.New(nil)
	}
	return &Orchestrator{registry: registry, completer: completer, logger: logger, metrics: metrics}
}

// RunStageTest runs req.Mappings in input order, writes the three report
// files under req.ArtifactsRoot/req.RunID/, and returns the assembled
// RunReport. A build-check failure aborts processing of every mapping
// but still produces (empty) reports, per spec §7.
func (o *Orchestrator) RunStageTest(ctx context.Context, req RunStageTestRequest) (model.RunReport, error) {
	dirs := ctpath.NewRunDirs(req.ArtifactsRoot, req.RunID)
	for _, dir := range []string{dirs.Golden, dirs.Tests, dirs.Logs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return model.RunReport{}, fmt.Errorf("creating run directory %s: %w", dir, err)
		}
	}

	sourcePlugin, err := o.registry.Get(req.SourceLanguage)
	if err != nil {
		return model.RunReport{}, err
	}
	targetPlugin, err := o.registry.Get(req.TargetLanguage)
	if err != nil {
		return model.RunReport{}, err
	}

	summary := model.Summary{RunID: req.RunID, BuildSuccess: true}

	compileResult, err := targetPlugin.CompileCheck(ctx, req.RefactoredRepoDir)
	if err != nil {
		return model.RunReport{}, fmt.Errorf("compile check: %w", err)
	}
	if !compileResult.OK {
		summary.BuildSuccess = false
		summary.BuildError = compileResult.ErrorMessage
		buildErr := fmt.Errorf("%w: %s", model.ErrBuildCheckFailed, compileResult.ErrorMessage)
		o.logger.ErrorContext(ctx, "build check failed, aborting run: %v", buildErr)
		return o.finalize(dirs, summary, nil, nil, "build check failed: "+compileResult.ErrorMessage)
	}

	depResolver := depsig.New(req.DepGraph, req.RepoDir)

	var records []model.ModuleRecord
	var reviews []model.Review

	for _, mapping := range req.Mappings {
		stop := o.metrics.StartMapping(len(records))
		record, rev := o.runMapping(ctx, mapping, req, sourcePlugin, targetPlugin, depResolver, dirs)
		stop()
		o.metrics.RecordMappingState(record.State)
		records = append(records, record)
		reviews = append(reviews, rev)
	}

	overallAssessment := assessOverall(records)
	return o.finalize(dirs, aggregateSummary(req.RunID, records), records, reviews, overallAssessment)
}

// runMapping drives one mapping through every stage. It never returns an
// error: every failure mode degrades the mapping's state instead, per
// the "never abort the run" principle (spec §7).
func (o *Orchestrator) runMapping(ctx context.Context, mapping model.ModuleMapping, req RunStageTestRequest, sourcePlugin, targetPlugin langplugin.Plugin, depResolver *depsig.Resolver, dirs ctpath.RunDirs) (model.ModuleRecord, model.Review) {
	record := model.ModuleRecord{Mapping: mapping, State: model.StateCapturing}
	degraded := false

	var guides []model.Guidance

	for _, beforeFile := range mapping.BeforeFiles {
		content, err := os.ReadFile(filepath.Join(req.RepoDir, beforeFile))
		if err != nil {
			record.Golden = append(record.Golden, model.GoldenRecord{SourceFile: beforeFile, ExitCode: -2, NonCapturable: true})
			guides = append(guides, model.NeutralGuidance())
			degraded = true
			continue
		}

		deps := depResolver.Resolve(beforeFile)
		guide := guidance.Generate(ctx, o.completer, beforeFile, string(content), deps)
		if guide.Degraded {
			degraded = true
		}
		guides = append(guides, guide)

		scriptFilename := sourcePlugin.EmitScriptFilename(beforeFile)
		scriptPath := ctpath.GoldenScriptPath(dirs, scriptFilename)
		logPath := ctpath.GoldenLogPath(dirs, scriptPath)
		coveragePath := ctpath.GoldenCoveragePath(dirs, scriptPath)

		write := func(filename, source string) (string, error) {
			path, err := ctpath.GoldenDriverPath(dirs.Golden, filename)
			if err != nil {
				return "", err
			}
			return path, os.WriteFile(path, []byte(source), 0o644)
		}

		goldenRecord, err := golden.Capture(ctx, o.completer, sourcePlugin, write, req.RepoDir, beforeFile, string(content), deps, guide, logPath, coveragePath)
		switch {
		case err == nil:
			// capture succeeded outright
		case errors.Is(err, model.ErrScriptTimeout), errors.Is(err, model.ErrScriptExecutionFailed), errors.Is(err, model.ErrNonCapturable):
			o.logger.WarnContext(ctx, "golden capture degraded for %s: %v", beforeFile, err)
			degraded = true
		default:
			o.logger.ErrorContext(ctx, "golden capture failed for %s: %v", beforeFile, err)
			goldenRecord = model.GoldenRecord{SourceFile: beforeFile, ExitCode: -2}
			degraded = true
		}
		if !goldenRecord.Success() {
			degraded = true
		}
		record.Golden = append(record.Golden, goldenRecord)
		record.GoldenScriptPaths = append(record.GoldenScriptPaths, goldenRecord.ScriptPath)
		o.metrics.RecordGoldenCoverage(beforeFile, goldenRecord.CoveragePercent)
	}

	record.State = model.StateEmitting
	record.TestedFunctions = model.DerivedTestedFunctions(record.Golden)

	var testResult model.TestResult
	var rev model.Review

	primaryIdx := firstSuccessfulIndex(record.Golden)
	if primaryIdx == -1 {
		record.State = model.StateFailed
		testResult = model.NewTestResultFromItems([]model.TestItem{model.RunnerFailureItem()}, 0, "", "", -1)
		record.TestResult = &testResult
		rev = model.DegradedReview()
		return record, rev
	}
	primaryGolden := &record.Golden[primaryIdx]
	primaryGuide := guides[primaryIdx]

	refactoredContents := make(map[string]string)
	for _, afterFile := range mapping.AfterFiles {
		content, err := os.ReadFile(filepath.Join(req.RefactoredRepoDir, afterFile))
		if err == nil {
			refactoredContents[afterFile] = string(content)
		}
	}

	emittedFilename := targetPlugin.EmitTestFilename(mapping.AfterFiles[0])
	emitted, err := testemit.Emit(ctx, o.completer, refactoredContents, *primaryGolden, primaryGuide, req.TargetLanguage, emittedFilename)
	if err != nil {
		o.logger.ErrorContext(ctx, "test emission failed for %s: %v", emittedFilename, err)
		record.State = model.StateDegraded
		testResult = model.NewTestResultFromItems([]model.TestItem{model.RunnerFailureItem()}, 0, "", "", -1)
		record.TestResult = &testResult
		return record, model.DegradedReview()
	}

	unmapped := testemit.ParseUnmappedGoldenKeys(emitted.Content)
	if len(unmapped) > 0 {
		o.logger.WarnContext(ctx, "%v: %d key(s) in %s", model.ErrUnmappedGoldenKey, len(unmapped), emittedFilename)
	}

	testPath, err := ctpath.RefactoredTestPath(req.RefactoredRepoDir, emitted.Path)
	if err != nil {
		testPath = filepath.Join(req.RefactoredRepoDir, emittedFilename)
	}
	if err := os.WriteFile(testPath, []byte(emitted.Content), 0o644); err != nil {
		degraded = true
	}
	record.TestFilePath = testPath
	record.EmittedTest = &emitted

	// Archive a run-scoped copy of the emitted test alongside the other
	// report artifacts, since the refactored repo itself is transient.
	_ = os.WriteFile(ctpath.EmittedTestPath(dirs, emittedFilename), []byte(emitted.Content), 0o644)

	record.State = model.StateRunning
	logPath := ctpath.TestLogPath(dirs, testPath)
	testResult, err = testrun.Run(ctx, targetPlugin, testPath, req.RefactoredRepoDir, mapping.AfterFiles, logPath)
	if err != nil {
		if !errors.Is(err, model.ErrTestRunnerCrash) {
			testResult = model.NewTestResultFromItems([]model.TestItem{model.RunnerFailureItem()}, 0, "", "", -1)
		}
		o.logger.WarnContext(ctx, "test run degraded for %s: %v", testPath, err)
		degraded = true
	}
	if len(unmapped) > 0 {
		items := append(append([]model.TestItem{}, testResult.Items...), unmapped...)
		testResult = model.NewTestResultFromItems(items, testResult.CoveragePercent, testResult.StdoutTail, testResult.StderrTail, testResult.ExitCode)
	}
	record.TestResult = &testResult
	record.EmittedTest.LogPath = logPath
	o.metrics.RecordTestResult(testResult)

	record.State = model.StateReviewing
	var legacyContent, refactoredContent string
	if len(mapping.BeforeFiles) > 0 {
		if b, err := os.ReadFile(filepath.Join(req.RepoDir, mapping.BeforeFiles[0])); err == nil {
			legacyContent = string(b)
		}
	}
	if len(mapping.AfterFiles) > 0 {
		refactoredContent = refactoredContents[mapping.AfterFiles[0]]
	}
	rev = review.Generate(ctx, o.completer, legacyContent, refactoredContent, *primaryGolden, testResult)
	if rev.Degraded {
		degraded = true
	}

	if degraded {
		record.State = model.StateDegraded
	} else {
		record.State = model.StateDone
	}
	return record, rev
}

func firstSuccessfulIndex(golden []model.GoldenRecord) int {
	for i := range golden {
		if golden[i].Success() {
			return i
		}
	}
	return -1
}

// aggregateSummary computes the machine-readable gate: pass rate is
// total passed over total tests across every mapping (P1), 0 when the
// denominator is 0; coverage is the mean of per-mapping refactored-file
// coverage.
func aggregateSummary(runID string, records []model.ModuleRecord) model.Summary {
	s := model.Summary{RunID: runID, BuildSuccess: true, TotalModules: len(records)}

	var totalPassed, totalFailed, totalErrored, totalTests int
	var coverageSum float64
	var coverageCount int

	for _, r := range records {
		if r.TestResult != nil {
			totalPassed += r.TestResult.Passed
			totalFailed += r.TestResult.Failed
			totalErrored += r.TestResult.Errored
			totalTests += r.TestResult.Total
			coverageSum += r.TestResult.CoveragePercent
			coverageCount++
		}
	}

	s.TotalPassed = totalPassed
	s.TotalFailed = totalFailed
	s.TotalErrored = totalErrored
	if totalTests > 0 {
		s.OverallPassRate = float64(totalPassed) / float64(totalTests)
	}
	if coverageCount > 0 {
		s.OverallCoveragePct = coverageSum / float64(coverageCount)
	}
	return s
}

func assessOverall(records []model.ModuleRecord) string {
	var degraded, failed int
	for _, r := range records {
		switch r.State {
		case model.StateDegraded:
			degraded++
		case model.StateFailed:
			failed++
		}
	}
	if failed == 0 && degraded == 0 {
		return fmt.Sprintf("%d module(s) processed cleanly", len(records))
	}
	return fmt.Sprintf("%d module(s) processed: %d degraded, %d failed — see individual reviews for which LLM step was unavailable", len(records), degraded, failed)
}

// finalize writes the three report files atomically (temp file + rename)
// and returns the assembled RunReport.
func (o *Orchestrator) finalize(dirs ctpath.RunDirs, summary model.Summary, records []model.ModuleRecord, reviews []model.Review, overallAssessment string) (model.RunReport, error) {
	testRecords := model.TestRecords{RunID: summary.RunID, Modules: records}
	reviewRecords := model.ReviewRecords{RunID: summary.RunID, Modules: reviews, OverallAssessment: overallAssessment}

	if err := writeJSONAtomic(ctpath.SummaryPath(dirs), summary); err != nil {
		return model.RunReport{}, err
	}
	if err := writeJSONAtomic(ctpath.TestRecordsPath(dirs), testRecords); err != nil {
		return model.RunReport{}, err
	}
	if err := writeJSONAtomic(ctpath.ReviewPath(dirs), reviewRecords); err != nil {
		return model.RunReport{}, err
	}

	return model.RunReport{Summary: summary, TestRecords: testRecords, Reviews: reviewRecords}, nil
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmp, path, err)
	}
	return nil
}
