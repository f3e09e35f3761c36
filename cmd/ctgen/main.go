// Package main provides the command-line entry point for the
// characterization test generator (spec §6): given a mapping file
// describing legacy-to-refactored file pairs, it drives one run of the
// Orchestrator and prints a ToolResult JSON document to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/phrazzld/ctgen/internal/auditlog"
	"github.com/phrazzld/ctgen/internal/ctconfig"
	"github.com/phrazzld/ctgen/internal/ctorch"
	"github.com/phrazzld/ctgen/internal/langplugin/builtin"
	"github.com/phrazzld/ctgen/internal/llm"
	"github.com/phrazzld/ctgen/internal/llmadapter"
	"github.com/phrazzld/ctgen/internal/logutil"
	"github.com/phrazzld/ctgen/internal/model"
	"github.com/phrazzld/ctgen/internal/ratelimit"
	"github.com/phrazzld/ctgen/internal/registry"
	"github.com/phrazzld/ctgen/internal/runid"
	"github.com/phrazzld/ctgen/internal/version"
)

// Exit codes per the entry point's contract (spec §6).
const (
	ExitCodeSuccess          = 0
	ExitCodeGenericError     = 1
	ExitCodeMappingFileError = 2
	ExitCodeBuildCheckFailed = 3
	ExitCodeLLMUnavailable   = 4
)

func main() {
	mappingPath := flag.String("mapping-file", "", "path to the mapping file describing legacy-to-refactored file pairs")
	artifactsRoot := flag.String("artifacts-root", "./ctgen-runs", "directory under which run artifacts are written")
	runID := flag.String("run-id", "", "identifier for this run (generated if omitted)")
	modelName := flag.String("model", "", "registered model name to use for every LLM call in this run")
	maxConcurrent := flag.Int("max-concurrent", 4, "maximum concurrent LLM calls")
	ratePerMinute := flag.Int("rate-per-minute", 60, "maximum LLM calls per minute")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(ExitCodeSuccess)
	}

	ctx := context.Background()
	logger := logutil.NewSlogLoggerFromLogLevel(os.Stderr, logutil.InfoLevel)

	result, exitCode := run(ctx, logger, runOptions{
		mappingPath:   *mappingPath,
		artifactsRoot: *artifactsRoot,
		runID:         *runID,
		modelName:     *modelName,
		maxConcurrent: *maxConcurrent,
		ratePerMinute: *ratePerMinute,
	})

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encoding result: %v\n", err)
		os.Exit(ExitCodeGenericError)
	}
	fmt.Println(string(encoded))
	os.Exit(exitCode)
}

type runOptions struct {
	mappingPath   string
	artifactsRoot string
	runID         string
	modelName     string
	maxConcurrent int
	ratePerMinute int
}

// run performs the whole pipeline and returns the ToolResult plus the
// process exit code to use. It never calls os.Exit itself, so tests can
// drive it directly.
func run(ctx context.Context, logger logutil.LoggerInterface, opts runOptions) (ctconfig.ToolResult, int) {
	if opts.mappingPath == "" {
		return failure("mapping-file is required"), ExitCodeMappingFileError
	}

	mf, err := ctconfig.LoadMappingFile(opts.mappingPath)
	if err != nil {
		return failure(sanitizeErrorMessage(err.Error())), ExitCodeMappingFileError
	}

	var depGraph model.DependencyGraph
	if mf.DepGraphPath != "" {
		depGraph, err = ctconfig.LoadDependencyGraph(mf.DepGraphPath)
		if err != nil {
			return failure(sanitizeErrorMessage(err.Error())), ExitCodeMappingFileError
		}
	}

	credentialsPath, err := ctconfig.CredentialsFilePath()
	if err != nil {
		return failure(sanitizeErrorMessage(err.Error())), ExitCodeGenericError
	}
	apiKey, err := os.ReadFile(credentialsPath)
	if err != nil {
		return failure(sanitizeErrorMessage(err.Error())), ExitCodeGenericError
	}

	manager := registry.NewManager(logger)
	if err := manager.Initialize(); err != nil {
		return failure(sanitizeErrorMessage(err.Error())), ExitCodeGenericError
	}

	client, err := manager.GetRegistry().CreateLLMClient(ctx, string(apiKey), opts.modelName)
	if err != nil {
		return failure(sanitizeErrorMessage(err.Error())), exitCodeForError(err)
	}
	defer func() { _ = client.Close() }()

	limiter := ratelimit.NewRateLimiter(opts.maxConcurrent, opts.ratePerMinute)
	adapter := llmadapter.New(client, limiter, opts.modelName)

	id := opts.runID
	if id == "" {
		id = runid.Generate()
	}
	runDir := opts.artifactsRoot + "/" + id
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return failure(sanitizeErrorMessage(err.Error())), ExitCodeGenericError
	}

	auditLogger, err := auditlog.NewFileAuditLogger(runDir+"/audit.jsonl", logger)
	if err != nil {
		auditLogger = nil
	}
	var audit auditlog.AuditLogger = auditlog.NewNoOpAuditLogger()
	if auditLogger != nil {
		audit = auditLogger
		defer func() { _ = auditLogger.Close() }()
	}

	mappings, err := mf.ResolveModuleMappings()
	if err != nil {
		return failure(sanitizeErrorMessage(err.Error())), ExitCodeMappingFileError
	}

	orch := ctorch.New(builtin.NewDefaultRegistry(), adapter, logger, nil)
	report, err := orch.RunStageTest(ctx, ctorch.RunStageTestRequest{
		RunID:             id,
		RepoDir:           mf.RepoDir,
		RefactoredRepoDir: mf.RefactoredRepoDir,
		Mappings:          mappings,
		DepGraph:          depGraph,
		ArtifactsRoot:     opts.artifactsRoot,
		SourceLanguage:    mf.SourceLanguage,
		TargetLanguage:    mf.TargetLanguage,
	})
	if err != nil {
		_ = audit.LogOp(ctx, "run_stage_test", "Failure", map[string]interface{}{"run_id": id}, nil, err)
		return failure(sanitizeErrorMessage(err.Error())), exitCodeForError(err)
	}

	toolResult := ctconfig.ToolResult{
		OK:              report.Summary.BuildSuccess,
		TestResultDir:   runDir,
		SummaryPath:     runDir + "/summary.json",
		TestRecordsPath: runDir + "/test_records.json",
		ReviewPath:      runDir + "/review.json",
	}
	if !report.Summary.BuildSuccess {
		toolResult.Error = report.Summary.BuildError
		_ = audit.LogOp(ctx, "run_stage_test", "Failure", map[string]interface{}{"run_id": id}, nil, fmt.Errorf("%s", report.Summary.BuildError))
		return toolResult, ExitCodeBuildCheckFailed
	}
	_ = audit.LogOp(ctx, "run_stage_test", "Success", map[string]interface{}{"run_id": id}, map[string]interface{}{
		"overall_pass_rate": report.Summary.OverallPassRate,
		"total_modules":     report.Summary.TotalModules,
	}, nil)
	return toolResult, ExitCodeSuccess
}

func exitCodeForError(err error) int {
	if catErr, ok := llm.IsCategorizedError(err); ok && catErr.Category() == llm.CategoryRateLimit {
		return ExitCodeLLMUnavailable
	}
	return ExitCodeGenericError
}

func failure(reason string) ctconfig.ToolResult {
	return ctconfig.ToolResult{OK: false, Error: reason}
}

var credentialPattern = regexp.MustCompile(`[a-zA-Z0-9_-]{24,}`)

// sanitizeErrorMessage strips anything that looks like a credential from
// an error message before it is written to a result file or stderr.
func sanitizeErrorMessage(message string) string {
	return credentialPattern.ReplaceAllString(message, "[REDACTED]")
}
