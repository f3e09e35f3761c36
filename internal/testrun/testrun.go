// Package testrun implements the Test Runner (spec §4.7): executes an
// EmittedTest via its language plugin and returns the normalized
// TestResult. Per-item parsing is plugin-specific (internal/langplugin's
// concrete plugins each own their runner's verbose-output format); this
// package only drives execution and persists the combined log.
package testrun

import (
	"context"
	"fmt"
	"os"

	"github.com/phrazzld/ctgen/internal/langplugin"
	"github.com/phrazzld/ctgen/internal/model"
)

// Run executes test at testPath against sourceFilesUnderTest via plugin,
// writes the combined stdout+stderr to logPath, and returns the
// resulting TestResult with LogPath unset (callers that track it on the
// EmittedTest set it themselves). A non-nil error wrapping
// ErrTestRunnerCrash still carries a usable TestResult (the synthesized
// <runner_failure> item); callers should keep it rather than discard it.
func Run(ctx context.Context, plugin langplugin.Plugin, testPath, cwd string, sourceFilesUnderTest []string, logPath string) (model.TestResult, error) {
	result, err := plugin.RunTest(ctx, testPath, cwd, sourceFilesUnderTest)
	if err != nil {
		return model.TestResult{}, err
	}

	if logPath != "" {
		_ = os.WriteFile(logPath, []byte(result.StdoutTail+"\n---stderr---\n"+result.StderrTail), 0o644)
	}

	if isRunnerCrash(result) {
		return result, fmt.Errorf("%w: %s", model.ErrTestRunnerCrash, testPath)
	}

	return result, nil
}

func isRunnerCrash(result model.TestResult) bool {
	return len(result.Items) == 1 && result.Items[0].Name == model.RunnerFailureItem().Name
}
