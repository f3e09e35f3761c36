// Package pythonic implements langplugin.Plugin for interpreted dynamic
// languages in the Python family: driver scripts run under `python3`,
// coverage via `coverage run`, and tests via `pytest`.
package pythonic

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/ctgen/internal/langplugin"
	"github.com/phrazzld/ctgen/internal/model"
)

// Plugin runs Python driver scripts and pytest suites under the coverage
// tool. The language identifier is "python".
type Plugin struct {
	timeoutSeconds int
}

// New returns a Plugin with the default 120s timeout.
func New() *Plugin {
	return &Plugin{timeoutSeconds: langplugin.DefaultTimeoutSeconds}
}

// NewWithTimeout overrides the default timeout, for tests and for callers
// with slower driver scripts.
func NewWithTimeout(seconds int) *Plugin {
	return &Plugin{timeoutSeconds: seconds}
}

var _ langplugin.Plugin = (*Plugin)(nil)

func (p *Plugin) Language() string { return "python" }

func (p *Plugin) TimeoutSeconds() int {
	if p.timeoutSeconds <= 0 {
		return langplugin.DefaultTimeoutSeconds
	}
	return p.timeoutSeconds
}

func (p *Plugin) EmitScriptFilename(sourceFile string) string {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	return base + "_golden_driver.py"
}

func (p *Plugin) EmitTestFilename(sourceFile string) string {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	return "test_" + base + "_characterization.py"
}

// RunScript executes scriptPath with `coverage run`, appending
// extraImportPaths to PYTHONPATH so same-directory dependencies resolve.
func (p *Plugin) RunScript(ctx context.Context, scriptPath, cwd string, extraImportPaths []string) (langplugin.ScriptResult, error) {
	coverageData := scriptPath + ".coverage"

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "coverage", "run", "--data-file="+coverageData, scriptPath)
	cmd.Dir = cwd
	cmd.Env = withPythonPath(extraImportPaths)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := langplugin.ScriptResult{
		Stdout:           stdout.String(),
		Stderr:           stderr.String(),
		DurationMs:       duration.Milliseconds(),
		CoverageDataPath: coverageData,
	}

	if runCtx.Err() != nil {
		result.ExitCode = -1
		return result, nil
	}

	result.ExitCode = exitCodeOf(runErr)
	result.CoveragePercent = coveragePercent(cwd, coverageData)
	return result, nil
}

// RunTest executes testFilePath under pytest with coverage measured
// against sourceFilesUnderTest, parsing pytest's verbose per-item output.
func (p *Plugin) RunTest(ctx context.Context, testFilePath, cwd string, sourceFilesUnderTest []string) (model.TestResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	args := []string{"-m", "pytest", "-v", testFilePath}
	for _, src := range sourceFilesUnderTest {
		args = append(args, "--cov="+strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)))
	}

	cmd := exec.CommandContext(runCtx, "python3", args...)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() != nil {
		items := []model.TestItem{model.RunnerFailureItem()}
		return model.NewTestResultFromItems(items, 0, tail(stdout.String()), tail(stderr.String()), -1), nil
	}

	items := ParsePytestVerboseOutput(stdout.String())
	if len(items) == 0 {
		items = []model.TestItem{model.RunnerFailureItem()}
	}

	return model.NewTestResultFromItems(items, parseCoverageReportTotal(stdout.String()), tail(stdout.String()), tail(stderr.String()), exitCodeOf(runErr)), nil
}

// CompileCheck best-effort validates repoRoot by byte-compiling every
// .py file under it with `python3 -m py_compile`.
func (p *Plugin) CompileCheck(ctx context.Context, repoRoot string) (langplugin.CompileResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "python3", "-m", "compileall", "-q", repoRoot)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return langplugin.CompileResult{OK: false, ErrorMessage: stderr.String()}, nil
	}
	return langplugin.CompileResult{OK: true}, nil
}

func withPythonPath(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return []string{"PYTHONPATH=" + strings.Join(extra, string(filepath.ListSeparator))}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

func tail(s string) string {
	const maxLen = 4096
	if len(s) <= maxLen {
		return s
	}
	return s[len(s)-maxLen:]
}

// coveragePercent shells out to `coverage report` against the data file
// just produced and scrapes the final "TOTAL ... NN%" line.
func coveragePercent(cwd, dataFile string) float64 {
	cmd := exec.Command("coverage", "report", "--data-file="+dataFile)
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	return parseCoverageReportTotal(string(out))
}

func parseCoverageReportTotal(report string) float64 {
	lines := strings.Split(report, "\n")
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "TOTAL") {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			last := fields[len(fields)-1]
			last = strings.TrimSuffix(last, "%")
			if v, err := strconv.ParseFloat(last, 64); err == nil {
				return v
			}
		}
	}
	return 0
}

// ParsePytestVerboseOutput converts `pytest -v` stdout into TestItems.
// Verbose lines look like:
//
//	test_foo.py::test_bar PASSED                                       [ 50%]
//	test_foo.py::test_baz FAILED                                       [100%]
//
// This is the plugin-specific strategy referenced in spec §9's
// per-runner parsing design note: a function from raw text to a list of
// TestItem, no inheritance involved.
func ParsePytestVerboseOutput(stdout string) []model.TestItem {
	var items []model.TestItem
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, "::") {
			continue
		}
		status, ok := pytestStatus(line)
		if !ok {
			continue
		}
		name := strings.TrimSpace(strings.SplitN(line, " ", 2)[0])
		items = append(items, model.TestItem{Name: name, Status: status})
	}
	return items
}

func pytestStatus(line string) (model.TestItemStatus, bool) {
	switch {
	case strings.Contains(line, " PASSED"):
		return model.TestPassed, true
	case strings.Contains(line, " FAILED"):
		return model.TestFailed, true
	case strings.Contains(line, " ERROR"):
		return model.TestError, true
	case strings.Contains(line, " SKIPPED"):
		return model.TestSkipped, true
	default:
		return "", false
	}
}
