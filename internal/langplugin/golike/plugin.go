// Package golike implements langplugin.Plugin for natively compiled,
// statically typed languages in the Go family: driver scripts run via
// `go run`, coverage via `go test -cover`, and tests via `go test -v`.
package golike

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/ctgen/internal/langplugin"
	"github.com/phrazzld/ctgen/internal/model"
)

// Plugin runs Go driver scripts (as standalone `main` programs) and
// `go test` suites. The language identifier is "go".
type Plugin struct {
	timeoutSeconds int
}

// New returns a Plugin with the default 120s timeout.
func New() *Plugin {
	return &Plugin{timeoutSeconds: langplugin.DefaultTimeoutSeconds}
}

// NewWithTimeout overrides the default timeout, for tests.
func NewWithTimeout(seconds int) *Plugin {
	return &Plugin{timeoutSeconds: seconds}
}

var _ langplugin.Plugin = (*Plugin)(nil)

func (p *Plugin) Language() string { return "go" }

func (p *Plugin) TimeoutSeconds() int {
	if p.timeoutSeconds <= 0 {
		return langplugin.DefaultTimeoutSeconds
	}
	return p.timeoutSeconds
}

func (p *Plugin) EmitScriptFilename(sourceFile string) string {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	return base + "_golden_driver.go"
}

func (p *Plugin) EmitTestFilename(sourceFile string) string {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	return base + "_characterization_test.go"
}

// RunScript runs scriptPath with `go run`. extraImportPaths is unused for
// this family: Go resolves same-package dependencies from the module
// itself, not from an import-path list.
func (p *Plugin) RunScript(ctx context.Context, scriptPath, cwd string, extraImportPaths []string) (langplugin.ScriptResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "go", "run", scriptPath)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := langplugin.ScriptResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMs: duration.Milliseconds(),
	}

	if runCtx.Err() != nil {
		result.ExitCode = -1
		return result, nil
	}

	result.ExitCode = exitCodeOf(runErr)
	// `go run` of a standalone script has no coverage instrumentation of
	// its own; coverage for this family is measured at RunTest time
	// against the emitted test, matching how Go coverage is conventionally
	// reported (per package, not per ad hoc script).
	return result, nil
}

// RunTest runs testFilePath's package with `go test -v -cover`.
func (p *Plugin) RunTest(ctx context.Context, testFilePath, cwd string, sourceFilesUnderTest []string) (model.TestResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	pkgDir := "./" + relPackageDir(cwd, testFilePath)
	cmd := exec.CommandContext(runCtx, "go", "test", "-v", "-cover", "-run", ".", pkgDir)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() != nil {
		items := []model.TestItem{model.RunnerFailureItem()}
		return model.NewTestResultFromItems(items, 0, tail(stdout.String()), tail(stderr.String()), -1), nil
	}

	items := ParseGoTestVerboseOutput(stdout.String())
	if len(items) == 0 {
		items = []model.TestItem{model.RunnerFailureItem()}
	}

	return model.NewTestResultFromItems(items, parseCoverageLine(stdout.String()), tail(stdout.String()), tail(stderr.String()), exitCodeOf(runErr)), nil
}

// CompileCheck runs `go build ./...` against repoRoot.
func (p *Plugin) CompileCheck(ctx context.Context, repoRoot string) (langplugin.CompileResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "go", "build", "./...")
	cmd.Dir = repoRoot

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return langplugin.CompileResult{OK: false, ErrorMessage: stderr.String()}, nil
	}
	return langplugin.CompileResult{OK: true}, nil
}

func relPackageDir(cwd, testFilePath string) string {
	dir := filepath.Dir(testFilePath)
	rel, err := filepath.Rel(cwd, dir)
	if err != nil {
		return "."
	}
	return rel
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

var coverageLineRe = regexp.MustCompile(`coverage:\s+([0-9]+(?:\.[0-9]+)?)% of statements`)

func parseCoverageLine(stdout string) float64 {
	m := coverageLineRe.FindStringSubmatch(stdout)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseGoTestVerboseOutput converts `go test -v` stdout into TestItems.
// Verbose lines look like:
//
//	--- PASS: TestFoo (0.00s)
//	--- FAIL: TestBar (0.00s)
//
// This is the plugin-specific parsing strategy: each language family
// reads its own runner's output shape, and nothing upstream depends on
// the raw text format.
func ParseGoTestVerboseOutput(stdout string) []model.TestItem {
	var items []model.TestItem
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		status, ok := goTestStatus(line)
		if !ok {
			continue
		}
		name := goTestName(line)
		if name == "" {
			continue
		}
		items = append(items, model.TestItem{Name: name, Status: status})
	}
	return items
}

func goTestStatus(line string) (model.TestItemStatus, bool) {
	switch {
	case strings.HasPrefix(line, "--- PASS:"):
		return model.TestPassed, true
	case strings.HasPrefix(line, "--- FAIL:"):
		return model.TestFailed, true
	case strings.HasPrefix(line, "--- SKIP:"):
		return model.TestSkipped, true
	default:
		return "", false
	}
}

func goTestName(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return ""
	}
	return fields[2]
}
