// Package jvmlike implements langplugin.Plugin for the statically
// compiled, bytecode-VM language family: driver scripts are standalone
// `public static void main` classes compiled with `javac` and run with
// `java`, while test suites are built and executed through Gradle.
package jvmlike

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/phrazzld/ctgen/internal/langplugin"
	"github.com/phrazzld/ctgen/internal/model"
)

// Plugin runs standalone Java driver classes and Gradle test suites. The
// language identifier is "java".
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

func (p *Plugin) Language() string { return "java" }

func (p *Plugin) TimeoutSeconds() int {
	if p.timeoutSeconds <= 0 {
		return langplugin.DefaultTimeoutSeconds
	}
	return p.timeoutSeconds
}

// EmitScriptFilename follows javac's one-public-class-per-file rule: the
// driver class name must match its filename.
func (p *Plugin) EmitScriptFilename(sourceFile string) string {
	return className(sourceFile) + "GoldenDriver.java"
}

func (p *Plugin) EmitTestFilename(sourceFile string) string {
	return className(sourceFile) + "CharacterizationTest.java"
}

// RunScript compiles scriptPath (plus extraImportPaths as additional
// source roots on the classpath) into a scratch classes directory with
// javac, then runs the resulting class with java. Coverage is not
// measured at this stage; per the family's convention (mirrored from the
// Go family) it is measured against the emitted test instead.
func (p *Plugin) RunScript(ctx context.Context, scriptPath, cwd string, extraImportPaths []string) (langplugin.ScriptResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	classesDir := scriptPath + ".classes"
	if err := os.MkdirAll(classesDir, 0o755); err != nil {
		return langplugin.ScriptResult{}, fmt.Errorf("creating classes dir: %w", err)
	}

	start := time.Now()

	compileArgs := append([]string{"-d", classesDir, scriptPath}, extraImportPaths...)
	compileCmd := exec.CommandContext(runCtx, "javac", compileArgs...)
	compileCmd.Dir = cwd
	var compileStderr bytes.Buffer
	compileCmd.Stderr = &compileStderr
	if err := compileCmd.Run(); err != nil {
		duration := time.Since(start)
		if runCtx.Err() != nil {
			return langplugin.ScriptResult{ExitCode: -1, Stderr: compileStderr.String(), DurationMs: duration.Milliseconds()}, nil
		}
		return langplugin.ScriptResult{
			ExitCode:   exitCodeOf(err),
			Stderr:     compileStderr.String(),
			DurationMs: duration.Milliseconds(),
		}, nil
	}

	runCmd := exec.CommandContext(runCtx, "java", "-cp", classesDir, className(scriptPath))
	runCmd.Dir = cwd
	var stdout, stderr bytes.Buffer
	runCmd.Stdout = &stdout
	runCmd.Stderr = &stderr

	runErr := runCmd.Run()
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
	return result, nil
}

// RunTest builds testFilePath's module with Gradle and runs it filtered
// to its own class, parsing the `ClassName > method STATUS` lines Gradle
// emits when test logging events are enabled.
func (p *Plugin) RunTest(ctx context.Context, testFilePath, cwd string, sourceFilesUnderTest []string) (model.TestResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "gradle", "-q", "test", "--tests", className(testFilePath), "--info")
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() != nil {
		items := []model.TestItem{model.RunnerFailureItem()}
		return model.NewTestResultFromItems(items, 0, tail(stdout.String()), tail(stderr.String()), -1), nil
	}

	items := ParseGradleTestEventOutput(stdout.String())
	if len(items) == 0 {
		items = []model.TestItem{model.RunnerFailureItem()}
	}

	// JaCoCo is not wired into this plugin: Gradle's default test task
	// does not emit a coverage summary to stdout the way `go test -cover`
	// or `coverage report` do, and adding it would require a build.gradle
	// convention this generator does not control.
	return model.NewTestResultFromItems(items, 0, tail(stdout.String()), tail(stderr.String()), exitCodeOf(runErr)), nil
}

// CompileCheck runs `gradle -q compileJava` against repoRoot.
func (p *Plugin) CompileCheck(ctx context.Context, repoRoot string) (langplugin.CompileResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds())*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "gradle", "-q", "compileJava")
	cmd.Dir = repoRoot

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return langplugin.CompileResult{OK: false, ErrorMessage: stderr.String()}, nil
	}
	return langplugin.CompileResult{OK: true}, nil
}

// className derives the public class name javac/java expect from a
// source path: the base filename without its extension.
func className(sourceFile string) string {
	return strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
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

var gradleTestEventRe = regexp.MustCompile(`^(\S+)\s*>\s*(\S+)\s+(PASSED|FAILED|SKIPPED)\s*$`)

// ParseGradleTestEventOutput converts Gradle's `--tests`/`--info` test
// event lines into TestItems. Lines look like:
//
//	FooCharacterizationTest > handlesBoundaryCase PASSED
//	FooCharacterizationTest > handlesErrorCase FAILED
//
// This is the plugin-specific parsing strategy for this family; nothing
// upstream depends on Gradle's raw text format.
func ParseGradleTestEventOutput(stdout string) []model.TestItem {
	var items []model.TestItem
	for _, line := range strings.Split(stdout, "\n") {
		m := gradleTestEventRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		status := model.TestSkipped
		switch m[3] {
		case "PASSED":
			status = model.TestPassed
		case "FAILED":
			status = model.TestFailed
		}
		items = append(items, model.TestItem{Name: m[1] + "." + m[2], Status: status})
	}
	return items
}
