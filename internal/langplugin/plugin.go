// Package langplugin implements the per-language hooks the rest of the
// pipeline drives: running a driver script, running an emitted test,
// compile-checking a repo, and naming the files a plugin expects. Adding a
// language means implementing Plugin and registering it; nothing else in
// the pipeline needs to change.
package langplugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/ctgen/internal/model"
)

// DefaultTimeoutSeconds is applied to both script and test execution when
// a plugin does not declare its own.
const DefaultTimeoutSeconds = 120

// ScriptResult is the outcome of running a driver script via RunScript.
type ScriptResult struct {
	ExitCode        int
	Stdout          string
	Stderr          string
	DurationMs      int64
	CoveragePercent float64
	CoverageDataPath string
}

// TimedOut reports whether the script was killed for exceeding its
// timeout, signaled by the plugin's convention of ExitCode == -1.
func (r ScriptResult) TimedOut() bool {
	return r.ExitCode == -1
}

// CompileResult is the outcome of CompileCheck.
type CompileResult struct {
	OK           bool
	ErrorMessage string
}

// Plugin is the per-language contract every component above the registry
// depends on. Implementations live one per supported language family.
type Plugin interface {
	// Language returns the identifier this plugin is registered under.
	Language() string

	// RunScript executes a standalone driver script that prints a single
	// JSON object to stdout and exits 0 on success, instrumenting the
	// script's subject file(s) for line coverage. extraImportPaths lets
	// same-directory dependencies resolve.
	RunScript(ctx context.Context, scriptPath, cwd string, extraImportPaths []string) (ScriptResult, error)

	// RunTest executes an emitted test file with the language's test
	// runner under coverage, returning a normalized TestResult.
	RunTest(ctx context.Context, testFilePath, cwd string, sourceFilesUnderTest []string) (model.TestResult, error)

	// CompileCheck performs a best-effort syntactic/type validation of
	// repoRoot. Its failure short-circuits the whole run.
	CompileCheck(ctx context.Context, repoRoot string) (CompileResult, error)

	// EmitTestFilename and EmitScriptFilename deterministically name the
	// test/driver file that corresponds to sourceFile.
	EmitTestFilename(sourceFile string) string
	EmitScriptFilename(sourceFile string) string

	// TimeoutSeconds is applied to both RunScript and RunTest.
	TimeoutSeconds() int
}

// Registry is a fixed lookup from language identifier to Plugin, safe for
// concurrent reads and registration.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry. Use Register to populate it, or
// NewDefaultRegistry for the built-in plugin set.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds or replaces the plugin for its own Language() identifier.
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Language()] = p
}

// Get looks up the plugin for languageID.
func (r *Registry) Get(languageID string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[languageID]
	if !ok {
		return nil, fmt.Errorf("language %q: %w", languageID, model.ErrUnknownLanguage)
	}
	return p, nil
}

// Languages returns every registered language identifier.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for lang := range r.plugins {
		out = append(out, lang)
	}
	return out
}
