// Package golden implements the Golden Capture Engine (spec §4.5): the
// LLM generates a driver script for a legacy file, the script runs under
// the language plugin's coverage instrumentation, and its stdout is
// parsed and normalized into a GoldenRecord.
package golden

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/phrazzld/ctgen/internal/langplugin"
	"github.com/phrazzld/ctgen/internal/model"
)

// Completer is the narrow LLM-facing dependency this package needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, schema json.RawMessage, maxTokens int) (json.RawMessage, error)
}

// FileWriter writes a driver script's source to disk and returns its
// path, so Capture never touches the filesystem directly and tests can
// substitute an in-memory writer.
type FileWriter func(filename, source string) (path string, err error)

const driverResponseSchema = `{
	"type": "object",
	"required": ["script_source", "required_import_paths"],
	"properties": {
		"script_source": {"type": "string"},
		"required_import_paths": {"type": "array", "items": {"type": "string"}}
	}
}`

const maxDriverResponseTokens = 4096

type driverResponse struct {
	ScriptSource        string   `json:"script_source"`
	RequiredImportPaths []string `json:"required_import_paths"`
}

// stderrTrailerBytes bounds the stderr trailer kept on a failed capture,
// per §4.5 step 4.
const stderrTrailerBytes = 4096

// Capture runs the full protocol for one legacy file: generate a driver
// script, write it beside the legacy repo, execute it under the plugin,
// and parse+normalize its stdout into a GoldenRecord. logPath and
// coveragePath, when non-empty, are the on-disk sibling locations the
// caller has already reserved for this script via ctpath; Capture writes
// the combined stdout+stderr log there and records both paths on the
// returned record.
//
// A non-nil error alongside a populated record means the script ran but
// did not produce a usable capture (wraps ErrScriptTimeout,
// ErrScriptExecutionFailed, or ErrNonCapturable); callers should keep the
// record rather than discard it. A non-nil error with a zero-value
// record means an earlier, infrastructural step failed.
func Capture(
	ctx context.Context,
	completer Completer,
	plugin langplugin.Plugin,
	write FileWriter,
	cwd string,
	sourceFile, sourceContent string,
	depSignatures map[string]string,
	guide model.Guidance,
	logPath, coveragePath string,
) (model.GoldenRecord, error) {
	prompt := buildDriverPrompt(sourceFile, sourceContent, depSignatures, guide)

	raw, err := completer.Complete(ctx, prompt, json.RawMessage(driverResponseSchema), maxDriverResponseTokens)
	if err != nil {
		return model.GoldenRecord{}, fmt.Errorf("%w: driver generation: %s", model.ErrLLMUnavailable, err)
	}

	var resp driverResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.GoldenRecord{}, fmt.Errorf("%w: driver generation: %s", model.ErrLLMSchemaInvalid, err)
	}

	scriptFilename := plugin.EmitScriptFilename(sourceFile)
	scriptPath, err := write(scriptFilename, resp.ScriptSource)
	if err != nil {
		return model.GoldenRecord{}, fmt.Errorf("writing driver script: %w", err)
	}

	scriptResult, err := plugin.RunScript(ctx, scriptPath, cwd, resp.RequiredImportPaths)
	if err != nil {
		return model.GoldenRecord{}, fmt.Errorf("running driver script: %w", err)
	}

	if logPath != "" {
		_ = os.WriteFile(logPath, []byte(scriptResult.Stdout+"\n---stderr---\n"+scriptResult.Stderr), 0o644)
	}

	record := model.GoldenRecord{
		SourceFile:      sourceFile,
		ExitCode:        scriptResult.ExitCode,
		DurationMs:      scriptResult.DurationMs,
		CoveragePercent: scriptResult.CoveragePercent,
		ScriptPath:      scriptPath,
		LogPath:         logPath,
	}
	if scriptResult.CoverageDataPath != "" {
		record.CoverageDataPath = coveragePath
	}

	if scriptResult.TimedOut() {
		record.StderrTrailer = trailer(scriptResult.Stderr)
		return record, fmt.Errorf("%w: %s", model.ErrScriptTimeout, sourceFile)
	}

	if scriptResult.ExitCode != 0 {
		record.StderrTrailer = trailer(scriptResult.Stderr)
		record.NonCapturable = isImportFailure(scriptResult.Stderr)
		if record.NonCapturable {
			return record, fmt.Errorf("%w: %s", model.ErrNonCapturable, sourceFile)
		}
		return record, fmt.Errorf("%w: %s", model.ErrScriptExecutionFailed, sourceFile)
	}

	var observations map[string]interface{}
	if err := json.Unmarshal([]byte(scriptResult.Stdout), &observations); err != nil {
		// Exit code 0 but unparseable stdout: GoldenRecord.Success() keys
		// off Observations being non-nil, not ExitCode alone, so this is
		// already a failed capture without touching ExitCode.
		record.StderrTrailer = trailer(scriptResult.Stderr)
		return record, fmt.Errorf("%w: %s: unparseable stdout", model.ErrScriptExecutionFailed, sourceFile)
	}

	record.Observations = Normalize(observations).(map[string]interface{})
	return record, nil
}

func trailer(stderr string) string {
	if len(stderr) <= stderrTrailerBytes {
		return stderr
	}
	return stderr[len(stderr)-stderrTrailerBytes:]
}

// isImportFailure is a best-effort heuristic distinguishing "the script
// failed to import/load" from "a specific case inside it failed": it
// looks for the import-error vocabulary common to the supported
// language families' tracebacks.
func isImportFailure(stderr string) bool {
	return importFailureRe.MatchString(stderr)
}

var importFailureRe = regexp.MustCompile(`(?i)(ImportError|ModuleNotFoundError|SyntaxError|cannot find package|undefined:|build failed)`)

func buildDriverPrompt(sourceFile, sourceContent string, depSignatures map[string]string, guide model.Guidance) string {
	prompt := fmt.Sprintf(
		"Generate a driver script that characterizes the behavior of this legacy file.\n\n"+
			"File: %s\n\nSource:\n%s\n\n",
		sourceFile, sourceContent,
	)
	if len(depSignatures) > 0 {
		prompt += "Dependency signatures:\n"
		for dep, sig := range depSignatures {
			prompt += fmt.Sprintf("--- %s ---\n%s\n\n", dep, sig)
		}
	}
	if len(guide.SideEffects) > 0 {
		prompt += fmt.Sprintf("Known side effects: %v\n", guide.SideEffects)
	}
	if len(guide.MockRecommendations) > 0 {
		prompt += "Stub these non-deterministic seams:\n"
		for _, m := range guide.MockRecommendations {
			prompt += fmt.Sprintf("- %s: %s\n", m.Target, m.Reason)
		}
	}
	if guide.NondeterminismNotes != "" {
		prompt += fmt.Sprintf("Non-determinism notes: %s\n", guide.NondeterminismNotes)
	}
	prompt += "\nRequirements: import only from this file and its real dependencies; " +
		"instantiate representative inputs covering normal, boundary, and edge cases " +
		"(an empty observation map is valid for files with no executable surface); " +
		"stub every non-deterministic source listed above; print exactly one JSON " +
		"object to stdout whose keys are descriptive observation names and whose " +
		"values are the captured outputs; exit 0 on success. Respond with JSON " +
		"matching the provided schema only."
	return prompt
}
