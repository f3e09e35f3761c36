// Package testemit implements the Test Emitter (spec §4.6): an LLM pass
// that maps each observation key in a GoldenRecord to a construct in the
// refactored code and emits one runnable test file in the target
// language.
package testemit

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/phrazzld/ctgen/internal/model"
)

// Completer is the narrow LLM-facing dependency this package needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, schema json.RawMessage, maxTokens int) (json.RawMessage, error)
}

const responseSchema = `{
	"type": "object",
	"required": ["path", "language", "content"],
	"properties": {
		"path": {"type": "string"},
		"language": {"type": "string"},
		"content": {"type": "string"}
	}
}`

const maxResponseTokens = 8192

type response struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// Emit asks the LLM to produce a test file in targetLanguage for
// refactoredFiles, exercising golden's observation map against the
// refactored code and marking any key it cannot map with a skip. The
// returned EmittedTest.Path is the plugin-chosen filename, not yet
// joined to any repo root — callers (the Orchestrator) own that via
// ctpath.
func Emit(ctx context.Context, completer Completer, refactoredFiles map[string]string, golden model.GoldenRecord, guide model.Guidance, targetLanguage, emittedFilename string) (model.EmittedTest, error) {
	if !golden.Success() {
		return model.EmittedTest{}, fmt.Errorf("cannot emit a test for %s: golden capture did not succeed", golden.SourceFile)
	}

	prompt := buildPrompt(refactoredFiles, golden, guide, targetLanguage, emittedFilename)

	raw, err := completer.Complete(ctx, prompt, json.RawMessage(responseSchema), maxResponseTokens)
	if err != nil {
		return model.EmittedTest{}, fmt.Errorf("%w: test emission: %s", model.ErrLLMUnavailable, err)
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.EmittedTest{}, fmt.Errorf("%w: test emission: %s", model.ErrLLMSchemaInvalid, err)
	}

	return model.EmittedTest{
		Path:     resp.Path,
		Language: resp.Language,
		Content:  resp.Content,
	}, nil
}

var unmappedGoldenKeyRe = regexp.MustCompile(`unmapped_golden_key:\s*([\w.-]+)`)

// ParseUnmappedGoldenKeys scans an emitted test file's source for the
// `unmapped_golden_key: <key>` markers buildPrompt instructs the LLM to
// leave, and synthesizes the corresponding skipped TestItem for each one
// so unmapped observations are visible in the final TestResult even when
// the runner's own skip naming doesn't reference the key.
func ParseUnmappedGoldenKeys(emittedSource string) []model.TestItem {
	matches := unmappedGoldenKeyRe.FindAllStringSubmatch(emittedSource, -1)
	if len(matches) == 0 {
		return nil
	}
	items := make([]model.TestItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, model.UnmappedGoldenKeyItem(strings.TrimSpace(m[1])))
	}
	return items
}

func buildPrompt(refactoredFiles map[string]string, golden model.GoldenRecord, guide model.Guidance, targetLanguage, emittedFilename string) string {
	prompt := fmt.Sprintf(
		"Generate a %s test file named %s that characterizes refactored code "+
			"against a golden observation map captured from legacy behavior.\n\n",
		targetLanguage, emittedFilename,
	)
	prompt += "Refactored source files:\n"
	for path, content := range refactoredFiles {
		prompt += fmt.Sprintf("--- %s ---\n%s\n\n", path, content)
	}

	observationsJSON, _ := json.MarshalIndent(golden.Observations, "", "  ")
	prompt += fmt.Sprintf("Golden observation map (captured from %s):\n%s\n\n", golden.SourceFile, observationsJSON)

	if len(guide.MockRecommendations) > 0 {
		prompt += "Seams to stub identically to the legacy capture:\n"
		for _, m := range guide.MockRecommendations {
			prompt += fmt.Sprintf("- %s: %s\n", m.Target, m.Reason)
		}
	}

	prompt += "\nFor each observation key, locate the semantically corresponding " +
		"construct in the refactored code (by meaning, not by name), emit one " +
		"test case exercising it with the same inputs the driver used, and " +
		"assert equality with the golden value. Use the target language's " +
		"idiomatic test runner. For any key you cannot map, emit a skipped " +
		"case with a comment `unmapped_golden_key: <key>` rather than " +
		"omitting it. Respond with JSON matching the provided schema only."
	return prompt
}
