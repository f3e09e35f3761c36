// Package guidance implements the Guidance Generator (spec §4.4): one
// LLM pass per legacy file that classifies its side effects,
// non-determinism sources, and mockable seams before capture begins.
package guidance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phrazzld/ctgen/internal/model"
)

// Completer is the subset of llmadapter.Adapter that Generate needs,
// kept narrow so this package doesn't import llmadapter directly and
// tests can supply a trivial fake.
type Completer interface {
	Complete(ctx context.Context, prompt string, schema json.RawMessage, maxTokens int) (json.RawMessage, error)
}

const responseSchema = `{
	"type": "object",
	"required": ["side_effects", "mock_recommendations", "external_deps"],
	"properties": {
		"side_effects": {"type": "array", "items": {"type": "string"}},
		"mock_recommendations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["target", "reason"],
				"properties": {
					"target": {"type": "string"},
					"reason": {"type": "string"}
				}
			}
		},
		"nondeterminism_notes": {"type": ["string", "null"]},
		"external_deps": {"type": "array", "items": {"type": "string"}}
	}
}`

const maxResponseTokens = 2048

type response struct {
	SideEffects         []string                   `json:"side_effects"`
	MockRecommendations []model.MockRecommendation `json:"mock_recommendations"`
	NondeterminismNotes *string                     `json:"nondeterminism_notes"`
	ExternalDeps        []string                    `json:"external_deps"`
}

// Generate classifies sourceContent using depSignatures (a dependency
// path → trimmed-signature map from depsig.Resolver) as context. On any
// LLM failure it returns model.NeutralGuidance() rather than
// propagating the error: guidance degradation never aborts a mapping.
func Generate(ctx context.Context, completer Completer, sourceFile, sourceContent string, depSignatures map[string]string) model.Guidance {
	prompt := buildPrompt(sourceFile, sourceContent, depSignatures)

	raw, err := completer.Complete(ctx, prompt, json.RawMessage(responseSchema), maxResponseTokens)
	if err != nil {
		return model.NeutralGuidance()
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.NeutralGuidance()
	}

	g := model.Guidance{
		SideEffects:         resp.SideEffects,
		MockRecommendations: resp.MockRecommendations,
		ExternalDeps:        resp.ExternalDeps,
	}
	if resp.NondeterminismNotes != nil {
		g.NondeterminismNotes = *resp.NondeterminismNotes
	}
	return g
}

func buildPrompt(sourceFile, sourceContent string, depSignatures map[string]string) string {
	prompt := fmt.Sprintf(
		"You are analyzing a legacy source file to prepare it for characterization testing.\n\n"+
			"File: %s\n\n"+
			"Source:\n%s\n\n",
		sourceFile, sourceContent,
	)
	if len(depSignatures) > 0 {
		prompt += "Dependency signatures (public surface only):\n"
		for dep, sig := range depSignatures {
			prompt += fmt.Sprintf("--- %s ---\n%s\n\n", dep, sig)
		}
	}
	prompt += "Identify: observable side effects, non-determinism sources " +
		"(time, randomness, environment, filesystem, network) and what to " +
		"stub for each, and external dependency names. Respond with JSON " +
		"matching the provided schema only."
	return prompt
}
