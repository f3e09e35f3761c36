// Package review implements the Review Generator (spec §4.8): a final
// LLM pass that produces a semantic diff and risk analysis for one
// mapping, beyond the bare pass/fail signal TestResult carries.
package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phrazzld/ctgen/internal/model"
)

// Completer is the narrow LLM-facing dependency this package needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, schema json.RawMessage, maxTokens int) (json.RawMessage, error)
}

const responseSchema = `{
	"type": "object",
	"required": ["semantic_diff", "test_purpose", "result_analysis", "failures_ignorable", "risk_warnings"],
	"properties": {
		"semantic_diff": {"type": "string"},
		"test_purpose": {"type": "string"},
		"result_analysis": {"type": "string"},
		"failures_ignorable": {"type": "boolean"},
		"ignorable_reason": {"type": ["string", "null"]},
		"risk_warnings": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["description", "severity", "tested_by_golden"],
				"properties": {
					"description": {"type": "string"},
					"severity": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
					"tested_by_golden": {"type": "boolean"}
				}
			}
		}
	}
}`

const maxResponseTokens = 4096

type response struct {
	SemanticDiff      string              `json:"semantic_diff"`
	TestPurpose       string              `json:"test_purpose"`
	ResultAnalysis    string              `json:"result_analysis"`
	FailuresIgnorable bool                `json:"failures_ignorable"`
	IgnorableReason   *string             `json:"ignorable_reason"`
	RiskWarnings      []model.RiskWarning `json:"risk_warnings"`
}

// Generate analyzes legacyContent/refactoredContent alongside golden and
// result, asking the LLM to judge behavioral (not stylistic)
// differences, whether any failures are infrastructure noise versus true
// regressions, and to enumerate risks the golden snapshot doesn't cover.
// On any LLM failure it returns model.DegradedReview() rather than
// propagating the error.
func Generate(ctx context.Context, completer Completer, legacyContent, refactoredContent string, golden model.GoldenRecord, result model.TestResult) model.Review {
	prompt := buildPrompt(legacyContent, refactoredContent, golden, result)

	raw, err := completer.Complete(ctx, prompt, json.RawMessage(responseSchema), maxResponseTokens)
	if err != nil {
		return model.DegradedReview()
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.DegradedReview()
	}

	r := model.Review{
		SemanticDiff:      resp.SemanticDiff,
		TestPurpose:       resp.TestPurpose,
		ResultAnalysis:    resp.ResultAnalysis,
		FailuresIgnorable: resp.FailuresIgnorable,
		RiskWarnings:      resp.RiskWarnings,
	}
	if resp.IgnorableReason != nil {
		r.IgnorableReason = *resp.IgnorableReason
	}
	return r
}

func buildPrompt(legacyContent, refactoredContent string, golden model.GoldenRecord, result model.TestResult) string {
	observationsJSON, _ := json.MarshalIndent(golden.Observations, "", "  ")

	return fmt.Sprintf(
		"Compare legacy and refactored code behaviorally, not stylistically.\n\n"+
			"Legacy source:\n%s\n\n"+
			"Refactored source:\n%s\n\n"+
			"Golden observations captured from legacy:\n%s\n\n"+
			"Test result: %d/%d passed, %d failed, %d errored.\n\n"+
			"Describe behavioral differences; judge whether any failures are "+
			"test-infrastructure issues (unstable runner, missing dependency, "+
			"import path) versus true regressions; enumerate risks the golden "+
			"snapshot does not cover (e.g. concurrency, error paths, rare "+
			"inputs), tagging each by severity and whether it is already "+
			"tested. Respond with JSON matching the provided schema only.",
		legacyContent, refactoredContent, observationsJSON,
		result.Passed, result.Total, result.Failed, result.Errored,
	)
}
