// Package llmadapter implements the single LLM-facing operation every
// other component calls through: complete(prompt, schema, max_tokens).
// It is the only component in this module allowed to perform network
// I/O (spec §4.3); everything above it only ever sees a parsed,
// schema-valid JSON value or one of the two sentinel errors.
package llmadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/phrazzld/ctgen/internal/llm"
	"github.com/phrazzld/ctgen/internal/model"
	"github.com/phrazzld/ctgen/internal/ratelimit"
	"github.com/xeipuuv/gojsonschema"
)

const (
	baseBackoff = time.Second
	capBackoff  = 60 * time.Second
	maxAttempts = 6

	// temperature is fixed low so repeated calls with identical inputs
	// tend to converge, per §4.3.
	temperature = 0.1
)

// Clock abstracts time.Sleep so retry backoff is testable without
// actually waiting; production code uses RealClock.
type Clock interface {
	Sleep(d time.Duration)
}

// RealClock sleeps for real.
type RealClock struct{}

func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// Adapter wraps one llm.LLMClient with retry, schema validation, and a
// rate limiter shared across every call it makes.
type Adapter struct {
	client    llm.LLMClient
	limiter   *ratelimit.RateLimiter
	clock     Clock
	modelName string
}

// New builds an Adapter. limiter may be nil, in which case calls are
// never throttled locally (the provider's own 429s still drive retry).
func New(client llm.LLMClient, limiter *ratelimit.RateLimiter, modelName string) *Adapter {
	return &Adapter{client: client, limiter: limiter, clock: RealClock{}, modelName: modelName}
}

// WithClock overrides the backoff clock, for tests.
func (a *Adapter) WithClock(c Clock) *Adapter {
	a.clock = c
	return a
}

// Complete sends prompt to the LLM and coerces the response into schema,
// a JSON Schema document. It retries rate-limit-kind failures with
// exponential backoff (base 1s, cap 60s, max 6 attempts) and, on a
// schema mismatch, makes exactly one repair re-prompt before giving up.
func (a *Adapter) Complete(ctx context.Context, prompt string, schema json.RawMessage, maxTokens int) (json.RawMessage, error) {
	raw, err := a.completeWithRetry(ctx, prompt, maxTokens)
	if err != nil {
		return nil, err
	}

	if validErr := validateAgainstSchema(raw, schema); validErr == nil {
		return raw, nil
	}

	repairPrompt := buildRepairPrompt(prompt, raw, schema)
	repaired, err := a.completeWithRetry(ctx, repairPrompt, maxTokens)
	if err != nil {
		return nil, err
	}
	if validErr := validateAgainstSchema(repaired, schema); validErr != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrLLMSchemaInvalid, validErr)
	}
	return repaired, nil
}

// completeWithRetry performs the raw GenerateContent call with backoff
// on rate-limit-kind categorized errors. Non-rate-limit errors fail
// immediately: retrying an auth or invalid-request error would never
// succeed.
func (a *Adapter) completeWithRetry(ctx context.Context, prompt string, maxTokens int) (json.RawMessage, error) {
	params := map[string]interface{}{
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if a.limiter != nil {
			if err := a.limiter.Acquire(ctx, a.modelName); err != nil {
				return nil, fmt.Errorf("%w: %s", model.ErrLLMUnavailable, err)
			}
		}

		result, err := a.client.GenerateContent(ctx, prompt, params)
		if a.limiter != nil {
			a.limiter.Release()
		}
		if err == nil {
			return json.RawMessage(result.Content), nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", model.ErrLLMUnavailable, ctx.Err())
		}
		if !isRetryable(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrLLMUnavailable, err)
		}
		if attempt == maxAttempts-1 {
			break
		}

		a.clock.Sleep(backoffDuration(attempt))
	}

	return nil, fmt.Errorf("%w: retries exhausted: %s", model.ErrLLMUnavailable, lastErr)
}

// isRetryable reports whether err is a rate-limit-kind failure worth
// retrying. Uncategorized errors (e.g. from a mock client in tests) are
// treated as retryable so the mock-friendly default is "try again", not
// "fail hard".
func isRetryable(err error) bool {
	catErr, ok := llm.IsCategorizedError(err)
	if !ok {
		return true
	}
	switch catErr.Category() {
	case llm.CategoryRateLimit, llm.CategoryServer, llm.CategoryNetwork:
		return true
	default:
		return false
	}
}

// backoffDuration computes the exponential backoff for a given attempt,
// capped at capBackoff.
func backoffDuration(attempt int) time.Duration {
	d := time.Duration(float64(baseBackoff) * math.Pow(2, float64(attempt)))
	if d > capBackoff {
		return capBackoff
	}
	return d
}

func validateAgainstSchema(raw json.RawMessage, schema json.RawMessage) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	return fmt.Errorf("%d schema violation(s): %s", len(result.Errors()), firstError(result.Errors()))
}

func firstError(errs []gojsonschema.ResultError) string {
	if len(errs) == 0 {
		return "unknown"
	}
	return errs[0].String()
}

func buildRepairPrompt(originalPrompt string, badResponse json.RawMessage, schema json.RawMessage) string {
	return fmt.Sprintf(
		"Your previous response did not match the required schema.\n\n"+
			"Schema:\n%s\n\n"+
			"Your previous response:\n%s\n\n"+
			"Original instructions:\n%s\n\n"+
			"Respond again with ONLY a JSON value matching the schema.",
		schema, badResponse, originalPrompt,
	)
}
