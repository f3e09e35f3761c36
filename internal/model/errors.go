package model

import "errors"

// Sentinel errors for the error kinds in the error-handling design. Pipeline
// code wraps these with fmt.Errorf("...: %w", ...) so callers can match with
// errors.Is while still getting a specific message.
var (
	// ErrBuildCheckFailed means the refactored repo does not compile.
	// Triggers an abort of the whole run.
	ErrBuildCheckFailed = errors.New("build check failed")

	// ErrLLMUnavailable means every adapter retry was exhausted.
	ErrLLMUnavailable = errors.New("llm unavailable after retries")

	// ErrLLMSchemaInvalid means the model's output could not be coerced
	// to the requested schema even after one repair attempt.
	ErrLLMSchemaInvalid = errors.New("llm response does not match schema")

	// ErrScriptExecutionFailed means a driver script exited non-zero or
	// its stdout was not parseable JSON.
	ErrScriptExecutionFailed = errors.New("script execution failed")

	// ErrScriptTimeout means a driver script or test exceeded the
	// plugin's configured timeout.
	ErrScriptTimeout = errors.New("script execution timed out")

	// ErrTestRunnerCrash means a test runner produced no parseable
	// per-item output at all.
	ErrTestRunnerCrash = errors.New("test runner produced no parseable output")

	// ErrUnmappedGoldenKey means the Test Emitter could not map an
	// observation key to any construct in the refactored code.
	ErrUnmappedGoldenKey = errors.New("golden key could not be mapped to refactored code")

	// ErrUnknownLanguage means the Language Plugin Registry has no
	// plugin registered for a requested language identifier.
	ErrUnknownLanguage = errors.New("no plugin registered for language")

	// ErrNonCapturable means a driver script failed during import/load
	// rather than during a specific case; the legacy file cannot be
	// characterized at all.
	ErrNonCapturable = errors.New("legacy file is not capturable")
)
