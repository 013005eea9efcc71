package ai

import "errors"

var (
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrTimeout indicates the completion did not finish within its deadline.
	ErrTimeout = errors.New("ai request timed out")
	// ErrEmptyResponse indicates the provider returned no choices.
	ErrEmptyResponse = errors.New("ai returned an empty response")
	// ErrUnparseableResponse indicates no JSON object could be read from the model output.
	ErrUnparseableResponse = errors.New("ai response is not valid JSON")
)
