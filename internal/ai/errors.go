package ai

import "github.com/futureproof/aitracker/internal/ai/llmhttp"

// Every *models.ProviderError wraps one of these, so callers can match with errors.Is.
var (
	ErrProviderUnavailable = llmhttp.ErrUnavailable
	ErrInferenceTimeout    = llmhttp.ErrTimeout
	ErrInvalidResponse     = llmhttp.ErrInvalidResponse
	ErrMisconfigured       = llmhttp.ErrMisconfigured
)
