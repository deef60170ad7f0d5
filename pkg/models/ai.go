// Package models contains shared data models used across the AI visibility tracker.
package models

import (
	"context"
	"errors"
	"fmt"
)

// Platform identifies one of the AI assistants a brand is tracked on.
type Platform string

const (
	PlatformChatGPT    Platform = "chatgpt"
	PlatformClaude     Platform = "claude"
	PlatformGemini     Platform = "gemini"
	PlatformPerplexity Platform = "perplexity"
)

// Platforms lists every tracked platform in report order.
var Platforms = []Platform{PlatformChatGPT, PlatformClaude, PlatformGemini, PlatformPerplexity}

var platformNames = map[Platform]string{
	PlatformChatGPT:    "ChatGPT",
	PlatformClaude:     "Claude",
	PlatformGemini:     "Gemini",
	PlatformPerplexity: "Perplexity",
}

// DisplayName returns the human-facing product name, e.g. "ChatGPT".
func (p Platform) DisplayName() string {
	if n, ok := platformNames[p]; ok {
		return n
	}
	return string(p)
}

// Valid reports whether p is one of the four tracked platforms.
func (p Platform) Valid() bool {
	_, ok := platformNames[p]
	return ok
}

// AIProvider is the interface every assistant backend adapter implements.
// Never call specific backends directly; inject this interface.
type AIProvider interface {
	// Platform returns which tracked platform this adapter answers for.
	Platform() Platform
	// Name returns the backend identifier (e.g., "openai", "anthropic").
	Name() string
	// Query sends one prompt and returns the raw answer text unmodified.
	// Failures are returned as *ProviderError.
	Query(ctx context.Context, prompt string) (string, error)
}

// ProviderErrorKind classifies why a backend call failed.
type ProviderErrorKind string

const (
	ProviderErrNetwork       ProviderErrorKind = "network"
	ProviderErrTimeout       ProviderErrorKind = "timeout"
	ProviderErrStatus        ProviderErrorKind = "status"
	ProviderErrMalformed     ProviderErrorKind = "malformed"
	ProviderErrMisconfigured ProviderErrorKind = "misconfigured"
	ProviderErrInternal      ProviderErrorKind = "internal"
)

// ProviderError is returned by adapters for any failed call. Status is the
// HTTP status code when the backend answered, otherwise 0.
type ProviderError struct {
	Platform Platform          `json:"platform"`
	Kind     ProviderErrorKind `json:"kind"`
	Status   int               `json:"status,omitempty"`
	Message  string            `json:"message"`
	Err      error             `json:"-"`
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Platform, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Platform, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AsProviderError extracts a *ProviderError from err, wrapping unknown
// errors as network failures for platform p.
func AsProviderError(p Platform, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Platform: p, Kind: ProviderErrNetwork, Message: err.Error(), Err: err}
}
