// Package llm provides the completion-service boundary: a small Client
// interface, an Anthropic-backed implementation with retry and backoff,
// and lenient JSON extraction for schema-constrained responses.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable indicates an upstream service (completion or search)
// could not be reached after the retry policy was exhausted. Callers
// match it with errors.Is.
var ErrUnavailable = errors.New("upstream service unavailable")

// Request is a single completion request. System is advisory framing,
// Prompt is the user content, MaxTokens caps the response (0 = default).
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Client is the completion service. Implementations must be safe for
// concurrent use; the generator fans out subtopic calls.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
