package llm

import (
	"context"
	"fmt"
)

// Client is the single boundary to a chat-completion model. Every pipeline
// stage that talks to a model goes through it, so tests can swap in a fake
// and count calls.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest describes one model call.
type CompletionRequest struct {
	// Model identifies the model to use. Required.
	Model string

	// System is the system prompt. Optional.
	System string

	// Prompt is the user message. Required.
	Prompt string

	// JSONMode asks the provider to constrain output to a JSON object.
	JSONMode bool

	// MaxTokens limits the response length. Zero means provider default.
	MaxTokens int

	// Temperature controls sampling. Stages keep this low for contract
	// adherence.
	Temperature float32
}

// ServiceError wraps a transport or provider failure. Retryable.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ParseError indicates the model's response violated the expected JSON
// contract. Treated the same as a transport failure for retry purposes.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("parse model response: %s (raw: %q)", e.Reason, raw)
}
