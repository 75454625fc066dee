// Package llm provides interfaces for large language model providers used
// for session summarization.
package llm

import "context"

// Message represents a single chat message.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// GenerateOptions contains optional parameters for text generation.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// GenerateOption configures a single generation call.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = t
	}
}

// WithMaxTokens caps the number of generated tokens.
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = n
	}
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Generate produces a completion for a single prompt.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateWithMessages produces a completion for a chat conversation.
	GenerateWithMessages(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)

	// Close closes the provider and releases resources.
	Close() error
}
