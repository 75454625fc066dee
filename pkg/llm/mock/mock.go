// Package mock provides an offline llm.Provider for tests and examples.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentmind/agentmind-go/pkg/llm"
)

// Provider is a canned LLM that produces deterministic output without any
// network access. If Response is set it is returned verbatim; otherwise the
// provider echoes a short digest of the input.
type Provider struct {
	Response string
	Err      error

	calls []string
}

// New creates a mock provider with no fixed response.
func New() *Provider {
	return &Provider{}
}

// Generate returns the canned response, or a digest of the prompt.
func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Err != nil {
		return "", p.Err
	}

	p.calls = append(p.calls, prompt)
	if p.Response != "" {
		return p.Response, nil
	}

	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	return fmt.Sprintf("Summary of %d lines of input.", len(lines)), nil
}

// GenerateWithMessages joins the message contents and delegates to Generate.
func (p *Provider) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	parts := make([]string, len(messages))
	for i, msg := range messages {
		parts[i] = msg.Content
	}
	return p.Generate(ctx, strings.Join(parts, "\n"), opts...)
}

// Calls returns the prompts seen so far.
func (p *Provider) Calls() []string {
	return p.calls
}

// Close does nothing.
func (p *Provider) Close() error {
	return nil
}
