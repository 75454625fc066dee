// Package session summarizes a session's memories with an external LLM.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/agentmind/agentmind-go/pkg/llm"
	"github.com/agentmind/agentmind-go/pkg/store"
)

// ErrEmptySession is returned when the session has no memories to
// summarize. It is a defined outcome, distinct from a summarizer failure.
var ErrEmptySession = errors.New("session has no memories")

const systemPrompt = "You are a precise assistant that summarizes conversation memories. " +
	"Produce a short summary capturing the key facts, decisions and preferences, in chronological order."

// Aggregator builds session summaries from stored memories.
type Aggregator struct {
	store *store.MemoryStore
	llm   llm.Provider
}

// New creates a session aggregator over the given store and LLM provider.
func New(st *store.MemoryStore, provider llm.Provider) (*Aggregator, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is required", store.ErrInvalidArgument)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: llm provider is required", store.ErrInvalidArgument)
	}
	return &Aggregator{store: st, llm: provider}, nil
}

// Summarize returns a summary of the session's memories in chronological
// order. It returns ErrEmptySession when the session has no memories, and a
// dependency error when the summarizer fails; the two are never conflated.
func (a *Aggregator) Summarize(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is required", store.ErrInvalidArgument)
	}

	recs := a.store.SessionRecords(sessionID)
	if len(recs) == 0 {
		return "", fmt.Errorf("%w: %q", ErrEmptySession, sessionID)
	}

	var sb strings.Builder
	for i, rec := range recs {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rec.Text)
	}

	summary, err := a.llm.GenerateWithMessages(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Summarize the following memories:\n\n" + sb.String()},
	})
	if err != nil {
		return "", store.DependencyError(err)
	}

	log.Debug("summarized session", "session_id", sessionID, "records", len(recs))
	return summary, nil
}
