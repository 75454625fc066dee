// Package core provides the main AgentMind client and memory management
// functionality.
package core

import (
	"time"

	"github.com/agentmind/agentmind-go/pkg/recall"
	"github.com/agentmind/agentmind-go/pkg/retention"
	"github.com/agentmind/agentmind-go/pkg/stats"
	"github.com/agentmind/agentmind-go/pkg/store"
)

// Memory is a stored memory as seen by client callers.
type Memory struct {
	// ID is the stable identifier of the memory.
	ID string `json:"id"`

	// Content is the original content passed to Remember.
	Content interface{} `json:"content"`

	// Text is the linearized text form used for embedding and search.
	Text string `json:"text"`

	// UserID identifies the user who owns this memory.
	UserID string `json:"user_id,omitempty"`

	// SessionID identifies the session this memory belongs to.
	SessionID string `json:"session_id,omitempty"`

	// Category is a free-form grouping label (e.g. "preference", "fact").
	Category string `json:"category,omitempty"`

	// Importance is the caller-assigned weight in [0,1].
	Importance float64 `json:"importance"`

	// Confidence is the caller-assigned certainty in [0,1].
	Confidence float64 `json:"confidence"`

	// Critical marks the memory as exempt from retention deletion.
	Critical bool `json:"critical,omitempty"`

	// Type is a free-form kind label (e.g. "conversation").
	Type string `json:"type,omitempty"`

	// Metadata carries any additional caller-supplied keys.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is the UTC creation time.
	CreatedAt time.Time `json:"created_at"`

	// Size is the serialized content size in bytes.
	Size int `json:"size"`
}

// Strategy selects the recall ranking algorithm.
type Strategy = recall.Strategy

// Recall strategies re-exported for client callers.
const (
	StrategyExact    = recall.StrategyExact
	StrategySemantic = recall.StrategySemantic
	StrategyRecency  = recall.StrategyRecency
	StrategyHybrid   = recall.StrategyHybrid
)

// RecallResult is one ranked memory returned by Recall.
type RecallResult = recall.Result

// MemorySummary is a truncated listing entry.
type MemorySummary = store.Summary

// Stats is a point-in-time view of store usage.
type Stats = stats.Stats

// Export is a complete per-user data dump.
type Export = retention.Export

// Item is one entry of a batch Remember.
type Item struct {
	// Content is the memory content (string or JSON-serializable value).
	Content interface{}

	// Metadata carries optional memory metadata.
	Metadata map[string]interface{}

	// ID optionally pins the memory to an explicit identifier.
	ID string
}

// ItemResult reports the outcome of one batch position. Exactly one of ID
// and Err is meaningful.
type ItemResult struct {
	ID  string
	Err error
}
