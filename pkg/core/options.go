package core

import (
	"github.com/agentmind/agentmind-go/pkg/store"
)

// RememberOption is a function type for configuring Remember operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type RememberOption func(*RememberOptions)

// RememberOptions contains configuration options for Remember operations.
type RememberOptions struct {
	// ID pins the memory to an explicit identifier. When empty the id is
	// derived from the content.
	ID string

	// UserID identifies the user who owns this memory.
	UserID string

	// SessionID identifies the session this memory belongs to.
	SessionID string

	// Category is a free-form grouping label.
	Category string

	// Type is a free-form kind label (e.g. "conversation", "fact").
	Type string

	// Importance is the memory weight in [0,1].
	Importance *float64

	// Confidence is the memory certainty in [0,1].
	Confidence *float64

	// Critical exempts the memory from retention deletion.
	Critical bool

	// Metadata contains additional metadata about the memory.
	Metadata map[string]interface{}
}

func applyRememberOptions(opts []RememberOption) *RememberOptions {
	options := &RememberOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// metadataMap flattens the options into the open metadata map the store
// consumes. Explicit option setters win over raw Metadata keys.
func (o *RememberOptions) metadataMap() map[string]interface{} {
	metadata := make(map[string]interface{}, len(o.Metadata)+7)
	for k, v := range o.Metadata {
		metadata[k] = v
	}
	if o.UserID != "" {
		metadata[store.MetaUserID] = o.UserID
	}
	if o.SessionID != "" {
		metadata[store.MetaSessionID] = o.SessionID
	}
	if o.Category != "" {
		metadata[store.MetaCategory] = o.Category
	}
	if o.Type != "" {
		metadata[store.MetaType] = o.Type
	}
	if o.Importance != nil {
		metadata[store.MetaImportance] = *o.Importance
	}
	if o.Confidence != nil {
		metadata[store.MetaConfidence] = *o.Confidence
	}
	if o.Critical {
		metadata[store.MetaCritical] = true
	}
	return metadata
}

// WithID pins the memory to an explicit identifier.
//
// Example:
//
//	id, _ := client.Remember(ctx, "content", core.WithID("mem_custom_001"))
func WithID(id string) RememberOption {
	return func(opts *RememberOptions) {
		opts.ID = id
	}
}

// WithUserID sets the user ID for Remember operations.
//
// Example:
//
//	id, _ := client.Remember(ctx, "content", core.WithUserID("user_001"))
func WithUserID(userID string) RememberOption {
	return func(opts *RememberOptions) {
		opts.UserID = userID
	}
}

// WithSessionID sets the session ID for Remember operations.
//
// Example:
//
//	id, _ := client.Remember(ctx, "content", core.WithSessionID("sess_001"))
func WithSessionID(sessionID string) RememberOption {
	return func(opts *RememberOptions) {
		opts.SessionID = sessionID
	}
}

// WithCategory sets the category label for Remember operations.
//
// Example:
//
//	id, _ := client.Remember(ctx, "content", core.WithCategory("preference"))
func WithCategory(category string) RememberOption {
	return func(opts *RememberOptions) {
		opts.Category = category
	}
}

// WithType sets the kind label for Remember operations.
func WithType(memoryType string) RememberOption {
	return func(opts *RememberOptions) {
		opts.Type = memoryType
	}
}

// WithImportance sets the memory importance in [0,1].
//
// Example:
//
//	id, _ := client.Remember(ctx, "content", core.WithImportance(0.9))
func WithImportance(importance float64) RememberOption {
	return func(opts *RememberOptions) {
		opts.Importance = &importance
	}
}

// WithConfidence sets the memory confidence in [0,1].
func WithConfidence(confidence float64) RememberOption {
	return func(opts *RememberOptions) {
		opts.Confidence = &confidence
	}
}

// WithCritical marks the memory as exempt from retention deletion.
//
// Example:
//
//	id, _ := client.Remember(ctx, "content", core.WithCritical())
func WithCritical() RememberOption {
	return func(opts *RememberOptions) {
		opts.Critical = true
	}
}

// WithMetadata sets additional metadata for Remember operations.
//
// Recognized keys (user_id, session_id, category, importance, confidence,
// critical, type) are validated and typed; everything else is carried
// verbatim.
//
// Example:
//
//	id, _ := client.Remember(ctx, "content",
//	    core.WithMetadata(map[string]interface{}{
//	        "source": "conversation",
//	    }),
//	)
func WithMetadata(metadata map[string]interface{}) RememberOption {
	return func(opts *RememberOptions) {
		opts.Metadata = metadata
	}
}

// RecallOption is a function type for configuring Recall operations.
type RecallOption func(*RecallOptions)

// RecallOptions contains configuration options for Recall operations.
type RecallOptions struct {
	// Strategy selects the ranking algorithm (default semantic).
	Strategy Strategy

	// Limit caps the number of results (default 10).
	Limit int

	// UserID is a hard scope: only that user's memories are candidates.
	UserID string

	// Category restricts candidates to one category.
	Category string

	// SessionID restricts candidates to one session.
	SessionID string
}

func applyRecallOptions(opts []RecallOption) *RecallOptions {
	options := &RecallOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithStrategy selects the recall ranking strategy.
//
// Example:
//
//	results, _ := client.Recall(ctx, "query", core.WithStrategy(core.StrategyHybrid))
func WithStrategy(strategy Strategy) RecallOption {
	return func(opts *RecallOptions) {
		opts.Strategy = strategy
	}
}

// WithLimit caps the number of recall results.
//
// Example:
//
//	results, _ := client.Recall(ctx, "query", core.WithLimit(5))
func WithLimit(limit int) RecallOption {
	return func(opts *RecallOptions) {
		opts.Limit = limit
	}
}

// WithUserIDForRecall scopes recall to one user's memories.
//
// Example:
//
//	results, _ := client.Recall(ctx, "query", core.WithUserIDForRecall("user_001"))
func WithUserIDForRecall(userID string) RecallOption {
	return func(opts *RecallOptions) {
		opts.UserID = userID
	}
}

// WithCategoryForRecall restricts recall candidates to one category.
func WithCategoryForRecall(category string) RecallOption {
	return func(opts *RecallOptions) {
		opts.Category = category
	}
}

// WithSessionIDForRecall restricts recall candidates to one session.
func WithSessionIDForRecall(sessionID string) RecallOption {
	return func(opts *RecallOptions) {
		opts.SessionID = sessionID
	}
}

// GetOption is a function type for configuring Get operations.
type GetOption func(*GetOptions)

// GetOptions contains configuration options for Get operations.
type GetOptions struct {
	// IncludeMetadata controls whether the returned memory carries its
	// metadata fields.
	IncludeMetadata bool
}

func applyGetOptions(opts []GetOption) *GetOptions {
	options := &GetOptions{IncludeMetadata: true}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithoutMetadata strips metadata from the returned memory.
//
// Example:
//
//	memory, _ := client.Get(ctx, id, core.WithoutMetadata())
func WithoutMetadata() GetOption {
	return func(opts *GetOptions) {
		opts.IncludeMetadata = false
	}
}

// ListOption is a function type for configuring List operations.
type ListOption func(*ListOptions)

// ListOptions contains configuration options for List operations.
type ListOptions struct {
	// Category restricts the listing to one category.
	Category string

	// UserID restricts the listing to one user.
	UserID string

	// SessionID restricts the listing to one session.
	SessionID string

	// Limit caps the number of summaries (default 100).
	Limit int

	// Offset skips the first N matching summaries.
	Offset int
}

func applyListOptions(opts []ListOption) *ListOptions {
	options := &ListOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithCategoryForList restricts the listing to one category.
func WithCategoryForList(category string) ListOption {
	return func(opts *ListOptions) {
		opts.Category = category
	}
}

// WithUserIDForList restricts the listing to one user.
func WithUserIDForList(userID string) ListOption {
	return func(opts *ListOptions) {
		opts.UserID = userID
	}
}

// WithSessionIDForList restricts the listing to one session.
func WithSessionIDForList(sessionID string) ListOption {
	return func(opts *ListOptions) {
		opts.SessionID = sessionID
	}
}

// WithLimitForList caps the number of summaries.
func WithLimitForList(limit int) ListOption {
	return func(opts *ListOptions) {
		opts.Limit = limit
	}
}

// WithOffset skips the first N matching summaries.
//
// Example:
//
//	page2, _ := client.List(ctx, core.WithLimitForList(20), core.WithOffset(20))
func WithOffset(offset int) ListOption {
	return func(opts *ListOptions) {
		opts.Offset = offset
	}
}
