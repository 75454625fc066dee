package core

import (
	"context"
	"fmt"
	"time"

	"github.com/agentmind/agentmind-go/pkg/embedder"
	mockEmbedder "github.com/agentmind/agentmind-go/pkg/embedder/mock"
	openaiEmbedder "github.com/agentmind/agentmind-go/pkg/embedder/openai"
	"github.com/agentmind/agentmind-go/pkg/index"
	chromemIndex "github.com/agentmind/agentmind-go/pkg/index/chromem"
	"github.com/agentmind/agentmind-go/pkg/llm"
	mockLLM "github.com/agentmind/agentmind-go/pkg/llm/mock"
	openaiLLM "github.com/agentmind/agentmind-go/pkg/llm/openai"
	"github.com/agentmind/agentmind-go/pkg/recall"
	"github.com/agentmind/agentmind-go/pkg/retention"
	"github.com/agentmind/agentmind-go/pkg/session"
	"github.com/agentmind/agentmind-go/pkg/stats"
	"github.com/agentmind/agentmind-go/pkg/store"
	mysqlStore "github.com/agentmind/agentmind-go/pkg/store/mysql"
	postgresStore "github.com/agentmind/agentmind-go/pkg/store/postgres"
	sqliteStore "github.com/agentmind/agentmind-go/pkg/store/sqlite"
)

// Client is the main AgentMind client for memory management.
//
// It provides a complete interface for storing, recalling, and managing
// memories with support for:
//   - Content-addressed deduplication
//   - Multiple recall strategies (exact, semantic, recency, hybrid)
//   - Session summarization
//   - Time-based retention with critical-memory protection
//   - Per-user data export
//
// The client is safe for concurrent use from multiple goroutines.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(ctx, config)
//	defer client.Close()
//
//	id, _ := client.Remember(ctx, "User prefers dark mode",
//	    core.WithUserID("user_001"),
//	    core.WithCategory("preference"),
//	)
type Client struct {
	config    *Config
	store     *store.MemoryStore
	engine    *recall.Engine
	sessions  *session.Aggregator
	retention *retention.Manager
	stats     *stats.Aggregator
	embedder  embedder.Provider
	llm       llm.Provider
}

// NewClient creates a new AgentMind client.
//
// The client is initialized with:
//   - Persistence backend (in-memory, SQLite, PostgreSQL, or MySQL)
//   - Embedding provider (OpenAI, or the offline mock)
//   - LLM provider for summarization (OpenAI, or the offline mock)
//
// Any memories already persisted by the backend are loaded and reindexed
// before the client is returned.
//
// Example:
//
//	config := &core.Config{
//	    Embedder: core.EmbedderConfig{Provider: "openai", APIKey: "sk-..."},
//	    LLM:      core.LLMConfig{Provider: "openai", APIKey: "sk-..."},
//	    Storage:  core.StorageConfig{Provider: "sqlite", Config: map[string]interface{}{"db_path": "./memories.db"}},
//	}
//	client, err := core.NewClient(ctx, config)
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedderProvider, err := initEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}

	llmProvider, err := initLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}

	backend, err := initBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}

	vindex, err := initVectorIndex(cfg.Index, embedderProvider.Dimensions())
	if err != nil {
		return nil, err
	}

	memStore, err := store.New(ctx, embedderProvider, vindex, backend, store.Config{
		Dimensions: embedderProvider.Dimensions(),
		StrictIDs:  cfg.StrictIDs,
	})
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	engine, err := recall.New(memStore, embedderProvider, recall.Config{
		HalfLife:         cfg.Recall.HalfLife,
		SemanticWeight:   cfg.Recall.SemanticWeight,
		RecencyWeight:    cfg.Recall.RecencyWeight,
		ImportanceWeight: cfg.Recall.ImportanceWeight,
		WidenFactor:      cfg.Recall.WidenFactor,
	})
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	sessions, err := session.New(memStore, llmProvider)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	retentionManager, err := retention.New(memStore)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	statsAggregator, err := stats.New(memStore)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	return &Client{
		config:    cfg,
		store:     memStore,
		engine:    engine,
		sessions:  sessions,
		retention: retentionManager,
		stats:     statsAggregator,
		embedder:  embedderProvider,
		llm:       llmProvider,
	}, nil
}

// Remember stores a memory and returns its id.
//
// Content may be a string or any JSON-serializable value. Without an
// explicit id the memory is deduplicated by content: remembering identical
// content for the same user returns the existing id without creating a
// second record.
//
// Example:
//
//	id, err := client.Remember(ctx, "User prefers dark mode",
//	    core.WithUserID("user_001"),
//	    core.WithCategory("preference"),
//	    core.WithImportance(0.8),
//	)
func (c *Client) Remember(ctx context.Context, content interface{}, opts ...RememberOption) (string, error) {
	options := applyRememberOptions(opts)

	id, err := c.store.Remember(ctx, content, options.metadataMap(), options.ID)
	if err != nil {
		return "", NewMemoryError("Remember", err)
	}
	return id, nil
}

// RememberBatch stores multiple memories in one call.
//
// The batch is not atomic: each position succeeds or fails on its own, and
// results come back in input order. A non-empty userID fills in user_id for
// items that do not set one.
//
// Example:
//
//	results := client.RememberBatch(ctx, []core.Item{
//	    {Content: "Favorite color is blue"},
//	    {Content: "Works in fintech"},
//	}, "user_001")
func (c *Client) RememberBatch(ctx context.Context, items []Item, userID string) []ItemResult {
	batch := make([]store.BatchItem, len(items))
	for i, item := range items {
		batch[i] = store.BatchItem{
			Content:  item.Content,
			Metadata: item.Metadata,
			ID:       item.ID,
		}
	}

	results := make([]ItemResult, len(items))
	for i, res := range c.store.RememberBatch(ctx, batch, userID) {
		results[i] = ItemResult{
			ID:  res.ID,
			Err: NewMemoryError("RememberBatch", res.Err),
		}
	}
	return results
}

// Recall ranks stored memories against the query and returns the best
// matches. The default strategy is semantic with a limit of 10. Recall over
// an empty or filtered-to-empty store returns an empty slice, not an error.
//
// Example:
//
//	results, err := client.Recall(ctx, "what are the user's preferences",
//	    core.WithStrategy(core.StrategyHybrid),
//	    core.WithUserIDForRecall("user_001"),
//	    core.WithLimit(5),
//	)
func (c *Client) Recall(ctx context.Context, query string, opts ...RecallOption) ([]RecallResult, error) {
	options := applyRecallOptions(opts)

	results, err := c.engine.Recall(ctx, recall.Query{
		Text:     query,
		Strategy: options.Strategy,
		Limit:    options.Limit,
		UserID:   options.UserID,
		Filters: store.Filters{
			Category:  options.Category,
			SessionID: options.SessionID,
		},
	})
	if err != nil {
		return nil, NewMemoryError("Recall", err)
	}
	return results, nil
}

// Get retrieves a memory by its id.
//
// Example:
//
//	memory, err := client.Get(ctx, id)
//	memory, err := client.Get(ctx, id, core.WithoutMetadata())
func (c *Client) Get(ctx context.Context, id string, opts ...GetOption) (*Memory, error) {
	options := applyGetOptions(opts)

	rec, err := c.store.Get(id, options.IncludeMetadata)
	if err != nil {
		return nil, NewMemoryError("Get", err)
	}
	return memoryFromRecord(rec), nil
}

// Exists reports whether a memory with the given id is stored.
func (c *Client) Exists(id string) bool {
	return c.store.Exists(id)
}

// Delete removes a memory. It returns false without error when the id is
// absent.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := c.store.Delete(ctx, id)
	if err != nil {
		return false, NewMemoryError("Delete", err)
	}
	return deleted, nil
}

// UpdateConfidence sets a memory's confidence. Values outside [0,1] fail
// with ErrInvalidArgument; an absent id returns false without error.
func (c *Client) UpdateConfidence(ctx context.Context, id string, confidence float64) (bool, error) {
	updated, err := c.store.UpdateConfidence(ctx, id, confidence)
	if err != nil {
		return false, NewMemoryError("UpdateConfidence", err)
	}
	return updated, nil
}

// List returns truncated summaries of matching memories, newest first.
//
// Example:
//
//	summaries, _ := client.List(ctx,
//	    core.WithUserIDForList("user_001"),
//	    core.WithLimitForList(20),
//	)
func (c *Client) List(ctx context.Context, opts ...ListOption) ([]MemorySummary, error) {
	options := applyListOptions(opts)

	return c.store.List(store.ListOptions{
		Filters: store.Filters{
			Category:  options.Category,
			UserID:    options.UserID,
			SessionID: options.SessionID,
		},
		Limit:  options.Limit,
		Offset: options.Offset,
	}), nil
}

// GetFacts returns full memories of the "fact" type, optionally scoped to a
// category and user, newest first. A zero limit returns all matches.
func (c *Client) GetFacts(ctx context.Context, category, userID string, limit int) ([]*Memory, error) {
	recs := c.store.Records(store.Filters{Category: category, UserID: userID})

	memories := make([]*Memory, 0, len(recs))
	for _, rec := range recs {
		if rec.Meta.Type != "" && rec.Meta.Type != "fact" {
			continue
		}
		memories = append(memories, memoryFromRecord(rec))
		if limit > 0 && len(memories) == limit {
			break
		}
	}
	return memories, nil
}

// GetRecent returns memories created within the given window, newest first,
// optionally scoped to a user. A zero limit returns all matches.
//
// Example:
//
//	recent, _ := client.GetRecent(ctx, 24*time.Hour, "user_001", 10)
func (c *Client) GetRecent(ctx context.Context, window time.Duration, userID string, limit int) ([]*Memory, error) {
	if window <= 0 {
		return nil, NewMemoryError("GetRecent",
			fmt.Errorf("%w: window must be positive", ErrInvalidArgument))
	}

	since := time.Now().UTC().Add(-window)
	recs := c.store.CreatedSince(since, store.Filters{UserID: userID})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return memoriesFromRecords(recs), nil
}

// SummarizeSession summarizes a session's memories in chronological order.
// It returns ErrEmptySession when the session has no memories; summarizer
// failures surface as dependency errors, never as an empty summary.
//
// Example:
//
//	summary, err := client.SummarizeSession(ctx, "sess_001")
//	if errors.Is(err, core.ErrEmptySession) {
//	    // no memories in this session
//	}
func (c *Client) SummarizeSession(ctx context.Context, sessionID string) (string, error) {
	summary, err := c.sessions.Summarize(ctx, sessionID)
	if err != nil {
		return "", NewMemoryError("SummarizeSession", err)
	}
	return summary, nil
}

// ForgetBefore deletes memories created strictly before cutoff, optionally
// scoped to a user, and returns the count deleted. Memories marked critical
// are never deleted.
//
// Example:
//
//	deleted, _ := client.ForgetBefore(ctx, time.Now().AddDate(0, -6, 0), "user_001")
func (c *Client) ForgetBefore(ctx context.Context, cutoff time.Time, userID string) (int, error) {
	deleted, err := c.retention.ForgetBefore(ctx, cutoff, userID)
	if err != nil {
		return deleted, NewMemoryError("ForgetBefore", err)
	}
	return deleted, nil
}

// ExportUserData returns every memory for the user with content and
// metadata verbatim, for compliance purposes.
func (c *Client) ExportUserData(ctx context.Context, userID string) (*Export, error) {
	export, err := c.retention.ExportUserData(userID)
	if err != nil {
		return nil, NewMemoryError("ExportUserData", err)
	}
	return export, nil
}

// GetStats returns current usage statistics with the top categories by
// count.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	return c.stats.Collect(0), nil
}

// Close closes the client and releases all resources.
//
// Returns the first error encountered during cleanup, or nil if all
// resources were closed successfully.
//
// Example:
//
//	defer client.Close()
func (c *Client) Close() error {
	var errs []error

	c.engine.Close()

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.embedder != nil {
		if err := c.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}

	return nil
}

// initBackend initializes the persistence backend.
func initBackend(cfg StorageConfig) (store.Backend, error) {
	switch cfg.Provider {
	case "memory", "":
		return store.NoopBackend{}, nil
	case "sqlite":
		backend, err := sqliteStore.NewBackend(&sqliteStore.Config{
			DBPath:    stringValue(cfg.Config, "db_path"),
			TableName: stringValue(cfg.Config, "table_name"),
		})
		if err != nil {
			return nil, NewMemoryError("initBackend", err)
		}
		return backend, nil
	case "postgres":
		backend, err := postgresStore.NewBackend(&postgresStore.Config{
			Host:      stringValue(cfg.Config, "host"),
			Port:      intValue(cfg.Config, "port"),
			User:      stringValue(cfg.Config, "user"),
			Password:  stringValue(cfg.Config, "password"),
			DBName:    stringValue(cfg.Config, "db_name"),
			TableName: stringValue(cfg.Config, "table_name"),
			SSLMode:   stringValue(cfg.Config, "ssl_mode"),
		})
		if err != nil {
			return nil, NewMemoryError("initBackend", err)
		}
		return backend, nil
	case "mysql":
		backend, err := mysqlStore.NewBackend(&mysqlStore.Config{
			Host:      stringValue(cfg.Config, "host"),
			Port:      intValue(cfg.Config, "port"),
			User:      stringValue(cfg.Config, "user"),
			Password:  stringValue(cfg.Config, "password"),
			DBName:    stringValue(cfg.Config, "db_name"),
			TableName: stringValue(cfg.Config, "table_name"),
		})
		if err != nil {
			return nil, NewMemoryError("initBackend", err)
		}
		return backend, nil
	default:
		return nil, NewMemoryError("initBackend", ErrInvalidConfig)
	}
}

// initEmbedder initializes the embedding provider.
func initEmbedder(cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "mock":
		return mockEmbedder.NewWithDimensions(cfg.Dimensions), nil
	default:
		return nil, NewMemoryError("initEmbedder", ErrInvalidConfig)
	}
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "mock":
		return mockLLM.New(), nil
	default:
		return nil, NewMemoryError("initLLM", ErrInvalidConfig)
	}
}

// initVectorIndex initializes the vector index.
func initVectorIndex(cfg IndexConfig, dimensions int) (index.VectorIndex, error) {
	switch cfg.Provider {
	case "brute", "":
		return index.NewBrute(dimensions), nil
	case "chromem":
		idx, err := chromemIndex.New(dimensions)
		if err != nil {
			return nil, NewMemoryError("initVectorIndex", err)
		}
		return idx, nil
	default:
		return nil, NewMemoryError("initVectorIndex", ErrInvalidConfig)
	}
}

func stringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intValue(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
