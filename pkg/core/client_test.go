package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmind/agentmind-go/pkg/core"
)

func testConfig() *core.Config {
	return &core.Config{
		Embedder: core.EmbedderConfig{Provider: "mock", Dimensions: 64},
		LLM:      core.LLMConfig{Provider: "mock"},
		Storage:  core.StorageConfig{Provider: "memory"},
	}
}

func newTestClient(t *testing.T) *core.Client {
	t.Helper()
	client, err := core.NewClient(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := core.NewClient(context.Background(), &core.Config{})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewClient_UnknownProviders(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Config)
	}{
		{"embedder", func(c *core.Config) { c.Embedder.Provider = "carrier-pigeon" }},
		{"llm", func(c *core.Config) { c.LLM.Provider = "carrier-pigeon" }},
		{"storage", func(c *core.Config) { c.Storage.Provider = "carrier-pigeon" }},
		{"index", func(c *core.Config) { c.Index.Provider = "carrier-pigeon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := core.NewClient(context.Background(), cfg)
			assert.ErrorIs(t, err, core.ErrInvalidConfig)
		})
	}
}

func TestClient_RememberAndGet(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	id, err := client.Remember(ctx, "User prefers dark mode",
		core.WithUserID("user_001"),
		core.WithSessionID("sess_001"),
		core.WithCategory("preference"),
		core.WithType("fact"),
		core.WithImportance(0.8),
		core.WithConfidence(0.9),
		core.WithCritical(),
		core.WithMetadata(map[string]interface{}{"source": "conversation"}),
	)
	require.NoError(t, err)
	assert.True(t, client.Exists(id))

	memory, err := client.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, memory.ID)
	assert.Equal(t, "User prefers dark mode", memory.Content)
	assert.Equal(t, "User prefers dark mode", memory.Text)
	assert.Equal(t, "user_001", memory.UserID)
	assert.Equal(t, "sess_001", memory.SessionID)
	assert.Equal(t, "preference", memory.Category)
	assert.Equal(t, "fact", memory.Type)
	assert.Equal(t, 0.8, memory.Importance)
	assert.Equal(t, 0.9, memory.Confidence)
	assert.True(t, memory.Critical)
	assert.Equal(t, "conversation", memory.Metadata["source"])
	assert.False(t, memory.CreatedAt.IsZero())
}

func TestClient_GetWithoutMetadata(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	id, err := client.Remember(ctx, "stripped memory",
		core.WithUserID("user_001"),
		core.WithCategory("preference"),
	)
	require.NoError(t, err)

	memory, err := client.Get(ctx, id, core.WithoutMetadata())
	require.NoError(t, err)
	assert.Equal(t, "stripped memory", memory.Content)
	assert.Empty(t, memory.UserID)
	assert.Empty(t, memory.Category)
	assert.Nil(t, memory.Metadata)
}

func TestClient_GetNotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Get(context.Background(), "mem_missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	var memErr *core.MemoryError
	require.ErrorAs(t, err, &memErr)
	assert.Equal(t, "Get", memErr.Op)
}

func TestClient_RememberDeduplicates(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first, err := client.Remember(ctx, "User likes Go", core.WithUserID("user_001"))
	require.NoError(t, err)
	second, err := client.Remember(ctx, "  user likes   GO  ", core.WithUserID("user_001"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := client.Remember(ctx, "User likes Go", core.WithUserID("user_002"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	stats, err := client.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMemories)
}

func TestClient_StrictIDsRejectDuplicates(t *testing.T) {
	cfg := testConfig()
	cfg.StrictIDs = true
	client, err := core.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()

	_, err = client.Remember(ctx, "first write", core.WithID("mem_pinned"))
	require.NoError(t, err)

	_, err = client.Remember(ctx, "second write", core.WithID("mem_pinned"))
	assert.ErrorIs(t, err, core.ErrDuplicateID)

	// The original record is untouched.
	memory, err := client.Get(ctx, "mem_pinned")
	require.NoError(t, err)
	assert.Equal(t, "first write", memory.Content)
}

func TestClient_RememberBatch(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	results := client.RememberBatch(ctx, []core.Item{
		{Content: "Favorite color is blue"},
		{Content: "Works in fintech", Metadata: map[string]interface{}{"category": "fact"}},
		{Content: "Bad importance", Metadata: map[string]interface{}{"importance": 3.5}},
	}, "user_001")

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.ErrorIs(t, results[2].Err, core.ErrInvalidArgument)

	// The common user id was applied to the successful items.
	memory, err := client.Get(ctx, results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "user_001", memory.UserID)
}

func TestClient_RecallSemantic(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	target, err := client.Remember(ctx, "the user works in fintech", core.WithUserID("user_001"))
	require.NoError(t, err)
	_, err = client.Remember(ctx, "meeting on tuesday", core.WithUserID("user_001"))
	require.NoError(t, err)

	results, err := client.Recall(ctx, "the user works in fintech",
		core.WithUserIDForRecall("user_001"),
		core.WithLimit(1),
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, target, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestClient_RecallUserScope(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	mine, err := client.Remember(ctx, "quarterly revenue numbers", core.WithUserID("user_001"))
	require.NoError(t, err)
	_, err = client.Remember(ctx, "quarterly revenue numbers", core.WithUserID("user_002"))
	require.NoError(t, err)

	results, err := client.Recall(ctx, "quarterly revenue numbers",
		core.WithStrategy(core.StrategyHybrid),
		core.WithUserIDForRecall("user_001"),
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mine, results[0].ID)
}

func TestClient_RecallEmptyStore(t *testing.T) {
	client := newTestClient(t)

	results, err := client.Recall(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_DeleteTwice(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	id, err := client.Remember(ctx, "ephemeral")
	require.NoError(t, err)

	deleted, err := client.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, client.Exists(id))

	deleted, err = client.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestClient_UpdateConfidence(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	id, err := client.Remember(ctx, "tentative fact")
	require.NoError(t, err)

	updated, err := client.UpdateConfidence(ctx, id, 0.3)
	require.NoError(t, err)
	assert.True(t, updated)

	memory, err := client.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0.3, memory.Confidence)

	_, err = client.UpdateConfidence(ctx, id, 1.5)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	updated, err = client.UpdateConfidence(ctx, "mem_missing", 0.5)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestClient_List(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, content := range []string{"note one", "note two", "note three"} {
		_, err := client.Remember(ctx, content,
			core.WithUserID("user_001"),
			core.WithCategory("notes"),
		)
		require.NoError(t, err)
	}
	_, err := client.Remember(ctx, "other user's note", core.WithUserID("user_002"))
	require.NoError(t, err)

	summaries, err := client.List(ctx,
		core.WithUserIDForList("user_001"),
		core.WithCategoryForList("notes"),
		core.WithLimitForList(2),
	)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
	for _, summary := range summaries {
		assert.Equal(t, "notes", summary.Category)
	}
}

func TestClient_GetFacts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Remember(ctx, "typed fact",
		core.WithUserID("user_001"), core.WithType("fact"))
	require.NoError(t, err)
	_, err = client.Remember(ctx, "untyped memory", core.WithUserID("user_001"))
	require.NoError(t, err)
	_, err = client.Remember(ctx, "a conversation turn",
		core.WithUserID("user_001"), core.WithType("conversation"))
	require.NoError(t, err)

	facts, err := client.GetFacts(ctx, "", "user_001", 0)
	require.NoError(t, err)
	assert.Len(t, facts, 2)
	for _, fact := range facts {
		assert.NotEqual(t, "conversation", fact.Type)
	}
}

func TestClient_GetRecent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Remember(ctx, "fresh memory", core.WithUserID("user_001"))
	require.NoError(t, err)

	recent, err := client.GetRecent(ctx, time.Hour, "user_001", 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	_, err = client.GetRecent(ctx, 0, "user_001", 0)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestClient_SummarizeSession(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.SummarizeSession(ctx, "empty_session")
	assert.ErrorIs(t, err, core.ErrEmptySession)

	_, err = client.Remember(ctx, "Discussed the memory layer design",
		core.WithSessionID("sess_001"))
	require.NoError(t, err)
	_, err = client.Remember(ctx, "Agreed on a hybrid recall default",
		core.WithSessionID("sess_001"))
	require.NoError(t, err)

	summary, err := client.SummarizeSession(ctx, "sess_001")
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
}

func TestClient_ForgetBeforeAndExport(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Remember(ctx, "disposable memory", core.WithUserID("user_001"))
	require.NoError(t, err)
	keptID, err := client.Remember(ctx, "account number on file",
		core.WithUserID("user_001"), core.WithCritical())
	require.NoError(t, err)

	deleted, err := client.ForgetBefore(ctx, time.Now().UTC().Add(time.Minute), "user_001")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.True(t, client.Exists(keptID))

	export, err := client.ExportUserData(ctx, "user_001")
	require.NoError(t, err)
	assert.Equal(t, 1, export.MemoryCount)
	assert.Equal(t, keptID, export.Records[0].ID)
}

func TestClient_GetStats(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Remember(ctx, "a", core.WithUserID("u1"), core.WithCategory("business"))
	require.NoError(t, err)
	_, err = client.Remember(ctx, "b", core.WithUserID("u2"), core.WithCategory("business"))
	require.NoError(t, err)

	stats, err := client.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMemories)
	assert.Equal(t, 2, stats.TotalUsers)
	require.Len(t, stats.PopularCategories, 1)
	assert.Equal(t, "business", stats.PopularCategories[0].Category)
	assert.Equal(t, 2, stats.PopularCategories[0].Count)
}

func TestAsyncClient_Operations(t *testing.T) {
	asyncClient, err := core.NewAsyncClient(context.Background(), testConfig())
	require.NoError(t, err)
	defer asyncClient.Close()
	ctx := context.Background()

	rememberRes := <-asyncClient.RememberAsync(ctx, "User likes Go", core.WithUserID("user_001"))
	require.NoError(t, rememberRes.Error)
	assert.NotEmpty(t, rememberRes.ID)

	recallRes := <-asyncClient.RecallAsync(ctx, "User likes Go",
		core.WithUserIDForRecall("user_001"))
	require.NoError(t, recallRes.Error)
	require.NotEmpty(t, recallRes.Results)
	assert.Equal(t, rememberRes.ID, recallRes.Results[0].ID)

	summaryRes := <-asyncClient.SummarizeSessionAsync(ctx, "no_session")
	assert.ErrorIs(t, summaryRes.Error, core.ErrEmptySession)

	forgetRes := <-asyncClient.ForgetBeforeAsync(ctx, time.Now().UTC().Add(time.Minute), "")
	require.NoError(t, forgetRes.Error)
	assert.Equal(t, 1, forgetRes.Deleted)

	require.NoError(t, <-asyncClient.DeleteAsync(ctx, "mem_missing"))

	asyncClient.Wait()
}

func TestClient_RecallStream(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for _, content := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		_, err := client.Remember(ctx, content, core.WithUserID("user_001"))
		require.NoError(t, err)
	}

	var batches []*core.StreamingRecallResult
	for batch := range client.RecallStream(ctx, "alpha", 2,
		core.WithUserIDForRecall("user_001"),
		core.WithLimit(5),
	) {
		require.NoError(t, batch.Error)
		batches = append(batches, batch)
	}

	require.Len(t, batches, 3)
	total := 0
	for i, batch := range batches {
		assert.Equal(t, i, batch.BatchIndex)
		total += len(batch.Results)
	}
	assert.Equal(t, 5, total)
	assert.True(t, batches[2].IsLastBatch)
	assert.False(t, batches[0].IsLastBatch)
}

func TestClient_RememberStream(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	contents := []string{"one", "two", "three", "four"}
	items := make(chan core.StreamItem)
	results := client.RememberStream(ctx, items, 2, "user_001")

	go func() {
		for i, content := range contents {
			items <- core.StreamItem{Index: i, Item: core.Item{Content: content}}
		}
		close(items)
	}()

	seen := make(map[int]string)
	for res := range results {
		require.NoError(t, res.Error)
		seen[res.Index] = res.ID
	}

	require.Len(t, seen, len(contents))
	for i := range contents {
		assert.True(t, client.Exists(seen[i]), "item %d", i)
	}
}
