package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embmock "github.com/agentmind/agentmind-go/pkg/embedder/mock"
	"github.com/agentmind/agentmind-go/pkg/index"
	"github.com/agentmind/agentmind-go/pkg/store"
)

func newTestStore(t *testing.T, cfg store.Config) *store.MemoryStore {
	t.Helper()

	emb := embmock.NewWithDimensions(16)
	s, err := store.New(context.Background(), emb, index.NewBrute(16), nil, cfg)
	require.NoError(t, err)
	return s
}

func TestMemoryStore_RememberAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	id, err := s.Remember(ctx, "User prefers dark mode", map[string]interface{}{
		"user_id":  "u1",
		"category": "preference",
	}, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.Get(id, true)
	require.NoError(t, err)
	assert.Equal(t, "User prefers dark mode", rec.Content)
	assert.Equal(t, "User prefers dark mode", rec.Text)
	assert.Equal(t, "u1", rec.Meta.UserID)
	assert.Equal(t, "preference", rec.Meta.Category)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Len(t, rec.Embedding, 16)

	// Metadata is stripped on request.
	bare, err := s.Get(id, false)
	require.NoError(t, err)
	assert.Empty(t, bare.Meta.UserID)
	assert.Empty(t, bare.Meta.Category)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := newTestStore(t, store.Config{})

	_, err := s.Get("mem_missing", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_RememberDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	meta := map[string]interface{}{"user_id": "u1"}
	id1, err := s.Remember(ctx, "User prefers dark mode", meta, "")
	require.NoError(t, err)

	// Identical content after normalization maps to the same id.
	id2, err := s.Remember(ctx, "user prefers   DARK mode", meta, "")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, s.Count())
}

func TestMemoryStore_DedupIsPerUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	id1, err := s.Remember(ctx, "same content", map[string]interface{}{"user_id": "u1"}, "")
	require.NoError(t, err)
	id2, err := s.Remember(ctx, "same content", map[string]interface{}{"user_id": "u2"}, "")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, s.Count())
}

func TestMemoryStore_ExplicitIDOverwritePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	_, err := s.Remember(ctx, "first version", nil, "mem_custom")
	require.NoError(t, err)
	original, err := s.Get("mem_custom", true)
	require.NoError(t, err)

	_, err = s.Remember(ctx, "second version", map[string]interface{}{"category": "updated"}, "mem_custom")
	require.NoError(t, err)

	rec, err := s.Get("mem_custom", true)
	require.NoError(t, err)
	assert.Equal(t, "second version", rec.Content)
	assert.Equal(t, "updated", rec.Meta.Category)
	assert.True(t, rec.CreatedAt.Equal(original.CreatedAt))
	assert.Equal(t, 1, s.Count())
}

func TestMemoryStore_StrictIDsRejectDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{StrictIDs: true})

	_, err := s.Remember(ctx, "first", nil, "mem_custom")
	require.NoError(t, err)

	_, err = s.Remember(ctx, "second", nil, "mem_custom")
	assert.ErrorIs(t, err, store.ErrDuplicateID)

	rec, err := s.Get("mem_custom", true)
	require.NoError(t, err)
	assert.Equal(t, "first", rec.Content)
}

func TestMemoryStore_InvalidMetadataLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	_, err := s.Remember(ctx, "content", map[string]interface{}{"importance": 2.0}, "")
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	assert.Equal(t, 0, s.Count())
}

func TestMemoryStore_RememberBatchIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	results := s.RememberBatch(ctx, []store.BatchItem{
		{Content: "valid one"},
		{Content: "bad", Metadata: map[string]interface{}{"confidence": -1.0}},
		{Content: "valid two"},
	}, "u1")

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, store.ErrInvalidArgument)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 2, s.Count())

	// The common user id was applied.
	rec, err := s.Get(results[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.Meta.UserID)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	id, err := s.Remember(ctx, "to delete", map[string]interface{}{"user_id": "u1", "category": "tmp"}, "")
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, s.Exists(id))
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, int64(0), s.StorageUsed())
	assert.Empty(t, s.CategoryCounts())

	// Deleting again is not an error.
	deleted, err = s.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryStore_DeletedRecordNeverRecalled(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	emb := embmock.NewWithDimensions(16)
	id, err := s.Remember(ctx, "ghost memory", nil, "")
	require.NoError(t, err)

	_, err = s.Delete(ctx, id)
	require.NoError(t, err)

	query, err := emb.Embed(ctx, "ghost memory")
	require.NoError(t, err)

	hits, err := s.Nearest(ctx, query, 10, store.Filters{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryStore_UpdateConfidence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	id, err := s.Remember(ctx, "content", nil, "")
	require.NoError(t, err)

	ok, err := s.UpdateConfidence(ctx, id, 0.4)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := s.Get(id, true)
	require.NoError(t, err)
	assert.Equal(t, 0.4, rec.Meta.Confidence)

	// Absent id is false, not an error.
	ok, err = s.UpdateConfidence(ctx, "mem_missing", 0.5)
	require.NoError(t, err)
	assert.False(t, ok)

	// Out-of-range values are rejected and leave the value unchanged.
	_, err = s.UpdateConfidence(ctx, id, 1.2)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = s.UpdateConfidence(ctx, id, -0.2)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	rec, err = s.Get(id, true)
	require.NoError(t, err)
	assert.Equal(t, 0.4, rec.Meta.Confidence)
}

func TestMemoryStore_ListNewestFirstWithPreview(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{PreviewLength: 10})

	long := "this content is much longer than the preview length"
	_, err := s.Remember(ctx, long, map[string]interface{}{"user_id": "u1"}, "mem_a")
	require.NoError(t, err)
	_, err = s.Remember(ctx, "short", map[string]interface{}{"user_id": "u1"}, "mem_b")
	require.NoError(t, err)
	_, err = s.Remember(ctx, "other user", map[string]interface{}{"user_id": "u2"}, "mem_c")
	require.NoError(t, err)

	summaries := s.List(store.ListOptions{Filters: store.Filters{UserID: "u1"}})
	require.Len(t, summaries, 2)
	for _, sum := range summaries {
		assert.NotEqual(t, "mem_c", sum.ID)
	}

	byID := map[string]store.Summary{}
	for _, sum := range summaries {
		byID[sum.ID] = sum
	}
	assert.Equal(t, string([]rune(long)[:10])+"...", byID["mem_a"].Preview)
	assert.Equal(t, "short", byID["mem_b"].Preview)
}

func TestMemoryStore_ListPagination(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	for _, id := range []string{"mem_1", "mem_2", "mem_3", "mem_4"} {
		_, err := s.Remember(ctx, "content "+id, nil, id)
		require.NoError(t, err)
	}

	page1 := s.List(store.ListOptions{Limit: 2})
	page2 := s.List(store.ListOptions{Limit: 2, Offset: 2})
	require.Len(t, page1, 2)
	require.Len(t, page2, 2)

	seen := map[string]bool{}
	for _, sum := range append(page1, page2...) {
		assert.False(t, seen[sum.ID], "id %s returned twice", sum.ID)
		seen[sum.ID] = true
	}
}

func TestMemoryStore_SemanticSelfSimilarity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	emb := embmock.NewWithDimensions(16)
	id, err := s.Remember(ctx, "the exact content", nil, "")
	require.NoError(t, err)
	_, err = s.Remember(ctx, "something unrelated entirely", nil, "")
	require.NoError(t, err)

	query, err := emb.Embed(ctx, "the exact content")
	require.NoError(t, err)

	hits, err := s.Nearest(ctx, query, 2, store.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, id, hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestMemoryStore_NearestRespectsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	emb := embmock.NewWithDimensions(16)
	_, err := s.Remember(ctx, "shared content", map[string]interface{}{"user_id": "u1"}, "")
	require.NoError(t, err)
	otherID, err := s.Remember(ctx, "shared content", map[string]interface{}{"user_id": "u2"}, "")
	require.NoError(t, err)

	query, err := emb.Embed(ctx, "shared content")
	require.NoError(t, err)

	hits, err := s.Nearest(ctx, query, 10, store.Filters{UserID: "u2"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, otherID, hits[0].ID)
}

func TestMemoryStore_NearestDimensionMismatch(t *testing.T) {
	s := newTestStore(t, store.Config{})

	_, err := s.Nearest(context.Background(), []float32{1, 2}, 5, store.Filters{})
	assert.ErrorIs(t, err, store.ErrDimensionMismatch)
}

func TestMemoryStore_CreatedBeforeAndSessionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	_, err := s.Remember(ctx, "one", map[string]interface{}{"session_id": "s1"}, "mem_1")
	require.NoError(t, err)
	_, err = s.Remember(ctx, "two", map[string]interface{}{"session_id": "s1"}, "mem_2")
	require.NoError(t, err)

	recs := s.SessionRecords("s1")
	require.Len(t, recs, 2)
	assert.False(t, recs[0].CreatedAt.After(recs[1].CreatedAt))

	old := s.CreatedBefore(time.Now().UTC().Add(time.Hour), "")
	assert.Len(t, old, 2)
	none := s.CreatedBefore(time.Now().UTC().Add(-time.Hour), "")
	assert.Empty(t, none)
}

func TestMemoryStore_Counters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	_, err := s.Remember(ctx, "a", map[string]interface{}{"user_id": "u1", "category": "biz"}, "")
	require.NoError(t, err)
	_, err = s.Remember(ctx, "b", map[string]interface{}{"user_id": "u1", "category": "biz"}, "")
	require.NoError(t, err)
	_, err = s.Remember(ctx, "c", map[string]interface{}{"user_id": "u2", "category": "team"}, "")
	require.NoError(t, err)

	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 2, s.UserCount())
	assert.Equal(t, int64(3), s.StorageUsed())
	assert.Equal(t, map[string]int{"biz": 2, "team": 1}, s.CategoryCounts())
}

func TestMemoryStore_EmbedderFailureLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()

	failing := &failingEmbedder{dims: 16, err: errors.New("boom")}
	s, err := store.New(ctx, failing, index.NewBrute(16), nil, store.Config{})
	require.NoError(t, err)

	_, err = s.Remember(ctx, "content", nil, "")
	assert.ErrorIs(t, err, store.ErrDependencyFailure)
	assert.Equal(t, 0, s.Count())
}

func TestMemoryStore_EmbedderTimeout(t *testing.T) {
	ctx := context.Background()

	failing := &failingEmbedder{dims: 16, err: context.DeadlineExceeded}
	s, err := store.New(ctx, failing, index.NewBrute(16), nil, store.Config{})
	require.NoError(t, err)

	_, err = s.Remember(ctx, "content", nil, "")
	assert.ErrorIs(t, err, store.ErrDependencyTimeout)
	assert.Equal(t, 0, s.Count())
}

func TestMemoryStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := s.Remember(ctx, map[string]interface{}{
					"worker": n,
					"seq":    j,
				}, map[string]interface{}{"user_id": "u1"}, "")
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 160, s.Count())
}

type failingEmbedder struct {
	dims int
	err  error
}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, f.err
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, f.err
}

func (f *failingEmbedder) Dimensions() int { return f.dims }

func (f *failingEmbedder) Close() error { return nil }
