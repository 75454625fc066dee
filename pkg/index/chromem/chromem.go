// Package chromem provides a VectorIndex implementation backed by
// chromem-go, an embedded pure-Go vector database.
//
// It exists to exercise the substitution seam of index.VectorIndex: callers
// configured with this index get chromem's concurrent similarity scoring
// instead of the default single-threaded brute-force scan, with no change to
// the store or the recall engine.
package chromem

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/agentmind/agentmind-go/pkg/index"
)

// Index adapts a chromem-go collection to the index.VectorIndex interface.
type Index struct {
	collection *chromem.Collection
	dimensions int
}

// New creates a chromem-backed vector index for embeddings of the given
// dimension. Embeddings are always supplied precomputed, so no chromem
// embedding function is configured.
func New(dimensions int) (*Index, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection("memories", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: create collection: %w", err)
	}

	return &Index{
		collection: collection,
		dimensions: dimensions,
	}, nil
}

// Insert adds or replaces the embedding stored under id.
func (x *Index) Insert(ctx context.Context, id string, embedding []float32) error {
	if len(embedding) != x.dimensions {
		return fmt.Errorf("chromem: insert %q: embedding has %d dimensions, index expects %d",
			id, len(embedding), x.dimensions)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	err := x.collection.AddDocument(ctx, chromem.Document{
		ID:        id,
		Embedding: vec,
	})
	if err != nil {
		return fmt.Errorf("chromem: insert %q: %w", id, err)
	}
	return nil
}

// Remove deletes the embedding stored under id.
func (x *Index) Remove(ctx context.Context, id string) error {
	if err := x.collection.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("chromem: remove %q: %w", id, err)
	}
	return nil
}

// KNearest returns up to k hits ordered by descending similarity.
//
// chromem cannot push an arbitrary predicate into its query, so when a
// filter is present the full collection is scored and the predicate is
// applied to the ordered results. Filtered-out candidates are never
// returned, preserving the hard pre-filter contract.
func (x *Index) KNearest(ctx context.Context, query []float32, k int, filter index.FilterFunc) ([]index.Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	count := x.collection.Count()
	if count == 0 {
		return nil, nil
	}

	n := k
	if filter != nil || n > count {
		n = count
	}

	results, err := x.collection.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	hits := make([]index.Hit, 0, k)
	for _, res := range results {
		if filter != nil && !filter(res.ID) {
			continue
		}
		hits = append(hits, index.Hit{ID: res.ID, Score: float64(res.Similarity)})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Len reports the number of indexed embeddings.
func (x *Index) Len() int {
	return x.collection.Count()
}
