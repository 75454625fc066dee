// Package index provides the in-memory index structures owned by the memory
// store: a vector index for nearest-neighbor lookup over embeddings and a
// metadata index for filtered scans over category, user, session and time.
//
// The structures in this package are not safe for concurrent use on their
// own; the owning store serializes access to them.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Hit is a single nearest-neighbor result.
type Hit struct {
	// ID is the identifier of the matching record.
	ID string

	// Score is the cosine similarity to the query vector (-1.0 to 1.0).
	Score float64
}

// FilterFunc restricts candidates before ranking. It returns true when the
// record with the given id is eligible for the current query. Applying the
// filter ahead of scoring avoids computing similarity against records that a
// caller scoped out (other users, sessions, categories).
type FilterFunc func(id string) bool

// VectorIndex holds (id, embedding) pairs and answers k-nearest-neighbor
// queries by cosine similarity.
//
// The default implementation is a brute-force scan (see NewBrute), which is
// adequate for small-to-medium stores. Approximate structures (graph- or
// tree-based) can be substituted behind this interface without changing
// callers; see the chromem subpackage for one such implementation.
type VectorIndex interface {
	// Insert adds or replaces the embedding stored under id.
	Insert(ctx context.Context, id string, embedding []float32) error

	// Remove deletes the embedding stored under id. Removing an absent id
	// is not an error.
	Remove(ctx context.Context, id string) error

	// KNearest returns up to k hits ordered by descending similarity.
	// When filter is non-nil it is applied before scoring.
	KNearest(ctx context.Context, query []float32, k int, filter FilterFunc) ([]Hit, error)

	// Len reports the number of indexed embeddings.
	Len() int
}

// BruteIndex is the exact, scan-based VectorIndex implementation.
type BruteIndex struct {
	dimensions int
	vectors    map[string][]float32
}

// NewBrute creates a brute-force vector index for embeddings of the given
// dimension.
func NewBrute(dimensions int) *BruteIndex {
	return &BruteIndex{
		dimensions: dimensions,
		vectors:    make(map[string][]float32),
	}
}

// Insert adds or replaces the embedding stored under id.
func (b *BruteIndex) Insert(ctx context.Context, id string, embedding []float32) error {
	if len(embedding) != b.dimensions {
		return fmt.Errorf("insert %q: embedding has %d dimensions, index expects %d",
			id, len(embedding), b.dimensions)
	}
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	b.vectors[id] = vec
	return nil
}

// Remove deletes the embedding stored under id.
func (b *BruteIndex) Remove(ctx context.Context, id string) error {
	delete(b.vectors, id)
	return nil
}

// KNearest scans all eligible embeddings and returns the top k by cosine
// similarity.
func (b *BruteIndex) KNearest(ctx context.Context, query []float32, k int, filter FilterFunc) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(b.vectors))
	for id, vec := range b.vectors {
		if filter != nil && !filter(id) {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: CosineSimilarity(query, vec)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports the number of indexed embeddings.
func (b *BruteIndex) Len() int {
	return len(b.vectors)
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
