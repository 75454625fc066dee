// Package embedder provides interfaces for text embedding providers.
//
// It defines the Provider interface that all embedding implementations must
// satisfy, enabling text-to-vector conversion for similarity search. A
// provider's output dimension is fixed per store instance: changing it
// invalidates every stored embedding.
package embedder

import "context"

// Provider defines the interface for embedding providers.
type Provider interface {
	// Embed converts a text string into a vector embedding. The call is
	// bounded by ctx; a deadline aborts only the current request.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts into embeddings in one request,
	// returned in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed output dimension of this provider.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}
