package store

import "context"

// Backend is the durable persistence layer behind the in-memory engine.
//
// The engine is the single writer: it loads all records once at startup to
// rebuild its indexes, then mirrors every committed mutation. Any storage
// engine that can hold the logical schema (one table keyed by id with
// content, metadata, embedding, created_at and size) can implement Backend;
// see the sqlite, postgres and mysql subpackages.
type Backend interface {
	// Load returns every persisted record. Called once, before the store
	// accepts traffic.
	Load(ctx context.Context) ([]*Record, error)

	// Save inserts the record or replaces the record with the same id.
	Save(ctx context.Context, record *Record) error

	// Delete removes the record with the given id. Deleting an absent id
	// is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// NoopBackend is the default in-memory-only backend: nothing is persisted
// and nothing is loaded.
type NoopBackend struct{}

// Load returns no records.
func (NoopBackend) Load(ctx context.Context) ([]*Record, error) { return nil, nil }

// Save does nothing.
func (NoopBackend) Save(ctx context.Context, record *Record) error { return nil }

// Delete does nothing.
func (NoopBackend) Delete(ctx context.Context, id string) error { return nil }

// Close does nothing.
func (NoopBackend) Close() error { return nil }
