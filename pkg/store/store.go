package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agentmind/agentmind-go/pkg/embedder"
	"github.com/agentmind/agentmind-go/pkg/index"
)

// DefaultListLimit bounds List calls that do not specify a limit.
const DefaultListLimit = 100

// DefaultPreviewLength is the rune length of listing previews.
const DefaultPreviewLength = 100

// Config contains the storage engine configuration.
type Config struct {
	// Dimensions is the embedding dimension the store is locked to. Zero
	// means "use the embedder's configured dimension".
	Dimensions int

	// StrictIDs makes an explicit-id write onto an existing id fail with
	// ErrDuplicateID instead of overwriting.
	StrictIDs bool

	// PreviewLength is the rune length of listing previews (default 100).
	PreviewLength int
}

// MemoryStore owns the primary record table, the vector index and the
// metadata index, and keeps the three consistent: every mutation updates all
// of them under one lock, so readers never observe a partially indexed or
// partially deleted record.
//
// The store is safe for concurrent use. Reads proceed concurrently;
// embedding calls are made before the write lock is taken so a slow embedder
// never stalls readers or unrelated writers.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	vindex  index.VectorIndex
	mindex  *index.MetadataIndex

	backend   Backend
	embedder  embedder.Provider
	dims      int
	strict    bool
	preview   int
	bytesUsed int64
}

// BatchItem is one entry of a batch write.
type BatchItem struct {
	Content  interface{}
	Metadata map[string]interface{}
	ID       string
}

// BatchResult reports the outcome of one batch position. Exactly one of ID
// and Err is meaningful; positions are independent of each other.
type BatchResult struct {
	ID  string
	Err error
}

// New creates a MemoryStore over the given embedder, vector index and
// persistence backend, loading any persisted records and rebuilding the
// indexes from them.
func New(ctx context.Context, emb embedder.Provider, vindex index.VectorIndex, backend Backend, cfg Config) (*MemoryStore, error) {
	if emb == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidArgument)
	}
	if vindex == nil {
		return nil, fmt.Errorf("%w: vector index is required", ErrInvalidArgument)
	}
	if backend == nil {
		backend = NoopBackend{}
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = emb.Dimensions()
	}
	if dims <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive", ErrInvalidArgument)
	}

	preview := cfg.PreviewLength
	if preview <= 0 {
		preview = DefaultPreviewLength
	}

	s := &MemoryStore{
		records:  make(map[string]*Record),
		vindex:   vindex,
		mindex:   index.NewMetadata(),
		backend:  backend,
		embedder: emb,
		dims:     dims,
		strict:   cfg.StrictIDs,
		preview:  preview,
	}

	persisted, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	for _, rec := range persisted {
		if len(rec.Embedding) != dims {
			return nil, fmt.Errorf("%w: persisted record %q has %d dimensions, store expects %d",
				ErrDimensionMismatch, rec.ID, len(rec.Embedding), dims)
		}
		if err := s.attach(ctx, rec); err != nil {
			return nil, err
		}
	}
	if len(persisted) > 0 {
		log.Info("rebuilt memory indexes", "records", len(persisted))
	}

	return s, nil
}

// attach inserts a record into the table and both indexes. Caller holds the
// write lock (or, during New, exclusive ownership).
func (s *MemoryStore) attach(ctx context.Context, rec *Record) error {
	if err := s.vindex.Insert(ctx, rec.ID, rec.Embedding); err != nil {
		return fmt.Errorf("store: vector index: %w", err)
	}
	s.mindex.Insert(indexEntry(rec))
	s.records[rec.ID] = rec
	s.bytesUsed += int64(rec.Size)
	return nil
}

// detach removes a record from the table and both indexes. Caller holds the
// write lock.
func (s *MemoryStore) detach(ctx context.Context, rec *Record) error {
	if err := s.vindex.Remove(ctx, rec.ID); err != nil {
		return fmt.Errorf("store: vector index: %w", err)
	}
	s.mindex.Remove(indexEntry(rec))
	delete(s.records, rec.ID)
	s.bytesUsed -= int64(rec.Size)
	return nil
}

func indexEntry(rec *Record) index.Entry {
	return index.Entry{
		ID:        rec.ID,
		Category:  rec.Meta.Category,
		UserID:    rec.Meta.UserID,
		SessionID: rec.Meta.SessionID,
		CreatedAt: rec.CreatedAt,
	}
}

// Remember stores a memory and returns its id.
//
// Without an explicit id the record is keyed by a content fingerprint and
// identical content deduplicates silently: the existing id is returned and
// no second record is created. With an explicit id an existing record is
// overwritten in place (content, metadata, embedding), preserving its
// created_at. In strict mode the write fails with ErrDuplicateID instead.
//
// The embedding is requested before the write lock is acquired; a timeout or
// failure from the embedder aborts the write and leaves the store unchanged.
func (s *MemoryStore) Remember(ctx context.Context, content interface{}, metadata map[string]interface{}, explicitID string) (string, error) {
	text, size, err := Linearize(content)
	if err != nil {
		return "", err
	}

	meta, err := ParseMetadata(metadata)
	if err != nil {
		return "", err
	}

	id := explicitID
	if id == "" {
		id = Fingerprint(text, meta.UserID)

		s.mu.RLock()
		_, dup := s.records[id]
		s.mu.RUnlock()
		if dup {
			log.Debug("deduplicated memory", "id", id, "user_id", meta.UserID)
			return id, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", DependencyError(err)
	}
	if len(vec) != s.dims {
		return "", fmt.Errorf("%w: embedder returned %d dimensions, store expects %d",
			ErrDimensionMismatch, len(vec), s.dims)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.records[id]
	if existing != nil && explicitID != "" && s.strict {
		return "", fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}

	rec := &Record{
		ID:        id,
		Content:   content,
		Text:      text,
		Meta:      meta,
		Embedding: vec,
		CreatedAt: time.Now().UTC(),
		Size:      size,
	}
	if existing != nil {
		rec.CreatedAt = existing.CreatedAt
	}

	if err := s.backend.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("store: save: %w", err)
	}

	if existing != nil {
		if err := s.detach(ctx, existing); err != nil {
			return "", err
		}
	}
	if err := s.attach(ctx, rec); err != nil {
		return "", err
	}

	log.Debug("remembered memory", "id", id, "user_id", meta.UserID, "size", size, "overwrite", existing != nil)
	return id, nil
}

// RememberBatch applies Remember to each item. The batch as a whole is not
// atomic: each position succeeds or fails on its own, and results come back
// in input order. A non-empty commonUserID fills in user_id for items that
// do not set one.
func (s *MemoryStore) RememberBatch(ctx context.Context, items []BatchItem, commonUserID string) []BatchResult {
	results := make([]BatchResult, len(items))
	for i, item := range items {
		metadata := item.Metadata
		if commonUserID != "" {
			if _, ok := metadata[MetaUserID]; !ok {
				merged := make(map[string]interface{}, len(metadata)+1)
				for k, v := range metadata {
					merged[k] = v
				}
				merged[MetaUserID] = commonUserID
				metadata = merged
			}
		}

		id, err := s.Remember(ctx, item.Content, metadata, item.ID)
		results[i] = BatchResult{ID: id, Err: err}
	}
	return results
}

// Get retrieves a record by id. With includeMetadata false the returned copy
// carries no metadata.
func (s *MemoryStore) Get(id string, includeMetadata bool) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	out := rec.Clone()
	if !includeMetadata {
		out.Meta = Metadata{}
	}
	return out, nil
}

// Exists reports whether a record with the given id is stored.
func (s *MemoryStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok
}

// Delete removes a record from the table and both indexes. It returns false
// without error when the id is absent.
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return false, nil
	}

	if err := s.backend.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("store: delete: %w", err)
	}
	if err := s.detach(ctx, rec); err != nil {
		return false, err
	}

	log.Debug("deleted memory", "id", id, "user_id", rec.Meta.UserID)
	return true, nil
}

// UpdateConfidence sets a record's confidence. Values outside [0,1] fail
// with ErrInvalidArgument and leave the stored value unchanged; an absent id
// returns false without error.
func (s *MemoryStore) UpdateConfidence(ctx context.Context, id string, confidence float64) (bool, error) {
	if confidence < 0 || confidence > 1 {
		return false, fmt.Errorf("%w: confidence must be in [0,1], got %v", ErrInvalidArgument, confidence)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return false, nil
	}

	updated := rec.Clone()
	updated.Meta.Confidence = confidence
	if err := s.backend.Save(ctx, updated); err != nil {
		return false, fmt.Errorf("store: save: %w", err)
	}

	s.records[id] = updated
	return true, nil
}

// List returns summaries of matching records, newest first.
func (s *MemoryStore) List(opts ListOptions) []Summary {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, limit)
	skipped := 0
	for _, id := range s.mindex.Newest(0) {
		rec := s.records[id]
		if !opts.Filters.Match(rec) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		summaries = append(summaries, s.summarize(rec))
		if len(summaries) == limit {
			break
		}
	}
	return summaries
}

func (s *MemoryStore) summarize(rec *Record) Summary {
	preview := rec.Text
	if runes := []rune(preview); len(runes) > s.preview {
		preview = string(runes[:s.preview]) + "..."
	}
	return Summary{
		ID:        rec.ID,
		Preview:   preview,
		Size:      rec.Size,
		Category:  rec.Meta.Category,
		CreatedAt: rec.CreatedAt,
	}
}

// Records returns full copies of all matching records, newest first.
func (s *MemoryStore) Records(f Filters) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.mindex.Newest(0), f, 0)
}

// RecentRecords returns up to limit matching records, newest first. It walks
// the time-ordered index so it does not scan past what it needs when the
// filters are loose.
func (s *MemoryStore) RecentRecords(f Filters, limit int) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.mindex.Newest(0), f, limit)
}

// CreatedSince returns matching records created at or after t, newest first.
func (s *MemoryStore) CreatedSince(t time.Time, f Filters) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.mindex.Since(t), f, 0)
}

// CreatedBefore returns records created strictly before cutoff, oldest
// first, optionally scoped to a user. Served from the time-ordered index.
func (s *MemoryStore) CreatedBefore(cutoff time.Time, userID string) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.mindex.Before(cutoff), Filters{UserID: userID}, 0)
}

// SessionRecords returns a session's records ordered by created_at
// ascending, the order summarization consumes them in.
func (s *MemoryStore) SessionRecords(sessionID string) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.collect(s.mindex.BySession(sessionID), Filters{}, 0)
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
	return recs
}

// collect resolves ids to record clones in the given order, applying f as a
// hard filter. Caller holds at least the read lock.
func (s *MemoryStore) collect(ids []string, f Filters, limit int) []*Record {
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok || !f.Match(rec) {
			continue
		}
		out = append(out, rec.Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Nearest returns the k most similar records to the query vector, with the
// filters applied before ranking so scoped callers never see records outside
// their scope regardless of similarity.
func (s *MemoryStore) Nearest(ctx context.Context, query []float32, k int, f Filters) ([]index.Hit, error) {
	if len(query) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			ErrDimensionMismatch, len(query), s.dims)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.vindex.KNearest(ctx, query, k, func(id string) bool {
		rec, ok := s.records[id]
		return ok && f.Match(rec)
	})
	if err != nil {
		return nil, fmt.Errorf("store: nearest: %w", err)
	}
	return hits, nil
}

// Similarity returns the cosine similarity between the query vector and the
// stored embedding of id. The second return is false when id is absent.
func (s *MemoryStore) Similarity(id string, query []float32) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return 0, false
	}
	return index.CosineSimilarity(query, rec.Embedding), true
}

// Count reports the number of stored records.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// UserCount reports the number of distinct users with at least one record.
func (s *MemoryStore) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mindex.UserCount()
}

// StorageUsed reports the total serialized content size in bytes.
func (s *MemoryStore) StorageUsed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytesUsed
}

// CategoryCounts reports the number of records per category.
func (s *MemoryStore) CategoryCounts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mindex.CategoryCounts()
}

// Dimensions reports the embedding dimension the store is locked to.
func (s *MemoryStore) Dimensions() int {
	return s.dims
}

// Close releases the persistence backend.
func (s *MemoryStore) Close() error {
	return s.backend.Close()
}
