// Package recall ranks stored memories against a query using a selected
// strategy. The engine reads through the store's listing and similarity
// primitives and never mutates state.
package recall

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/dgraph-io/ristretto"

	"github.com/agentmind/agentmind-go/pkg/embedder"
	"github.com/agentmind/agentmind-go/pkg/store"
)

// Strategy selects the ranking algorithm for a recall call.
type Strategy string

const (
	// StrategyExact scores candidates by keyword token overlap.
	StrategyExact Strategy = "exact"
	// StrategySemantic ranks by cosine similarity to the query embedding.
	StrategySemantic Strategy = "semantic"
	// StrategyRecency ranks purely by exponential recency decay.
	StrategyRecency Strategy = "recency"
	// StrategyHybrid blends similarity, recency and importance.
	StrategyHybrid Strategy = "hybrid"
)

// ParseStrategy converts a string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case StrategyExact:
		return StrategyExact, nil
	case StrategySemantic:
		return StrategySemantic, nil
	case StrategyRecency:
		return StrategyRecency, nil
	case StrategyHybrid:
		return StrategyHybrid, nil
	default:
		return "", fmt.Errorf("%w: unknown recall strategy %q", store.ErrInvalidArgument, s)
	}
}

// Defaults for the tunable ranking parameters.
const (
	DefaultLimit            = 10
	DefaultHalfLife         = 7 * 24 * time.Hour
	DefaultSemanticWeight   = 0.6
	DefaultRecencyWeight    = 0.2
	DefaultImportanceWeight = 0.2
	DefaultWidenFactor      = 3
)

// Config contains the engine's tunable ranking parameters. Zero values fall
// back to the package defaults.
type Config struct {
	// HalfLife is the age at which recency decay reaches 0.5.
	HalfLife time.Duration

	// SemanticWeight, RecencyWeight and ImportanceWeight blend the hybrid
	// score. They are used as given and are not renormalized.
	SemanticWeight   float64
	RecencyWeight    float64
	ImportanceWeight float64

	// WidenFactor sizes the hybrid candidate pool: each phase fetches
	// limit*WidenFactor candidates before re-ranking.
	WidenFactor int

	// CacheSize caps the query-embedding cache cost in bytes. Zero uses a
	// small default; negative disables the cache.
	CacheSize int64
}

// Query is one recall request.
type Query struct {
	Text     string
	Strategy Strategy
	Limit    int

	// UserID is a hard scope: when set, only that user's memories are
	// candidates regardless of score.
	UserID  string
	Filters store.Filters
}

// Result is one ranked memory.
type Result struct {
	ID        string
	Content   interface{}
	Text      string
	Score     float64
	Category  string
	CreatedAt time.Time
}

// Engine executes recall queries against a MemoryStore.
type Engine struct {
	store    *store.MemoryStore
	embedder embedder.Provider
	cfg      Config
	cache    *ristretto.Cache

	now func() time.Time
}

// New creates a recall engine over the given store and embedder.
func New(st *store.MemoryStore, emb embedder.Provider, cfg Config) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is required", store.ErrInvalidArgument)
	}
	if emb == nil {
		return nil, fmt.Errorf("%w: embedder is required", store.ErrInvalidArgument)
	}

	if cfg.HalfLife <= 0 {
		cfg.HalfLife = DefaultHalfLife
	}
	if cfg.SemanticWeight == 0 && cfg.RecencyWeight == 0 && cfg.ImportanceWeight == 0 {
		cfg.SemanticWeight = DefaultSemanticWeight
		cfg.RecencyWeight = DefaultRecencyWeight
		cfg.ImportanceWeight = DefaultImportanceWeight
	}
	if cfg.WidenFactor <= 0 {
		cfg.WidenFactor = DefaultWidenFactor
	}

	e := &Engine{
		store:    st,
		embedder: emb,
		cfg:      cfg,
		now:      time.Now,
	}

	if cfg.CacheSize >= 0 {
		size := cfg.CacheSize
		if size == 0 {
			size = 8 << 20
		}
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 10_000,
			MaxCost:     size,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("recall: cache: %w", err)
		}
		e.cache = cache
	}

	return e, nil
}

// Recall ranks stored memories against the query and returns at most
// q.Limit results, best first. An empty or filtered-to-empty store yields an
// empty slice, not an error.
func (e *Engine) Recall(ctx context.Context, q Query) ([]Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	strategy := q.Strategy
	if strategy == "" {
		strategy = StrategySemantic
	}

	filters := q.Filters
	if q.UserID != "" {
		filters.UserID = q.UserID
	}

	switch strategy {
	case StrategyExact:
		return e.recallExact(q.Text, filters, limit), nil
	case StrategySemantic:
		return e.recallSemantic(ctx, q.Text, filters, limit)
	case StrategyRecency:
		return e.recallRecency(filters, limit), nil
	case StrategyHybrid:
		return e.recallHybrid(ctx, q.Text, filters, limit)
	default:
		return nil, fmt.Errorf("%w: unknown recall strategy %q", store.ErrInvalidArgument, strategy)
	}
}

// recallExact scores candidates by the number of distinct query tokens that
// appear in the record text. Records with no overlap are dropped; ties break
// by created_at descending.
func (e *Engine) recallExact(text string, filters store.Filters, limit int) []Result {
	queryTokens := tokenSet(text)
	if len(queryTokens) == 0 {
		return []Result{}
	}

	results := make([]Result, 0, limit)
	for _, rec := range e.store.Records(filters) {
		overlap := 0
		recTokens := tokenSet(rec.Text)
		for tok := range queryTokens {
			if _, ok := recTokens[tok]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		results = append(results, resultFromRecord(rec, float64(overlap)))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (e *Engine) recallSemantic(ctx context.Context, text string, filters store.Filters, limit int) ([]Result, error) {
	vec, err := e.embedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	hits, err := e.store.Nearest(ctx, vec, limit, filters)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		rec, err := e.store.Get(hit.ID, true)
		if err != nil {
			// Deleted between ranking and fetch.
			continue
		}
		results = append(results, resultFromRecord(rec, hit.Score))
	}
	return results, nil
}

func (e *Engine) recallRecency(filters store.Filters, limit int) []Result {
	now := e.now().UTC()

	recs := e.store.RecentRecords(filters, limit)
	results := make([]Result, 0, len(recs))
	for _, rec := range recs {
		results = append(results, resultFromRecord(rec, e.decay(now, rec.CreatedAt)))
	}
	return results
}

// recallHybrid widens both phases to limit*WidenFactor candidates, unions
// them, and re-ranks by the blended score.
func (e *Engine) recallHybrid(ctx context.Context, text string, filters store.Filters, limit int) ([]Result, error) {
	vec, err := e.embedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	widened := limit * e.cfg.WidenFactor

	hits, err := e.store.Nearest(ctx, vec, widened, filters)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]struct{}, widened*2)
	for _, hit := range hits {
		candidates[hit.ID] = struct{}{}
	}
	for _, rec := range e.store.RecentRecords(filters, widened) {
		candidates[rec.ID] = struct{}{}
	}

	now := e.now().UTC()
	results := make([]Result, 0, len(candidates))
	for id := range candidates {
		rec, err := e.store.Get(id, true)
		if err != nil {
			continue
		}
		sim, ok := e.store.Similarity(id, vec)
		if !ok {
			continue
		}

		score := e.cfg.SemanticWeight*sim +
			e.cfg.RecencyWeight*e.decay(now, rec.CreatedAt) +
			e.cfg.ImportanceWeight*rec.Meta.Importance
		results = append(results, resultFromRecord(rec, score))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// embedQuery embeds the query text, serving repeated queries from the cache.
func (e *Engine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(text); ok {
			if vec, ok := cached.([]float32); ok {
				return vec, nil
			}
		}
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, store.DependencyError(err)
	}

	if e.cache != nil {
		e.cache.Set(text, vec, int64(len(vec)*4))
	}
	return vec, nil
}

// decay maps an age to (0,1]: 1.0 now, 0.5 at one half-life.
func (e *Engine) decay(now, createdAt time.Time) float64 {
	age := now.Sub(createdAt)
	if age <= 0 {
		return 1.0
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(e.cfg.HalfLife))
}

// Close releases the query-embedding cache.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

func resultFromRecord(rec *store.Record, score float64) Result {
	return Result{
		ID:        rec.ID,
		Content:   rec.Content,
		Text:      rec.Text,
		Score:     score,
		Category:  rec.Meta.Category,
		CreatedAt: rec.CreatedAt,
	}
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		set[tok] = struct{}{}
	}
	return set
}
