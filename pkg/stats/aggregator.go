// Package stats derives usage statistics from the memory store on demand.
package stats

import (
	"fmt"
	"sort"

	"github.com/agentmind/agentmind-go/pkg/store"
)

// DefaultTopCategories bounds the popular-category listing.
const DefaultTopCategories = 5

// CategoryCount is one category with its record count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats is a point-in-time view of store usage.
type Stats struct {
	TotalMemories     int             `json:"total_memories"`
	TotalUsers        int             `json:"total_users"`
	StorageUsed       int64           `json:"storage_used"`
	PopularCategories []CategoryCount `json:"popular_categories"`
}

// Aggregator computes statistics from store counters. It holds no state of
// its own and nothing is cached.
type Aggregator struct {
	store *store.MemoryStore
}

// New creates a stats aggregator over the given store.
func New(st *store.MemoryStore) (*Aggregator, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is required", store.ErrInvalidArgument)
	}
	return &Aggregator{store: st}, nil
}

// Collect returns current statistics with the top categories by count.
// Category ties break alphabetically so output is stable.
func (a *Aggregator) Collect(topCategories int) Stats {
	if topCategories <= 0 {
		topCategories = DefaultTopCategories
	}

	counts := a.store.CategoryCounts()
	categories := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		categories = append(categories, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Category < categories[j].Category
	})
	if len(categories) > topCategories {
		categories = categories[:topCategories]
	}

	return Stats{
		TotalMemories:     a.store.Count(),
		TotalUsers:        a.store.UserCount(),
		StorageUsed:       a.store.StorageUsed(),
		PopularCategories: categories,
	}
}
