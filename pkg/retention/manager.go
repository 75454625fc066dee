// Package retention implements time-based forgetting and per-user data
// export.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/agentmind/agentmind-go/pkg/store"
)

// ExportedRecord is one verbatim record of a user export. Content and
// metadata are carried in full, with no preview truncation.
type ExportedRecord struct {
	ID        string                 `json:"id"`
	Content   interface{}            `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
	Size      int                    `json:"size"`
}

// Export is a complete dump of one user's memories.
type Export struct {
	ExportID    string           `json:"export_id"`
	UserID      string           `json:"user_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	MemoryCount int              `json:"memory_count"`
	Records     []ExportedRecord `json:"records"`
}

// Manager applies retention policy through the store's write path.
type Manager struct {
	store *store.MemoryStore
}

// New creates a retention manager over the given store.
func New(st *store.MemoryStore) (*Manager, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is required", store.ErrInvalidArgument)
	}
	return &Manager{store: st}, nil
}

// ForgetBefore deletes records created strictly before cutoff, optionally
// scoped to a user, and returns the count actually deleted. Records marked
// critical are never deleted regardless of age. No matches is a zero count,
// not an error.
func (m *Manager) ForgetBefore(ctx context.Context, cutoff time.Time, userID string) (int, error) {
	deleted := 0
	for _, rec := range m.store.CreatedBefore(cutoff, userID) {
		if rec.Meta.Critical {
			continue
		}

		ok, err := m.store.Delete(ctx, rec.ID)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}

	if deleted > 0 {
		log.Info("forgot memories", "cutoff", cutoff, "user_id", userID, "deleted", deleted)
	}
	return deleted, nil
}

// ExportUserData returns every record for the user, newest first, with
// content and metadata verbatim.
func (m *Manager) ExportUserData(userID string) (*Export, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidArgument)
	}

	recs := m.store.Records(store.Filters{UserID: userID})
	exported := make([]ExportedRecord, len(recs))
	for i, rec := range recs {
		exported[i] = ExportedRecord{
			ID:        rec.ID,
			Content:   rec.Content,
			Metadata:  rec.Meta.Map(),
			CreatedAt: rec.CreatedAt,
			Size:      rec.Size,
		}
	}

	return &Export{
		ExportID:    uuid.NewString(),
		UserID:      userID,
		GeneratedAt: time.Now().UTC(),
		MemoryCount: len(exported),
		Records:     exported,
	}, nil
}
