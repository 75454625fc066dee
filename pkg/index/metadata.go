package index

import (
	"sort"
	"time"
)

// Entry carries the indexed attributes of a record. The metadata index never
// reads records itself; the store passes the relevant fields on every
// mutation so that insert and remove stay symmetric.
type Entry struct {
	ID        string
	Category  string
	UserID    string
	SessionID string
	CreatedAt time.Time
}

type timeKey struct {
	at time.Time
	id string
}

// MetadataIndex maintains inverted indexes over category, user and session,
// plus a created_at-ordered index used for recency ranking, recent-window
// listing and time-scoped bulk deletion without a full scan.
//
// All mutations are derived from the store's insert/delete calls; the index
// never changes independently.
type MetadataIndex struct {
	byCategory map[string]map[string]struct{}
	byUser     map[string]map[string]struct{}
	bySession  map[string]map[string]struct{}
	byTime     []timeKey
}

// NewMetadata creates an empty metadata index.
func NewMetadata() *MetadataIndex {
	return &MetadataIndex{
		byCategory: make(map[string]map[string]struct{}),
		byUser:     make(map[string]map[string]struct{}),
		bySession:  make(map[string]map[string]struct{}),
	}
}

// Insert adds a record's attributes to every applicable index.
func (m *MetadataIndex) Insert(e Entry) {
	addKey(m.byCategory, e.Category, e.ID)
	addKey(m.byUser, e.UserID, e.ID)
	addKey(m.bySession, e.SessionID, e.ID)

	pos := m.searchTime(e.CreatedAt, e.ID)
	m.byTime = append(m.byTime, timeKey{})
	copy(m.byTime[pos+1:], m.byTime[pos:])
	m.byTime[pos] = timeKey{at: e.CreatedAt, id: e.ID}
}

// Remove deletes a record's attributes from every applicable index. The
// entry must carry the same values it was inserted with.
func (m *MetadataIndex) Remove(e Entry) {
	dropKey(m.byCategory, e.Category, e.ID)
	dropKey(m.byUser, e.UserID, e.ID)
	dropKey(m.bySession, e.SessionID, e.ID)

	pos := m.searchTime(e.CreatedAt, e.ID)
	if pos < len(m.byTime) && m.byTime[pos].id == e.ID {
		m.byTime = append(m.byTime[:pos], m.byTime[pos+1:]...)
	}
}

// searchTime returns the insertion position for (at, id), keeping byTime
// sorted ascending by created_at with id as tie-break.
func (m *MetadataIndex) searchTime(at time.Time, id string) int {
	return sort.Search(len(m.byTime), func(i int) bool {
		if !m.byTime[i].at.Equal(at) {
			return m.byTime[i].at.After(at)
		}
		return m.byTime[i].id >= id
	})
}

// ByCategory returns the ids of records carrying the given category.
func (m *MetadataIndex) ByCategory(category string) []string {
	return keys(m.byCategory[category])
}

// ByUser returns the ids of records owned by the given user.
func (m *MetadataIndex) ByUser(userID string) []string {
	return keys(m.byUser[userID])
}

// BySession returns the ids of records belonging to the given session.
func (m *MetadataIndex) BySession(sessionID string) []string {
	return keys(m.bySession[sessionID])
}

// Before returns the ids of records created strictly before cutoff, oldest
// first.
func (m *MetadataIndex) Before(cutoff time.Time) []string {
	ids := make([]string, 0)
	for _, tk := range m.byTime {
		if !tk.at.Before(cutoff) {
			break
		}
		ids = append(ids, tk.id)
	}
	return ids
}

// Since returns the ids of records created at or after t, newest first.
func (m *MetadataIndex) Since(t time.Time) []string {
	start := sort.Search(len(m.byTime), func(i int) bool {
		return !m.byTime[i].at.Before(t)
	})
	ids := make([]string, 0, len(m.byTime)-start)
	for i := len(m.byTime) - 1; i >= start; i-- {
		ids = append(ids, m.byTime[i].id)
	}
	return ids
}

// Newest returns up to limit ids ordered newest first. A non-positive limit
// returns all ids.
func (m *MetadataIndex) Newest(limit int) []string {
	n := len(m.byTime)
	if limit <= 0 || limit > n {
		limit = n
	}
	ids := make([]string, 0, limit)
	for i := n - 1; i >= 0 && len(ids) < limit; i-- {
		ids = append(ids, m.byTime[i].id)
	}
	return ids
}

// CategoryCounts reports the number of records per category.
func (m *MetadataIndex) CategoryCounts() map[string]int {
	counts := make(map[string]int, len(m.byCategory))
	for category, ids := range m.byCategory {
		counts[category] = len(ids)
	}
	return counts
}

// UserCount reports the number of distinct users with at least one record.
func (m *MetadataIndex) UserCount() int {
	return len(m.byUser)
}

func addKey(idx map[string]map[string]struct{}, key, id string) {
	if key == "" {
		return
	}
	set, ok := idx[key]
	if !ok {
		set = make(map[string]struct{})
		idx[key] = set
	}
	set[id] = struct{}{}
}

func dropKey(idx map[string]map[string]struct{}, key, id string) {
	if key == "" {
		return
	}
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(idx, key)
	}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
