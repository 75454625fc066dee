// Package store provides the memory storage engine: the record model, the
// MemoryStore that owns the vector and metadata indexes, and the persistence
// backend interface implemented by the sqlite, postgres and mysql
// subpackages.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Recognized metadata keys with defined semantics. Any other key is kept
// verbatim in Metadata.Extra.
const (
	MetaCategory   = "category"
	MetaImportance = "importance"
	MetaConfidence = "confidence"
	MetaCritical   = "critical"
	MetaUserID     = "user_id"
	MetaSessionID  = "session_id"
	MetaType       = "type"
)

// Defaults for the weighted metadata fields.
const (
	DefaultImportance = 0.5
	DefaultConfidence = 1.0
)

// Metadata holds the recognized metadata fields as typed values plus an open
// side map for caller-defined keys.
type Metadata struct {
	// Category groups records for filtered listing.
	Category string

	// Importance weights the record in hybrid recall ranking (0.0-1.0).
	Importance float64

	// Confidence is the caller's trust in the record (0.0-1.0). It is the
	// only field mutable through a dedicated operation.
	Confidence float64

	// Critical exempts the record from time-based bulk deletion.
	Critical bool

	// UserID scopes the record to a user.
	UserID string

	// SessionID groups the record into a session.
	SessionID string

	// Type is a free-form classifier (e.g. "lead", "interaction").
	Type string

	// Extra carries all caller-defined keys verbatim.
	Extra map[string]interface{}
}

// ParseMetadata extracts the recognized keys from an open metadata map,
// validating their types and ranges, and keeps everything else in Extra.
// Missing importance and confidence take their defaults.
func ParseMetadata(raw map[string]interface{}) (Metadata, error) {
	meta := Metadata{
		Importance: DefaultImportance,
		Confidence: DefaultConfidence,
	}

	for key, value := range raw {
		switch key {
		case MetaCategory:
			s, err := asString(key, value)
			if err != nil {
				return Metadata{}, err
			}
			meta.Category = s
		case MetaUserID:
			s, err := asString(key, value)
			if err != nil {
				return Metadata{}, err
			}
			meta.UserID = s
		case MetaSessionID:
			s, err := asString(key, value)
			if err != nil {
				return Metadata{}, err
			}
			meta.SessionID = s
		case MetaType:
			s, err := asString(key, value)
			if err != nil {
				return Metadata{}, err
			}
			meta.Type = s
		case MetaImportance:
			f, err := asUnitFloat(key, value)
			if err != nil {
				return Metadata{}, err
			}
			meta.Importance = f
		case MetaConfidence:
			f, err := asUnitFloat(key, value)
			if err != nil {
				return Metadata{}, err
			}
			meta.Confidence = f
		case MetaCritical:
			b, ok := value.(bool)
			if !ok {
				return Metadata{}, fmt.Errorf("%w: metadata key %q must be a boolean", ErrInvalidArgument, key)
			}
			meta.Critical = b
		default:
			if meta.Extra == nil {
				meta.Extra = make(map[string]interface{})
			}
			meta.Extra[key] = value
		}
	}

	return meta, nil
}

// Map flattens the metadata back to an open map, recognized keys included.
// Used for export and persistence, where the stored form must match what the
// caller supplied.
func (m Metadata) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(m.Extra)+7)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Category != "" {
		out[MetaCategory] = m.Category
	}
	if m.UserID != "" {
		out[MetaUserID] = m.UserID
	}
	if m.SessionID != "" {
		out[MetaSessionID] = m.SessionID
	}
	if m.Type != "" {
		out[MetaType] = m.Type
	}
	if m.Critical {
		out[MetaCritical] = true
	}
	out[MetaImportance] = m.Importance
	out[MetaConfidence] = m.Confidence
	return out
}

func (m Metadata) clone() Metadata {
	out := m
	if m.Extra != nil {
		out.Extra = make(map[string]interface{}, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Record is the unit of storage: content, its linearized text, typed
// metadata, the embedding computed at write time, and bookkeeping fields.
type Record struct {
	// ID is unique across the store: either caller-supplied or a content
	// fingerprint (see Fingerprint).
	ID string

	// Content is the stored value as supplied: free text or a tree of
	// scalars, maps and sequences.
	Content interface{}

	// Text is the linearization of Content used for embedding and keyword
	// matching.
	Text string

	// Meta holds the record's metadata.
	Meta Metadata

	// Embedding is the vector representation of Text, fixed dimension.
	Embedding []float32

	// CreatedAt is set at insertion and never changes, including across
	// explicit-id overwrites.
	CreatedAt time.Time

	// Size is the byte length of the serialized content.
	Size int
}

// Clone returns a deep copy safe to hand to callers.
func (r *Record) Clone() *Record {
	out := *r
	out.Meta = r.Meta.clone()
	if r.Embedding != nil {
		out.Embedding = make([]float32, len(r.Embedding))
		copy(out.Embedding, r.Embedding)
	}
	return &out
}

// Summary is the truncated listing view of a record.
type Summary struct {
	ID        string
	Preview   string
	Size      int
	Category  string
	CreatedAt time.Time
}

// Filters restricts listing and recall to a subset of records. Empty fields
// match everything. Filters are always applied as hard pre-filters.
type Filters struct {
	Category  string
	UserID    string
	SessionID string
}

// Match reports whether the record satisfies every set filter field.
func (f Filters) Match(r *Record) bool {
	if f.Category != "" && r.Meta.Category != f.Category {
		return false
	}
	if f.UserID != "" && r.Meta.UserID != f.UserID {
		return false
	}
	if f.SessionID != "" && r.Meta.SessionID != f.SessionID {
		return false
	}
	return true
}

// ListOptions controls List pagination.
type ListOptions struct {
	Filters
	Limit  int
	Offset int
}

// Linearize turns arbitrary content into indexable text and reports the byte
// size of its serialized form. Strings pass through; structured values are
// serialized for sizing and flattened to their scalar leaves (sorted by key)
// for text.
func Linearize(content interface{}) (text string, size int, err error) {
	if content == nil {
		return "", 0, fmt.Errorf("%w: content is nil", ErrInvalidContent)
	}

	if s, ok := content.(string); ok {
		return s, len(s), nil
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	var parts []string
	flatten(tree, &parts)
	return strings.Join(parts, " "), len(raw), nil
}

func flatten(v interface{}, parts *[]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			*parts = append(*parts, k)
			flatten(t[k], parts)
		}
	case []interface{}:
		for _, item := range t {
			flatten(item, parts)
		}
	case string:
		*parts = append(*parts, t)
	case float64:
		*parts = append(*parts, strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*parts = append(*parts, strconv.FormatBool(t))
	case nil:
		// skip
	}
}

// Fingerprint derives a deterministic record id from normalized content text
// and the owning user. Identical content written twice by the same user
// produces the same id, which is what makes auto-id writes deduplicate.
func Fingerprint(text, userID string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(userID + "\x00" + normalized))
	return "mem_" + hex.EncodeToString(sum[:16])
}

func asString(key string, value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: metadata key %q must be a string", ErrInvalidArgument, key)
	}
	return s, nil
}

func asUnitFloat(key string, value interface{}) (float64, error) {
	var f float64
	switch t := value.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: metadata key %q: %v", ErrInvalidArgument, key, err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: metadata key %q must be a number", ErrInvalidArgument, key)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("%w: metadata key %q must be in [0,1], got %v", ErrInvalidArgument, key, f)
	}
	return f, nil
}
