package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmind/agentmind-go/pkg/store"
)

func TestLinearize_String(t *testing.T) {
	text, size, err := store.Linearize("User prefers Go")
	require.NoError(t, err)
	assert.Equal(t, "User prefers Go", text)
	assert.Equal(t, len("User prefers Go"), size)
}

func TestLinearize_Structured(t *testing.T) {
	content := map[string]interface{}{
		"name":  "Sarah Chen",
		"plan":  "pro",
		"seats": 5,
	}

	text, size, err := store.Linearize(content)
	require.NoError(t, err)
	// Keys are walked in sorted order.
	assert.Equal(t, "name Sarah Chen plan pro seats 5", text)
	assert.Greater(t, size, 0)
}

func TestLinearize_Invalid(t *testing.T) {
	_, _, err := store.Linearize(nil)
	assert.ErrorIs(t, err, store.ErrInvalidContent)

	_, _, err = store.Linearize(make(chan int))
	assert.ErrorIs(t, err, store.ErrInvalidContent)
}

func TestFingerprint_NormalizesContent(t *testing.T) {
	a := store.Fingerprint("User prefers   Go", "u1")
	b := store.Fingerprint("user prefers go", "u1")
	assert.Equal(t, a, b)

	// Different users never collide on the same content.
	c := store.Fingerprint("user prefers go", "u2")
	assert.NotEqual(t, a, c)

	assert.Contains(t, a, "mem_")
}

func TestParseMetadata_Defaults(t *testing.T) {
	meta, err := store.ParseMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultImportance, meta.Importance)
	assert.Equal(t, store.DefaultConfidence, meta.Confidence)
	assert.False(t, meta.Critical)
}

func TestParseMetadata_RecognizedAndExtra(t *testing.T) {
	meta, err := store.ParseMetadata(map[string]interface{}{
		"category":   "business",
		"user_id":    "u1",
		"session_id": "s1",
		"type":       "fact",
		"importance": 0.8,
		"confidence": 0.9,
		"critical":   true,
		"source":     "conversation",
	})
	require.NoError(t, err)

	assert.Equal(t, "business", meta.Category)
	assert.Equal(t, "u1", meta.UserID)
	assert.Equal(t, "s1", meta.SessionID)
	assert.Equal(t, "fact", meta.Type)
	assert.Equal(t, 0.8, meta.Importance)
	assert.Equal(t, 0.9, meta.Confidence)
	assert.True(t, meta.Critical)
	assert.Equal(t, "conversation", meta.Extra["source"])
}

func TestParseMetadata_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{name: "importance out of range", raw: map[string]interface{}{"importance": 1.5}},
		{name: "importance negative", raw: map[string]interface{}{"importance": -0.1}},
		{name: "confidence not a number", raw: map[string]interface{}{"confidence": "high"}},
		{name: "category not a string", raw: map[string]interface{}{"category": 42}},
		{name: "critical not a bool", raw: map[string]interface{}{"critical": "yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.ParseMetadata(tt.raw)
			assert.ErrorIs(t, err, store.ErrInvalidArgument)
		})
	}
}

func TestMetadata_MapRoundTrip(t *testing.T) {
	raw := map[string]interface{}{
		"category":   "business",
		"user_id":    "u1",
		"importance": 0.8,
		"confidence": 0.9,
		"critical":   true,
		"source":     "conversation",
	}

	meta, err := store.ParseMetadata(raw)
	require.NoError(t, err)

	out := meta.Map()
	assert.Equal(t, raw, out)
}

func TestFilters_Match(t *testing.T) {
	rec := &store.Record{
		Meta: store.Metadata{Category: "biz", UserID: "u1", SessionID: "s1"},
	}

	assert.True(t, store.Filters{}.Match(rec))
	assert.True(t, store.Filters{Category: "biz", UserID: "u1"}.Match(rec))
	assert.False(t, store.Filters{Category: "team"}.Match(rec))
	assert.False(t, store.Filters{UserID: "u2"}.Match(rec))
	assert.False(t, store.Filters{SessionID: "s2"}.Match(rec))
}
