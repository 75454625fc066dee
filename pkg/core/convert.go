package core

import (
	"github.com/agentmind/agentmind-go/pkg/store"
)

// memoryFromRecord converts a storage record to the client Memory type.
func memoryFromRecord(rec *store.Record) *Memory {
	if rec == nil {
		return nil
	}

	var extra map[string]interface{}
	if len(rec.Meta.Extra) > 0 {
		extra = make(map[string]interface{}, len(rec.Meta.Extra))
		for k, v := range rec.Meta.Extra {
			extra[k] = v
		}
	}

	return &Memory{
		ID:         rec.ID,
		Content:    rec.Content,
		Text:       rec.Text,
		UserID:     rec.Meta.UserID,
		SessionID:  rec.Meta.SessionID,
		Category:   rec.Meta.Category,
		Importance: rec.Meta.Importance,
		Confidence: rec.Meta.Confidence,
		Critical:   rec.Meta.Critical,
		Type:       rec.Meta.Type,
		Metadata:   extra,
		CreatedAt:  rec.CreatedAt,
		Size:       rec.Size,
	}
}

// memoriesFromRecords converts a slice of records, preserving order.
func memoriesFromRecords(recs []*store.Record) []*Memory {
	memories := make([]*Memory, len(recs))
	for i, rec := range recs {
		memories[i] = memoryFromRecord(rec)
	}
	return memories
}
