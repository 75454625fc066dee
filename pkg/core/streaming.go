package core

import (
	"context"
	"sync"
)

// StreamingRecallResult contains a batch of recall results from a streaming
// recall.
type StreamingRecallResult struct {
	// Results is a batch of ranked memories.
	Results []RecallResult

	// BatchIndex is the index of this batch (0-based).
	BatchIndex int

	// IsLastBatch indicates whether this is the last batch.
	IsLastBatch bool

	// Error contains any error that occurred during streaming (if any).
	Error error
}

// RecallStream performs a recall and streams the ranked results in batches.
//
// Instead of returning all results at once, this method sends results in
// batches through a channel, making it suitable for feeding large result
// sets into a consumer incrementally.
//
// Parameters:
//   - ctx: Context for cancellation
//   - query: Recall query text
//   - batchSize: Number of results per batch
//   - opts: Optional recall parameters (Strategy, UserID, Limit, ...)
//
// Returns a channel that receives StreamingRecallResult batches. The
// channel is closed when all results have been sent or an error occurs.
//
// Example:
//
//	resultChan := client.RecallStream(ctx, "project decisions", 25,
//	    core.WithUserIDForRecall("user_001"),
//	    core.WithLimit(200),
//	)
//	for batch := range resultChan {
//	    if batch.Error != nil {
//	        log.Fatal(batch.Error)
//	    }
//	    process(batch.Results)
//	}
func (c *Client) RecallStream(ctx context.Context, query string, batchSize int, opts ...RecallOption) <-chan *StreamingRecallResult {
	resultChan := make(chan *StreamingRecallResult, 1)
	if batchSize <= 0 {
		batchSize = 50
	}

	go func() {
		defer close(resultChan)

		results, err := c.Recall(ctx, query, opts...)
		if err != nil {
			resultChan <- &StreamingRecallResult{
				Error: err,
			}
			return
		}

		batchIndex := 0
		for i := 0; i < len(results); i += batchSize {
			select {
			case <-ctx.Done():
				resultChan <- &StreamingRecallResult{
					BatchIndex: batchIndex,
					Error:      ctx.Err(),
				}
				return
			default:
			}

			end := i + batchSize
			if end > len(results) {
				end = len(results)
			}

			resultChan <- &StreamingRecallResult{
				Results:     results[i:end],
				BatchIndex:  batchIndex,
				IsLastBatch: end >= len(results),
			}
			batchIndex++
		}
	}()

	return resultChan
}

// StreamItem pairs a batch item with its input position, so streamed
// results can be correlated with their source.
type StreamItem struct {
	// Index is the caller-assigned position of this item.
	Index int

	// Item is the memory to store.
	Item Item
}

// StreamItemResult is the outcome of one streamed item.
type StreamItemResult struct {
	// Index is the caller-assigned position of the source item.
	Index int

	// ID is the id of the stored memory (empty if an error occurred).
	ID string

	// Error is the error for this item (nil on success).
	Error error
}

// RememberStream stores memories from a channel using a pool of workers.
//
// Each item succeeds or fails independently, exactly like RememberBatch,
// but items are consumed as they arrive and embedded concurrently. Results
// are delivered unordered; use StreamItem.Index to correlate them.
//
// The result channel is closed after the input channel is closed and all
// in-flight items have completed.
//
// Parameters:
//   - ctx: Context for cancellation
//   - items: Channel of items to store; close it to end the stream
//   - workers: Number of concurrent workers (minimum 1)
//   - userID: Optional common user_id for items that do not set one
//
// Example:
//
//	items := make(chan core.StreamItem)
//	results := client.RememberStream(ctx, items, 4, "user_001")
//	go func() {
//	    for i, content := range contents {
//	        items <- core.StreamItem{Index: i, Item: core.Item{Content: content}}
//	    }
//	    close(items)
//	}()
//	for res := range results {
//	    if res.Error != nil {
//	        log.Error("store failed", "index", res.Index, "err", res.Error)
//	    }
//	}
func (c *Client) RememberStream(ctx context.Context, items <-chan StreamItem, workers int, userID string) <-chan StreamItemResult {
	if workers < 1 {
		workers = 1
	}

	resultChan := make(chan StreamItemResult, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for streamItem := range items {
				select {
				case <-ctx.Done():
					resultChan <- StreamItemResult{
						Index: streamItem.Index,
						Error: NewMemoryError("RememberStream", ctx.Err()),
					}
					continue
				default:
				}

				results := c.RememberBatch(ctx, []Item{streamItem.Item}, userID)
				resultChan <- StreamItemResult{
					Index: streamItem.Index,
					ID:    results[0].ID,
					Error: results[0].Err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	return resultChan
}
