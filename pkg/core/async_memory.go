package core

import (
	"context"
	"sync"
	"time"
)

// AsyncClient provides asynchronous AgentMind operations.
//
// It wraps the synchronous Client and executes all operations in separate
// goroutines, making it suitable for scenarios requiring concurrent
// processing of multiple operations.
//
// All async methods return channels that will receive the results when
// operations complete. The client tracks all goroutines and provides Wait()
// to ensure all operations finish.
//
// Example:
//
//	asyncClient, _ := core.NewAsyncClient(ctx, config)
//	defer asyncClient.Close()
//
//	resultChan := asyncClient.RememberAsync(ctx, "User likes Go", core.WithUserID("user_001"))
//	result := <-resultChan
//	if result.Error != nil {
//	    log.Fatal(result.Error)
//	}
type AsyncClient struct {
	*Client
	wg sync.WaitGroup
}

// NewAsyncClient creates a new asynchronous AgentMind client.
func NewAsyncClient(ctx context.Context, cfg *Config) (*AsyncClient, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &AsyncClient{
		Client: client,
	}, nil
}

// RememberResult contains the result of an asynchronous Remember.
type RememberResult struct {
	// ID is the id of the stored memory (empty if an error occurred).
	ID string

	// Error is the error returned by the operation (nil on success).
	Error error
}

// AsyncRecallResult contains the result of an asynchronous Recall.
type AsyncRecallResult struct {
	// Results is the ranked list of matching memories.
	Results []RecallResult

	// Error is the error returned by the operation (nil on success).
	Error error
}

// AsyncSummaryResult contains the result of an asynchronous session
// summarization.
type AsyncSummaryResult struct {
	// Summary is the generated summary text.
	Summary string

	// Error is the error returned by the operation (nil on success).
	Error error
}

// RememberAsync stores a memory asynchronously.
//
// The operation executes in a separate goroutine and returns its result via
// a channel.
func (ac *AsyncClient) RememberAsync(ctx context.Context, content interface{}, opts ...RememberOption) <-chan *RememberResult {
	resultChan := make(chan *RememberResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		id, err := ac.Remember(ctx, content, opts...)
		resultChan <- &RememberResult{
			ID:    id,
			Error: err,
		}
		close(resultChan)
	}()

	return resultChan
}

// RecallAsync recalls memories asynchronously.
func (ac *AsyncClient) RecallAsync(ctx context.Context, query string, opts ...RecallOption) <-chan *AsyncRecallResult {
	resultChan := make(chan *AsyncRecallResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		results, err := ac.Recall(ctx, query, opts...)
		resultChan <- &AsyncRecallResult{
			Results: results,
			Error:   err,
		}
		close(resultChan)
	}()

	return resultChan
}

// DeleteAsync deletes a memory asynchronously.
//
// Returns a channel that receives the error (nil if deletion succeeds or
// the id was absent).
func (ac *AsyncClient) DeleteAsync(ctx context.Context, id string) <-chan error {
	errChan := make(chan error, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		_, err := ac.Delete(ctx, id)
		errChan <- err
		close(errChan)
	}()

	return errChan
}

// SummarizeSessionAsync summarizes a session asynchronously.
func (ac *AsyncClient) SummarizeSessionAsync(ctx context.Context, sessionID string) <-chan *AsyncSummaryResult {
	resultChan := make(chan *AsyncSummaryResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		summary, err := ac.SummarizeSession(ctx, sessionID)
		resultChan <- &AsyncSummaryResult{
			Summary: summary,
			Error:   err,
		}
		close(resultChan)
	}()

	return resultChan
}

// ForgetBeforeAsync applies retention asynchronously.
//
// Returns a channel that receives the deletion count and any error.
func (ac *AsyncClient) ForgetBeforeAsync(ctx context.Context, cutoff time.Time, userID string) <-chan *AsyncForgetResult {
	resultChan := make(chan *AsyncForgetResult, 1)
	ac.wg.Add(1)

	go func() {
		defer ac.wg.Done()
		deleted, err := ac.ForgetBefore(ctx, cutoff, userID)
		resultChan <- &AsyncForgetResult{
			Deleted: deleted,
			Error:   err,
		}
		close(resultChan)
	}()

	return resultChan
}

// AsyncForgetResult contains the result of an asynchronous ForgetBefore.
type AsyncForgetResult struct {
	// Deleted is the number of memories actually deleted.
	Deleted int

	// Error is the error returned by the operation (nil on success).
	Error error
}

// Wait waits for all asynchronous operations to complete.
//
// This method blocks until all goroutines started by async methods have
// finished. It should be called before program exit to ensure all
// operations complete.
func (ac *AsyncClient) Wait() {
	ac.wg.Wait()
}

// Close closes the asynchronous client.
//
// It first waits for all asynchronous operations to complete, then closes
// the underlying client.
func (ac *AsyncClient) Close() error {
	ac.Wait()
	return ac.Client.Close()
}
