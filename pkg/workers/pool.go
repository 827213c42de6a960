// Package workers provides a bounded-parallelism worker pool used by
// Stage-2 verification to fan out external lookups without exceeding
// API rate limits.
package workers

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// PoolConfig configures the worker pool.
type PoolConfig struct {
	MaxConcurrent int // Maximum concurrent executions (default: 4)
}

// Pool manages concurrent execution with bounded parallelism. A semaphore
// limits outstanding work; results are collected as they complete.
type Pool struct {
	config PoolConfig
	logger *zap.Logger
}

// NewPool creates a new worker pool.
func NewPool(config PoolConfig, logger *zap.Logger) *Pool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 4
	}
	return &Pool{
		config: config,
		logger: logger.Named("worker-pool"),
	}
}

// Item represents a unit of work to be processed.
type Item[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// Result represents the outcome of one work item.
type Result[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all work items with bounded parallelism. Results are
// returned in completion order, not submission order. Individual failures
// never stop the remaining items; every input yields exactly one result.
func Process[T any](ctx context.Context, pool *Pool, items []Item[T]) []Result[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]Result[T], 0, len(items))
	resultsChan := make(chan Result[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item Item[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- Result[T]{ID: item.ID, Result: zero, Err: ctx.Err()}
				return
			}

			result, err := item.Execute(ctx)
			resultsChan <- Result[T]{
				ID:     item.ID,
				Result: result,
				Err:    err,
			}
		}(item)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for result := range resultsChan {
		results = append(results, result)
	}

	return results
}
