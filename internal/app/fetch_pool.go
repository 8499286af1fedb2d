package app

import (
	"context"
	"sync"
)

// fanOut runs fn for indexes [0, count) on at most workers goroutines and
// returns the results in index order. When ctx is cancelled, pending indexes
// are never launched; callers must check ctx.Err() to distinguish a complete
// result set from an abandoned one.
func fanOut[T any](ctx context.Context, workers, count int, fn func(ctx context.Context, i int) T) []T {
	if count == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	results := make([]T, count)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return results
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = fn(ctx, i)
		}(i)
	}
	wg.Wait()
	return results
}
