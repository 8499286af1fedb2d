package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFanOut_ResultsKeepIndexOrder(t *testing.T) {
	results := fanOut(context.Background(), 4, 50, func(_ context.Context, i int) int {
		// Later indexes finish first to make ordering matter.
		time.Sleep(time.Duration(50-i) * time.Microsecond)
		return i * 2
	})

	if len(results) != 50 {
		t.Fatalf("results = %d, want 50", len(results))
	}
	for i, got := range results {
		if got != i*2 {
			t.Fatalf("result[%d] = %d, want %d", i, got, i*2)
		}
	}
}

func TestFanOut_BoundsConcurrency(t *testing.T) {
	const workers = 3
	var inFlight, peak int32
	var mu sync.Mutex

	fanOut(context.Background(), workers, 30, func(_ context.Context, i int) struct{} {
		n := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}
	})

	if peak > workers {
		t.Errorf("peak concurrency = %d, want <= %d", peak, workers)
	}
}

func TestFanOut_StopsLaunchingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var launched int32

	fanOut(ctx, 1, 100, func(_ context.Context, i int) struct{} {
		atomic.AddInt32(&launched, 1)
		if i == 0 {
			cancel()
		}
		return struct{}{}
	})

	if got := atomic.LoadInt32(&launched); got == 100 {
		t.Error("expected cancellation to skip pending indexes")
	}
	if ctx.Err() == nil {
		t.Fatal("context should be cancelled")
	}
}

func TestFanOut_EmptyInput(t *testing.T) {
	results := fanOut(context.Background(), 8, 0, func(_ context.Context, i int) int { return i })
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}
