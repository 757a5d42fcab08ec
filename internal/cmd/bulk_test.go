package cmd

import (
	"bytes"
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRunBulk_KeepsOrderAndBoundsConcurrency(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	var inFlight, peak atomic.Int64
	results := runBulk(context.Background(), items, bulkOptions{Concurrency: 3}, func(_ context.Context, n int) bulkResult {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return bulkResult{ID: strconv.Itoa(n), Success: n%2 == 0}
	})

	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, strconv.Itoa(i), r.ID)
	}
	assert.LessOrEqual(t, peak.Load(), int64(3))

	succeeded, failed := countResults(results)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, failed)
}

func TestRunBulk_Progress(t *testing.T) {
	var out bytes.Buffer
	results := runBulk(context.Background(), []string{"a", "b"}, bulkOptions{Progress: true, ErrOut: &out}, func(_ context.Context, s string) bulkResult {
		return bulkResult{ID: s, Success: true}
	})
	require.Len(t, results, 2)
	assert.Contains(t, out.String(), "Processed 2/2\n")
}

func TestRunBulk_CancelledContextSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := runBulk(ctx, []int{1, 2, 3}, bulkOptions{Concurrency: 1}, func(context.Context, int) bulkResult {
		calls.Add(1)
		return bulkResult{Success: true}
	})
	assert.Empty(t, results)
	assert.Zero(t, calls.Load())
}

func TestRunBulk_Limiter(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1000), 1)
	results := runBulk(context.Background(), []int{1, 2, 3}, bulkOptions{Limiter: limiter}, func(_ context.Context, n int) bulkResult {
		return bulkResult{ID: strconv.Itoa(n), Success: true}
	})
	assert.Len(t, results, 3)
}
