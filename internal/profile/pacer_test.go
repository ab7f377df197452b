package profile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_EnforcesSpacing(t *testing.T) {
	interval := 50 * time.Millisecond
	p := newPacer(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		done, err := p.wait(context.Background())
		require.NoError(t, err)
		done()
	}
	elapsed := time.Since(start)

	// First call is free; two more are each spaced by the interval.
	assert.GreaterOrEqual(t, elapsed, 2*interval)
}

func TestPacer_SpacingFromEndOfCall(t *testing.T) {
	interval := 40 * time.Millisecond
	p := newPacer(interval)

	done, err := p.wait(context.Background())
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond) // simulate a slow response
	done()
	endOfFirst := time.Now()

	done, err = p.wait(context.Background())
	require.NoError(t, err)
	done()

	assert.GreaterOrEqual(t, time.Since(endOfFirst), interval)
}

func TestPacer_SharedAcrossGoroutines(t *testing.T) {
	interval := 30 * time.Millisecond
	p := newPacer(interval)

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done, err := p.wait(context.Background())
			if err != nil {
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
			done()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 4)
	for i := 1; i < len(stamps); i++ {
		for j := 0; j < i; j++ {
			gap := stamps[i].Sub(stamps[j])
			if gap < 0 {
				gap = -gap
			}
			assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond,
				"calls %d and %d issued within the spacing window", j, i)
		}
	}
}

func TestPacer_CancelledWhileWaiting(t *testing.T) {
	p := newPacer(time.Minute)

	done, err := p.wait(context.Background())
	require.NoError(t, err)
	done()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The slot must be released for the next caller.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	_, err = p.wait(ctx2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
