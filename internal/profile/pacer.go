package profile

import (
	"context"
	"time"
)

// pacer enforces a minimum gap between successive calls to the source
// site, shared across all goroutines using the same client. Unlike a
// token bucket, the gap is measured from the END of the previous call:
// a slow response pushes the next slot out rather than letting a burst
// through. Calls are serialized; concurrent callers queue.
type pacer struct {
	sem      chan struct{}
	interval time.Duration
	nextCall time.Time
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{
		sem:      make(chan struct{}, 1),
		interval: interval,
	}
}

// wait blocks until the caller may proceed. The returned done func must
// be called when the network call finishes; it schedules the next
// allowed call relative to that moment and releases the slot.
func (p *pacer) wait(ctx context.Context) (func(), error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if delay := time.Until(p.nextCall); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			<-p.sem
			return nil, ctx.Err()
		}
	}

	return func() {
		p.nextCall = time.Now().Add(p.interval)
		<-p.sem
	}, nil
}
