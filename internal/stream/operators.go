// Package stream implements the reactive pipeline operators applied to
// the edit stream and workspace-scan task stream (spec section 4.10):
// debounce, chunk, switch_map, timeout, and retry, all cancellation-
// aware via context.Context so that shutdown releases every goroutine
// promptly, grounded on the same select-over-ctx.Done()/ticker shape a
// long-running watcher loop in this codebase's ancestry takes.
package stream

import (
	"context"
	"math"
	"time"
)

// Debounce drops items superseded within d of one another, emitting
// only the final item of each burst. The output channel closes when in
// closes and any pending debounced item has been flushed.
func Debounce[T any](ctx context.Context, in <-chan T, d time.Duration) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		var (
			timer   *time.Timer
			pending T
			have    bool
			fireCh  <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case v, ok := <-in:
				if !ok {
					if have {
						select {
						case out <- pending:
						case <-ctx.Done():
						}
					}
					if timer != nil {
						timer.Stop()
					}
					return
				}
				pending, have = v, true
				if timer == nil {
					timer = time.NewTimer(d)
				} else {
					if !timer.Stop() {
						drainIfPossible(timer)
					}
					timer.Reset(d)
				}
				fireCh = timer.C
			case <-fireCh:
				if have {
					select {
					case out <- pending:
					case <-ctx.Done():
						return
					}
					have = false
				}
			}
		}
	}()
	return out
}

// drainIfPossible empties a fired-but-unread timer channel so a
// subsequent Reset doesn't race against a stale tick. A no-op if the
// timer hadn't fired yet.
func drainIfPossible(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}

// Chunk groups items into batches of up to maxSize, emitting a batch
// when it reaches maxSize or when timeout elapses since the batch's
// first item, whichever comes first. The final partial batch (if any)
// is flushed when in closes.
func Chunk[T any](ctx context.Context, in <-chan T, maxSize int, timeout time.Duration) <-chan []T {
	out := make(chan []T)
	go func() {
		defer close(out)
		var batch []T
		var timer *time.Timer
		var timerC <-chan time.Time

		flush := func() {
			if len(batch) == 0 {
				return
			}
			select {
			case out <- batch:
			case <-ctx.Done():
			}
			batch = nil
			if timer != nil {
				timer.Stop()
				timer = nil
				timerC = nil
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case v, ok := <-in:
				if !ok {
					flush()
					return
				}
				batch = append(batch, v)
				if timer == nil {
					timer = time.NewTimer(timeout)
					timerC = timer.C
				}
				if len(batch) >= maxSize {
					flush()
				}
			case <-timerC:
				flush()
			}
		}
	}()
	return out
}

// SwitchMap applies f to each item of in, cancelling the context passed
// to the previous in-flight call as soon as a new item arrives — only
// the most recently started call's results reach out.
func SwitchMap[T, R any](ctx context.Context, in <-chan T, f func(context.Context, T) <-chan R) <-chan R {
	out := make(chan R)
	go func() {
		defer close(out)
		var cancelPrev context.CancelFunc
		defer func() {
			if cancelPrev != nil {
				cancelPrev()
			}
		}()

		start := func(v T) <-chan R {
			if cancelPrev != nil {
				cancelPrev()
			}
			callCtx, cancel := context.WithCancel(ctx)
			cancelPrev = cancel
			return f(callCtx, v)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				results := start(v)
				for {
					next, inClosed, done := forwardUntilSuperseded(ctx, in, out, results)
					if done {
						return
					}
					if next != nil {
						results = start(*next)
						continue
					}
					// results closed naturally: if in is also closed
					// there is no further work, otherwise go back to
					// the outer select and wait for the next item.
					if inClosed {
						return
					}
					break
				}
			}
		}
	}()
	return out
}

// forwardUntilSuperseded drains results into out until either the
// outer context is cancelled (done=true), results closes naturally
// (supersededBy is nil; inClosed reports whether in was observed
// closed while draining), or a new item arrives on in before results
// closes (returned via supersededBy, so the caller can start a new
// call with it, abandoning this call's remaining results). Once in is
// observed closed it stops being selected on, since a closed channel
// would otherwise be perpetually ready and starve the results case.
func forwardUntilSuperseded[T, R any](ctx context.Context, in <-chan T, out chan<- R, results <-chan R) (supersededBy *T, inClosed bool, done bool) {
	for {
		if in == nil {
			select {
			case <-ctx.Done():
				return nil, true, true
			case r, ok := <-results:
				if !ok {
					return nil, true, false
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return nil, true, true
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil, false, true
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			return &v, false, false
		case r, ok := <-results:
			if !ok {
				return nil, false, false
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return nil, false, true
			case v, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				return &v, false, false
			}
		}
	}
}

// Timeout forwards items from in to the returned channel, closing it if
// more than d elapses between items (or since the stream began)
// without a new one arriving.
func Timeout[T any](ctx context.Context, in <-chan T, d time.Duration) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		timer := time.NewTimer(d)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				if !timer.Stop() {
					drainIfPossible(timer)
				}
				timer.Reset(d)
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Retry calls fn until it succeeds or n retries after the first call
// have failed (n+1 calls in all), waiting 2^attempt * 100ms before
// retry attempt 1, 2, ... (200ms, 400ms, ...). Returns the last error on
// exhaustion, or ctx.Err() if ctx is cancelled during a wait.
func Retry(ctx context.Context, n int, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= n; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := fn(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
