package reload

import (
	"context"
	"time"
)

// DefaultWindow is how long the config directory must be quiet before a
// reload starts. It keeps the sequence from reading a file mid-write.
const DefaultWindow = 50 * time.Millisecond

// Settle coalesces bursts from in. A value is emitted once window has passed
// with no newer input; only the latest value of a burst is emitted. Input
// arriving while the consumer is still busy with the previous value is
// folded into the next emission. The output closes when in closes (after
// flushing) or ctx is done.
func Settle[T any](ctx context.Context, window time.Duration, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)

		timer := time.NewTimer(window)
		timer.Stop()
		defer timer.Stop()

		var pending T
		has, ready := false, false
		for {
			if in == nil && !has {
				return
			}

			var timerC <-chan time.Time
			var outC chan T
			if has && !ready {
				timerC = timer.C
			}
			if ready {
				outC = out
			}

			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					in = nil
					ready = has
					continue
				}
				pending, has, ready = v, true, false
				timer.Reset(window)
			case <-timerC:
				ready = true
			case outC <- pending:
				var zero T
				pending, has, ready = zero, false, false
			}
		}
	}()
	return out
}
