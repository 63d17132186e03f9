package event

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Wait when no matching value arrives before the
// deadline.
var ErrTimeout = errors.New("event: wait timed out")

// ErrClosed is returned by Wait when the channel closes before a matching
// value arrives (the publisher side shut down).
var ErrClosed = errors.New("event: channel closed")

// Wait reads from sub until pred returns a match, the timeout elapses, or
// the channel closes. Callers MUST subscribe before triggering whatever
// condition they are waiting for — Wait itself only consumes an existing
// channel, closing the subscribe-then-command-then-observe race window
// described in spec §2 and §9.
func Wait[T, R any](sub <-chan T, pred func(T) (R, bool), timeout time.Duration) (R, error) {
	var zero R
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case v, ok := <-sub:
			if !ok {
				return zero, ErrClosed
			}
			if r, matched := pred(v); matched {
				return r, nil
			}
		case <-deadline.C:
			return zero, ErrTimeout
		}
	}
}
