package cqio

// Future is the minimal poll contract the single-future driver understands.
type Future[R any] interface {
	Poll(w Waker) (res R, ready bool, err error)
}

// Await drives exactly one future to completion: poll, block until the
// source wakes the driver, poll again. It exists as a bootstrap and test
// harness; multiplexing many futures over shared completion queues belongs
// to a real scheduler implementing the Waker contract.
func Await[R any](fut Future[R]) (res R, err error) {
	w := newChanWaker()
	for {
		var ready bool
		res, ready, err = fut.Poll(w)
		if ready || err != nil {
			return
		}
		w.wait()
	}
}

func newChanWaker() *chanWaker {
	return &chanWaker{ch: make(chan struct{}, 1)}
}

// chanWaker coalesces wake-ups into a one-slot channel, so a wake that
// lands between a poll and the following wait is never lost.
type chanWaker struct {
	ch chan struct{}
}

func (w *chanWaker) Wake() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func (w *chanWaker) wait() {
	<-w.ch
}
