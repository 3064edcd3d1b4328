package events

// Wake is a coalescing notification with any number of producers and a
// single consumer. Notifications sent while one is already pending collapse
// into it, so the consumer wakes at most once per pending signal.
type Wake struct {
	ch chan struct{}
}

// NewWake creates a new wake signal
func NewWake() *Wake {
	return &Wake{ch: make(chan struct{}, 1)}
}

// Notify marks the signal pending. It never blocks.
func (w *Wake) Notify() {
	select {
	case w.ch <- struct{}{}:
	default:
		// Already pending
	}
}

// C returns the channel the consumer selects on. Receiving from it clears
// the pending signal.
func (w *Wake) C() <-chan struct{} {
	return w.ch
}

// Drain clears a pending signal without waiting and reports whether one
// was pending
func (w *Wake) Drain() bool {
	select {
	case <-w.ch:
		return true
	default:
		return false
	}
}
