/*
Package events provides the wake signal that connects restarts back to the
reconciliation loop.

When the restart coordinator finishes a restart (successfully or not) it calls
Notify. The reconciler waits on C() alongside its interval timer, so a restart
shortens the wait before the next tick instead of leaving it to the timer.

The signal is a single-slot channel rather than a queue: ten restarts that
complete before the reconciler wakes produce one wake. Missing extra signals is
safe because every tick re-resolves the runtime state from scratch.

	wake := events.NewWake()

	// producers
	wake.Notify()

	// consumer
	select {
	case <-timer.C:
	case <-wake.C():
	}
*/
package events
