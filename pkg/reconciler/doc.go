/*
Package reconciler keeps one monitor task running per watched container.

Each tick resolves every watched name to the containers that are running
right now, then converges the task set to match:

	┌──────────────────────────────────────────────┐
	│              Reconciliation Loop             │
	│   (every Interval, or on a restart signal)   │
	└───────────────────────┬──────────────────────┘
	                        │
	                        ▼
	              Resolve watched names
	                        │
	          ┌─────────────┼──────────────┐
	          ▼             ▼              ▼
	   prune finished   cancel tasks   start tasks
	   tasks            for vanished   for new ids
	                    ids

A task is keyed by container id, not by name. A container recreated under
the same name gets a new id and therefore a fresh task, which resets its
skip-first state.

# Failure Handling

When listing containers fails the tick changes nothing: running tasks keep
streaming and the loop sleeps RetryBackoff before trying again. A restart
completing during the backoff does not shorten it.

# Usage

	rec := reconciler.NewReconciler(registry, res, rt, coordinator, wake, reconciler.Config{
		Interval:     10 * time.Second,
		RetryBackoff: 10 * time.Second,
	})
	rec.Start()
	defer rec.Stop()

Run can be used directly instead of Start and Stop when the caller owns the
goroutine; it returns after ctx is cancelled and every task has stopped.
*/
package reconciler
