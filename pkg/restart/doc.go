/*
Package restart provides the coordinator that monitor tasks call when a
pattern matches.

A watch names its restart targets, not container ids: a target may have been
recreated with a new id since startup, or may not be running at all. The
coordinator resolves the names at the moment of the restart, restarts each
running target one after another in the order the runtime lists them, and skips
names with nothing running behind them. A stopped target is not a failure.

Every call ends by notifying the wake signal, whether the restarts succeeded
or not, so the reconciler re-resolves promptly and picks up containers that
came back with new ids.

Failed restarts are reported to the caller as one joined error and are not
retried.
*/
package restart
