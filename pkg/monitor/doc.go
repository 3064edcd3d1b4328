/*
Package monitor implements the per-container log scanning task.

A Task follows the log stream of one running container, checks every line
against the watch's patterns and calls the restart coordinator on a match.
The reconciler runs one Task per resolved container id and cancels it when
the id stops resolving.

# Lifecycle

	starting ──► streaming ──► matched ──► (debounced) reopen, streaming
	    ▲            │                └──► (single-shot) stopped: restarted-once
	    │            ▼
	    └──────── error ─────────────────► (single-shot) stopped: error

	any state ── ctx cancelled ──► stopped: cancelled

# Policies

Debounced tasks live as long as the container resolves. After a restart the
log cursor moves to the moment of the restart and the stream is reopened, so
lines seen before the restart are not matched again. A broken stream is
reopened after a short delay, also from the current time.

Single-shot tasks stop after issuing one restart or on the first stream
failure; the reconciler starts a fresh task for the container on its next
tick if it still resolves.

# Skip First

With SkipFirst set, the first match seen by a task instance is logged and
ignored; every later match restarts. The flag belongs to the task instance:
it survives stream reopens but a new task (for a new container id, or after
a single-shot task ended) starts over.

# Cancellation

Cancelling the task context closes the open stream, which unblocks a pending
read. Lines read after cancellation never trigger a restart. A restart call
already in progress runs to completion with a context detached from
cancellation.
*/
package monitor
