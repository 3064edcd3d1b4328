// Package resolver turns logical container names into the ids of the
// containers currently running under those names. It is a pure read of
// runtime state: it lists running containers, normalizes their names and
// filters them against the requested set. The reconciler resolves every
// watch name on each tick; the restart coordinator resolves just the
// restart targets of one watch.
package resolver
