/*
Package types defines the core data structures used throughout logwatch.

The types package is the foundation of the watchdog's data model. It defines
what is watched (WatchSpec), what the runtime reports (Container), and the
binding of the two that the reconciler hands to monitor tasks
(ResolvedContainer).

# Core Types

Configuration:
  - WatchSpec: watched container name, restart targets, patterns, skip-first
  - Policy: debounced (long-lived) or single-shot (stop after one restart)
  - Registry: watch name to WatchSpec lookup, built once at startup

Runtime State:
  - Container: id and normalized name of a running container
  - ResolvedContainer: a running watched container with its WatchSpec

Monitor Lifecycle:
  - MonitorState: starting, streaming, matched, error, stopped
  - StopReason: cancelled, error, restarted-once

# Usage

Building a registry:

	reg := types.NewRegistry([]*types.WatchSpec{
		{
			Name:           "web",
			RestartTargets: []string{"web", "proxy"},
			Patterns:       []string{"OOM"},
			SkipFirst:      true,
			Policy:         types.PolicyDebounced,
		},
	})

	resolved := reg.Bind(containers)

Matching a log line:

	if pattern, ok := spec.Match(line); ok {
		// restart
	}

# Thread Safety

WatchSpec and Registry are immutable after construction and safe to share
between goroutines. Container values are copied by value and never mutated.
*/
package types
