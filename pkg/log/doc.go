/*
Package log provides structured logging for logwatch using zerolog.

The log package wraps the zerolog library to provide structured logging with
component-specific loggers and configurable log levels. Errors in logwatch are observable only through these
logs, so every recoverable failure (a failed listing, a broken log stream, a
failed restart) ends up here with enough context to identify the container.

# Configuration

	log.Init(log.Config{
		Level:      log.ParseLevel("debug"),
		JSONOutput: true,
		Output:     os.Stderr,
	})

Console output (the default) is human readable; JSON output is meant for log
shippers.

# Context Loggers

  - WithComponent: adds component (reconciler, restart, runtime, ...)
  - WithContainer: adds container and a 12 character container_id

Monitor tasks build their logger from WithContainer and add the watch name
and the task instance id:

	logger := log.WithContainer(c.Name, c.ID).With().
		Str("watch", c.Spec.Name).
		Str("task", taskID).
		Logger()

# Log Levels

  - Debug: every scanned log line, resolver results
  - Info: monitor start/stop, pattern matches, restarts
  - Warn: skipped first occurrence, stream reopen
  - Error: listing failures, stream errors, restart failures
*/
package log
