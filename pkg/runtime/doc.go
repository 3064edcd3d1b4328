/*
Package runtime provides the container runtime capabilities logwatch consumes.

logwatch never creates or removes containers. It needs exactly three things
from the runtime: a list of running containers, a follow-mode log stream for
one container, and a restart. These are expressed as the Lister, LogStreamer
and Restarter interfaces so that the resolver, the monitor tasks and the
restart coordinator each depend only on what they use, and tests can replace
the runtime with an in-memory fake.

# Docker

DockerRuntime implements Client on the Docker Engine API:

  - ListRunning: GET /containers/json?all=1&filters={"status":["running"]}
  - Logs: GET /containers/{id}/logs?follow=1&stdout=1&stderr=1&since=...
  - Restart: POST /containers/{id}/restart

Docker multiplexes stdout and stderr into one stream with 8 byte frame headers
unless the container was started with a TTY. Logs inspects the container first
and strips the framing with stdcopy when needed, so callers always read plain
text lines.

Names are returned as Docker reports them ("/web"); normalization is the
resolver's job.

# Usage

	rt, err := runtime.NewDockerRuntime(ctx, runtime.Options{
		Host:           "unix:///var/run/docker.sock",
		RestartTimeout: 10 * time.Second,
	})
	if err != nil {
		// errors.Is(err, runtime.ErrConnect)
		return err
	}
	defer rt.Close()

The client is created once and shared by every goroutine; the Docker daemon
serializes its own API.
*/
package runtime
