package runtime

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/cuemby/logwatch/pkg/types"
)

// DockerRuntime implements Client on top of the Docker Engine API
type DockerRuntime struct {
	client         *client.Client
	restartTimeout time.Duration
}

// Options configures the Docker runtime
type Options struct {
	// Host overrides DOCKER_HOST, e.g. unix:///var/run/docker.sock
	Host string

	// RestartTimeout is how long Docker waits for a container to stop
	// before killing it during a restart. Zero uses the container's own
	// stop timeout.
	RestartTimeout time.Duration
}

// NewDockerRuntime connects to the Docker daemon and verifies the
// connection with a ping
func NewDockerRuntime(ctx context.Context, opts Options) (*DockerRuntime, error) {
	clientOpts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	if _, err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	return &DockerRuntime{
		client:         cli,
		restartTimeout: opts.RestartTimeout,
	}, nil
}

// Close closes the Docker client connection
func (r *DockerRuntime) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListRunning returns all running containers. Docker reports names with a
// leading "/", which is kept here.
func (r *DockerRuntime) ListRunning(ctx context.Context) ([]types.Container, error) {
	list, err := r.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("status", "running")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	containers := make([]types.Container, 0, len(list))
	for _, c := range list {
		if c.ID == "" || len(c.Names) == 0 {
			continue
		}
		containers = append(containers, types.Container{
			ID:   c.ID,
			Name: c.Names[0],
		})
	}

	return containers, nil
}

// Logs opens a follow-mode log stream. Containers without a TTY get a
// multiplexed stream from Docker, which is demultiplexed into plain text.
func (r *DockerRuntime) Logs(ctx context.Context, id string, since time.Time) (io.ReadCloser, error) {
	info, err := r.client.ContainerInspect(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", id, err)
	}

	opts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	}
	if !since.IsZero() {
		opts.Since = formatSince(since)
	}

	rc, err := r.client.ContainerLogs(ctx, id, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open logs for container %s: %w", id, err)
	}

	if info.Config != nil && info.Config.Tty {
		return rc, nil
	}

	return demux(rc), nil
}

// Restart restarts a container by id
func (r *DockerRuntime) Restart(ctx context.Context, id string) error {
	var opts container.StopOptions
	if r.restartTimeout > 0 {
		// Docker takes whole seconds and treats 0 as kill immediately
		secs := int(math.Ceil(r.restartTimeout.Seconds()))
		opts.Timeout = &secs
	}

	if err := r.client.ContainerRestart(ctx, id, opts); err != nil {
		return fmt.Errorf("failed to restart container %s: %w", id, err)
	}

	return nil
}

// formatSince renders t the way the Docker API accepts it, as seconds and
// nanoseconds since the epoch
func formatSince(t time.Time) string {
	return fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond())
}

// demuxedStream strips Docker's stream multiplexing headers
type demuxedStream struct {
	*io.PipeReader
	src io.ReadCloser
}

func demux(src io.ReadCloser) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		// stdout and stderr frames are written whole, so lines stay intact
		_, err := stdcopy.StdCopy(pw, pw, src)
		pw.CloseWithError(err)
	}()
	return &demuxedStream{PipeReader: pr, src: src}
}

// Close releases the underlying HTTP stream, which also ends the copier
func (d *demuxedStream) Close() error {
	_ = d.PipeReader.Close()
	return d.src.Close()
}
