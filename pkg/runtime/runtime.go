package runtime

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cuemby/logwatch/pkg/types"
)

// ErrConnect is returned when the runtime endpoint cannot be reached at
// startup
var ErrConnect = errors.New("cannot connect to container runtime")

// Lister lists running containers
type Lister interface {
	// ListRunning returns every running container with the name exactly as
	// the runtime reports it
	ListRunning(ctx context.Context) ([]types.Container, error)
}

// LogStreamer opens follow-mode log streams
type LogStreamer interface {
	// Logs returns the combined stdout and stderr of a container as plain
	// text, starting at since (zero means from the beginning) and following
	// new output until the container stops, ctx is cancelled or the stream
	// is closed
	Logs(ctx context.Context, id string, since time.Time) (io.ReadCloser, error)
}

// Restarter restarts containers by id
type Restarter interface {
	Restart(ctx context.Context, id string) error
}

// Client is the full set of runtime capabilities logwatch consumes. Calls
// are safe for concurrent use.
type Client interface {
	Lister
	LogStreamer
	Restarter
	Close() error
}
