package monitor

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/logwatch/pkg/log"
	"github.com/cuemby/logwatch/pkg/metrics"
	"github.com/cuemby/logwatch/pkg/runtime"
	"github.com/cuemby/logwatch/pkg/types"
)

const (
	// DefaultLookback is how far before its start a fresh task reads logs
	DefaultLookback = 10 * time.Second

	// DefaultReopenDelay is the pause before reopening a broken log stream
	DefaultReopenDelay = time.Second

	// DefaultMaxLineSize bounds a single log line; longer lines break the
	// stream and it is reopened
	DefaultMaxLineSize = 1024 * 1024
)

// Restarter restarts the containers behind a list of target names
type Restarter interface {
	Restart(ctx context.Context, targets []string) error
}

// Config holds monitor task settings
type Config struct {
	// Lookback is how far before its start a task reads logs. Zero starts
	// from the moment the task starts.
	Lookback    time.Duration
	ReopenDelay time.Duration
	MaxLineSize int
}

func (c Config) withDefaults() Config {
	if c.Lookback < 0 {
		c.Lookback = 0
	}
	if c.ReopenDelay <= 0 {
		c.ReopenDelay = DefaultReopenDelay
	}
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = DefaultMaxLineSize
	}
	return c
}

// outcome is how one pass over a log stream ended
type outcome int

const (
	outcomeCancelled outcome = iota
	outcomeRestarted
	outcomeBroken
)

// Task scans the log stream of one container and restarts the watch's
// targets when a pattern matches. A Task is run once; the reconciler
// creates a new Task for every newly resolved container id.
type Task struct {
	id        string
	container types.ResolvedContainer
	streamer  runtime.LogStreamer
	restarter Restarter
	cfg       Config
	logger    zerolog.Logger
	now       func() time.Time

	mu    sync.Mutex
	state types.MonitorState

	// Set before Run; zero means now minus Lookback
	resumeFrom time.Time

	// Owned by the Run goroutine
	since               time.Time
	firstOccurrenceSeen bool
}

// NewTask creates a monitor task for a resolved container
func NewTask(c types.ResolvedContainer, streamer runtime.LogStreamer, restarter Restarter, cfg Config) *Task {
	id := uuid.New().String()
	return &Task{
		id:        id,
		container: c,
		streamer:  streamer,
		restarter: restarter,
		cfg:       cfg.withDefaults(),
		logger: log.WithContainer(c.Name, c.ID).With().
			Str("watch", c.Spec.Name).
			Str("task", id).
			Logger(),
		now:   time.Now,
		state: types.MonitorStateStarting,
	}
}

// ID returns the task instance id
func (t *Task) ID() string {
	return t.id
}

// Container returns the container this task monitors
func (t *Task) Container() types.ResolvedContainer {
	return t.container
}

// State returns the current lifecycle state
func (t *Task) State() types.MonitorState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ResumeFrom makes the task read logs from since instead of looking back
// from its start. It must be called before Run.
func (t *Task) ResumeFrom(since time.Time) {
	t.resumeFrom = since
}

// Cursor returns the point up to which the task has consumed logs. It is
// only meaningful once Run has returned.
func (t *Task) Cursor() time.Time {
	return t.since
}

func (t *Task) setState(s types.MonitorState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Run monitors the container until ctx is cancelled or the task ends on
// its own, and reports why it stopped. Cancelling ctx closes the open log
// stream. A restart already in progress is allowed to finish.
func (t *Task) Run(ctx context.Context) types.StopReason {
	spec := t.container.Spec
	t.logger.Info().
		Strs("patterns", spec.Patterns).
		Strs("restart", spec.RestartTargets).
		Bool("skip_first", spec.SkipFirst).
		Str("policy", string(spec.Policy)).
		Msg("Monitoring logs")

	t.since = t.now().Add(-t.cfg.Lookback)
	if !t.resumeFrom.IsZero() {
		t.since = t.resumeFrom
	}
	reason := t.run(ctx)

	t.setState(types.MonitorStateStopped)
	metrics.MonitorsStoppedTotal.WithLabelValues(string(reason)).Inc()
	t.logger.Info().Str("reason", string(reason)).Msg("Stopped monitoring logs")

	return reason
}

func (t *Task) run(ctx context.Context) types.StopReason {
	singleShot := t.container.Spec.Policy == types.PolicySingleShot

	for {
		if ctx.Err() != nil {
			return types.StopCancelled
		}

		t.setState(types.MonitorStateStarting)

		switch t.scan(ctx) {
		case outcomeCancelled:
			return types.StopCancelled

		case outcomeRestarted:
			if singleShot {
				return types.StopRestartedOnce
			}

		case outcomeBroken:
			t.setState(types.MonitorStateError)
			// Do not replay what was already scanned
			t.since = t.now()
			if singleShot {
				return types.StopError
			}
			if !sleep(ctx, t.cfg.ReopenDelay) {
				return types.StopCancelled
			}
			t.logger.Debug().Time("since", t.since).Msg("Reopening log stream")
		}
	}
}

// scan opens one log stream and reads it line by line until a restart is
// issued, the stream breaks or ctx is cancelled
func (t *Task) scan(ctx context.Context) outcome {
	spec := t.container.Spec

	rc, err := t.streamer.Logs(ctx, t.container.ID, t.since)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCancelled
		}
		t.logger.Error().Err(err).Msg("Failed to open log stream")
		metrics.StreamErrorsTotal.WithLabelValues(spec.Name).Inc()
		return outcomeBroken
	}

	stream := &onceCloser{rc: rc}
	stop := context.AfterFunc(ctx, func() {
		_ = stream.Close()
	})
	defer func() {
		stop()
		_ = stream.Close()
	}()

	t.setState(types.MonitorStateStreaming)

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), t.cfg.MaxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return outcomeCancelled
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		metrics.LogLinesTotal.WithLabelValues(spec.Name).Inc()
		t.logger.Debug().Str("line", line).Msg("New line")

		pattern, ok := spec.Match(line)
		if !ok {
			continue
		}
		metrics.PatternMatchesTotal.WithLabelValues(spec.Name).Inc()

		if spec.SkipFirst && !t.firstOccurrenceSeen {
			t.firstOccurrenceSeen = true
			metrics.MatchesSkippedTotal.WithLabelValues(spec.Name).Inc()
			t.logger.Warn().
				Str("pattern", pattern).
				Str("line", line).
				Msg("Pattern detected, skipping first occurrence")
			continue
		}

		t.setState(types.MonitorStateMatched)
		t.logger.Info().
			Str("pattern", pattern).
			Str("line", line).
			Strs("restart", spec.RestartTargets).
			Msg("Pattern detected, restarting containers")

		// Cancellation is not honored mid-restart
		if err := t.restarter.Restart(context.WithoutCancel(ctx), spec.RestartTargets); err != nil {
			t.logger.Error().Err(err).Msg("Failed to restart containers")
		} else {
			t.logger.Info().Msg("Successfully restarted containers")
		}

		t.since = t.now()
		return outcomeRestarted
	}

	if ctx.Err() != nil {
		return outcomeCancelled
	}

	metrics.StreamErrorsTotal.WithLabelValues(spec.Name).Inc()
	if err := scanner.Err(); err != nil {
		t.logger.Error().Err(err).Msg("Failed to read logs")
	} else {
		t.logger.Warn().Msg("Log stream ended")
	}

	return outcomeBroken
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// duration elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// onceCloser makes Close safe to call from both the cancellation callback
// and the reading goroutine
type onceCloser struct {
	rc   io.ReadCloser
	once sync.Once
	err  error
}

func (o *onceCloser) Read(p []byte) (int, error) {
	return o.rc.Read(p)
}

func (o *onceCloser) Close() error {
	o.once.Do(func() {
		o.err = o.rc.Close()
	})
	return o.err
}
