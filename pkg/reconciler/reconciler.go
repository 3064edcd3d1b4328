package reconciler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/logwatch/pkg/events"
	"github.com/cuemby/logwatch/pkg/log"
	"github.com/cuemby/logwatch/pkg/metrics"
	"github.com/cuemby/logwatch/pkg/monitor"
	"github.com/cuemby/logwatch/pkg/runtime"
	"github.com/cuemby/logwatch/pkg/types"
)

const (
	// DefaultInterval is the wait between ticks absent a wake signal
	DefaultInterval = 10 * time.Second

	// DefaultRetryBackoff is the wait after a tick whose listing failed
	DefaultRetryBackoff = 10 * time.Second
)

// Resolver resolves names to running containers
type Resolver interface {
	Resolve(ctx context.Context, names []string) ([]types.Container, error)
}

// Config holds reconciler settings
type Config struct {
	Interval     time.Duration
	RetryBackoff time.Duration
	Monitor      monitor.Config
}

// Reconciler keeps exactly one monitor task running per resolved watched
// container
type Reconciler struct {
	registry  *types.Registry
	resolver  Resolver
	streamer  runtime.LogStreamer
	restarter monitor.Restarter
	wake      *events.Wake
	cfg       Config
	logger    zerolog.Logger

	// Owned by the goroutine calling Tick
	tasks map[string]*taskHandle

	// Log cursors of tasks that ended on their own, by container id. A
	// restart keeps the id, so the replacement task resumes from there.
	resume map[string]time.Time

	// Snapshot for readers on other goroutines
	mu       sync.RWMutex
	active   map[string]string
	lastTick time.Time
	lastErr  error

	wg sync.WaitGroup

	cancel context.CancelFunc
	doneCh chan struct{}
}

// Status summarizes the most recent tick
type Status struct {
	LastTick  time.Time // Zero until a tick completes
	LastError error     // Error of the most recent tick, if any
	Active    int
}

// taskHandle is the reconciler's side of a running monitor task
type taskHandle struct {
	task   *monitor.Task
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconciler creates a new reconciler. wake may be nil, in which case
// ticks run on the interval alone.
func NewReconciler(reg *types.Registry, res Resolver, streamer runtime.LogStreamer, restarter monitor.Restarter, wake *events.Wake, cfg Config) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if wake == nil {
		wake = events.NewWake()
	}

	return &Reconciler{
		registry:  reg,
		resolver:  res,
		streamer:  streamer,
		restarter: restarter,
		wake:      wake,
		cfg:       cfg,
		logger:    log.WithComponent("reconciler"),
		tasks:     make(map[string]*taskHandle),
		resume:    make(map[string]time.Time),
		active:    make(map[string]string),
	}
}

// Start begins the reconciliation loop in the background
func (r *Reconciler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.doneCh = make(chan struct{})

	go func() {
		defer close(r.doneCh)
		r.Run(ctx)
	}()
}

// Stop stops the loop started by Start and waits for every monitor task to
// return
func (r *Reconciler) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.doneCh
}

// Run is the reconciliation loop. It returns once ctx is cancelled and all
// monitor tasks have stopped.
func (r *Reconciler) Run(ctx context.Context) {
	defer r.stopAll()

	r.logger.Info().
		Strs("watches", r.registry.Names()).
		Dur("interval", r.cfg.Interval).
		Msg("Reconciler started")

	for {
		if err := r.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error().Err(err).
				Dur("backoff", r.cfg.RetryBackoff).
				Msg("Failed to get containers, will sleep and try again")

			// The backoff is not shortened by restarts
			if !sleep(ctx, r.cfg.RetryBackoff) {
				return
			}
			// The retry tick covers restarts that completed meanwhile
			r.wake.Drain()
			continue
		}

		if !r.wait(ctx) {
			return
		}
	}
}

// wait blocks until the interval elapses or a restart completes
func (r *Reconciler) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.cfg.Interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-r.wake.C():
		r.logger.Debug().Msg("Woken by restart")
		return true
	case <-ctx.Done():
		return false
	}
}

// Tick runs one reconciliation cycle. On a resolution failure it returns
// the error and leaves every running task untouched. Tasks are started
// under ctx, so ctx must outlive them. Tick must not be called
// concurrently.
func (r *Reconciler) Tick(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	containers, err := r.resolver.Resolve(ctx, r.registry.Names())
	if err != nil {
		metrics.ReconciliationErrorsTotal.Inc()
		err = fmt.Errorf("failed to resolve watched containers: %w", err)
		r.mu.Lock()
		r.lastTick = time.Now()
		r.lastErr = err
		r.mu.Unlock()
		return err
	}

	resolved := r.registry.Bind(containers)
	current := make(map[string]struct{}, len(resolved))
	for _, c := range resolved {
		current[c.ID] = struct{}{}
	}

	// Forget tasks that ended on their own so they can be started again
	for id, h := range r.tasks {
		select {
		case <-h.done:
			r.resume[id] = h.task.Cursor()
			delete(r.tasks, id)
		default:
		}
	}

	for id := range r.resume {
		if _, ok := current[id]; !ok {
			delete(r.resume, id)
		}
	}

	// Cancel tasks whose container is gone
	for id, h := range r.tasks {
		if _, ok := current[id]; ok {
			continue
		}
		c := h.task.Container()
		r.logger.Info().
			Str("container", c.Name).
			Str("container_id", id).
			Msg("Container no longer running, stopping monitor")
		h.cancel()
		delete(r.tasks, id)
	}

	// Start tasks for containers without one
	for _, c := range resolved {
		if _, ok := r.tasks[c.ID]; ok {
			continue
		}
		r.startTask(ctx, c)
	}

	r.mu.Lock()
	r.lastTick = time.Now()
	r.lastErr = nil
	r.mu.Unlock()

	r.publish()
	return nil
}

func (r *Reconciler) startTask(ctx context.Context, c types.ResolvedContainer) {
	task := monitor.NewTask(c, r.streamer, r.restarter, r.cfg.Monitor)
	if since, ok := r.resume[c.ID]; ok {
		task.ResumeFrom(since)
		delete(r.resume, c.ID)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	h := &taskHandle{
		task:   task,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.tasks[c.ID] = h

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(h.done)
		defer cancel()
		h.task.Run(taskCtx)
	}()

	metrics.MonitorsStartedTotal.Inc()
}

// publish refreshes the snapshot read by Active
func (r *Reconciler) publish() {
	active := make(map[string]string, len(r.tasks))
	for id, h := range r.tasks {
		active[id] = h.task.ID()
	}

	r.mu.Lock()
	r.active = active
	r.mu.Unlock()

	metrics.MonitorsActive.Set(float64(len(active)))
}

// stopAll cancels every task and waits for them to return
func (r *Reconciler) stopAll() {
	for id, h := range r.tasks {
		h.cancel()
		delete(r.tasks, id)
	}
	clear(r.resume)
	r.wg.Wait()
	r.publish()

	r.logger.Info().Msg("Reconciler stopped")
}

// Active returns the container ids with a task as of the last tick, mapped
// to their task instance ids
func (r *Reconciler) Active() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.active))
	for k, v := range r.active {
		out[k] = v
	}
	return out
}

// Status returns the outcome of the most recent tick
func (r *Reconciler) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Status{
		LastTick:  r.lastTick,
		LastError: r.lastErr,
		Active:    len(r.active),
	}
}

// ActiveIDs returns the container ids with a task as of the last tick,
// sorted
func (r *Reconciler) ActiveIDs() []string {
	active := r.Active()
	ids := make([]string, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

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
