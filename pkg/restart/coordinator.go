package restart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cuemby/logwatch/pkg/events"
	"github.com/cuemby/logwatch/pkg/log"
	"github.com/cuemby/logwatch/pkg/metrics"
	"github.com/cuemby/logwatch/pkg/runtime"
	"github.com/cuemby/logwatch/pkg/types"
)

// Resolver resolves names to running containers
type Resolver interface {
	Resolve(ctx context.Context, names []string) ([]types.Container, error)
}

// Coordinator restarts the running containers behind a list of target names
type Coordinator struct {
	resolver Resolver
	runtime  runtime.Restarter
	wake     *events.Wake
	logger   zerolog.Logger
}

// NewCoordinator creates a new restart coordinator. wake may be nil.
func NewCoordinator(res Resolver, rt runtime.Restarter, wake *events.Wake) *Coordinator {
	return &Coordinator{
		resolver: res,
		runtime:  rt,
		wake:     wake,
		logger:   log.WithComponent("restart"),
	}
}

// Restart resolves targets and restarts each running one sequentially, in
// the order the runtime listed them. Targets with no running container are
// skipped. Every resolved target is attempted; failures are joined into the
// returned error. The wake signal fires on every return.
func (c *Coordinator) Restart(ctx context.Context, targets []string) error {
	if c.wake != nil {
		defer c.wake.Notify()
	}

	containers, err := c.resolver.Resolve(ctx, targets)
	if err != nil {
		return fmt.Errorf("failed to resolve restart targets: %w", err)
	}

	if len(containers) == 0 {
		c.logger.Warn().Strs("targets", targets).Msg("No restart target is running")
		return nil
	}

	var errs []error
	for _, target := range containers {
		logger := c.logger.With().Str("target", target.Name).Str("target_id", target.ID).Logger()
		logger.Info().Msg("Restarting container")

		if err := c.runtime.Restart(ctx, target.ID); err != nil {
			logger.Error().Err(err).Msg("Failed to restart container")
			metrics.RestartsTotal.WithLabelValues(target.Name, metrics.ResultFailure).Inc()
			errs = append(errs, fmt.Errorf("restart %s: %w", target.Name, err))
			continue
		}

		metrics.RestartsTotal.WithLabelValues(target.Name, metrics.ResultSuccess).Inc()
		logger.Info().Msg("Restarted container")
	}

	return errors.Join(errs...)
}
