package resolver

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cuemby/logwatch/pkg/log"
	"github.com/cuemby/logwatch/pkg/runtime"
	"github.com/cuemby/logwatch/pkg/types"
)

// Resolver maps container names to the ids of running containers
type Resolver struct {
	runtime runtime.Lister
	logger  zerolog.Logger
}

// NewResolver creates a new resolver
func NewResolver(rt runtime.Lister) *Resolver {
	return &Resolver{
		runtime: rt,
		logger:  log.WithComponent("resolver"),
	}
}

// Resolve returns the running containers whose normalized name is in
// names, in the order the runtime listed them. Runtime errors are returned
// unchanged; retrying is up to the caller.
func (r *Resolver) Resolve(ctx context.Context, names []string) ([]types.Container, error) {
	containers, err := r.runtime.ListRunning(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	seen := make(map[string]struct{}, len(containers))
	resolved := make([]types.Container, 0, len(names))
	for _, c := range containers {
		name := NormalizeName(c.Name)
		if _, ok := wanted[name]; !ok {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		resolved = append(resolved, types.Container{ID: c.ID, Name: name})
	}

	r.logger.Debug().
		Strs("names", names).
		Int("running", len(containers)).
		Int("resolved", len(resolved)).
		Msg("Resolved containers")

	return resolved, nil
}

// NormalizeName strips the leading "/" Docker puts on container names
func NormalizeName(name string) string {
	return strings.TrimPrefix(name, "/")
}
