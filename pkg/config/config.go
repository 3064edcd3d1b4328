package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/logwatch/pkg/monitor"
	"github.com/cuemby/logwatch/pkg/reconciler"
	"github.com/cuemby/logwatch/pkg/resolver"
	"github.com/cuemby/logwatch/pkg/types"
)

// ErrInvalid is wrapped by every configuration error
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete watchdog configuration
type Config struct {
	Interval       time.Duration `yaml:"interval"`
	RetryBackoff   time.Duration `yaml:"retryBackoff"`
	Lookback       time.Duration `yaml:"lookback"`
	ReopenDelay    time.Duration `yaml:"reopenDelay"`
	RestartTimeout time.Duration `yaml:"restartTimeout"`
	Watches        []WatchConfig `yaml:"watches"`
}

// WatchConfig describes one watched container
type WatchConfig struct {
	Name      string       `yaml:"name"`
	Restart   []string     `yaml:"restart"`
	Patterns  []string     `yaml:"patterns"`
	SkipFirst bool         `yaml:"skipFirst"`
	Policy    types.Policy `yaml:"policy,omitempty"`
}

// Default returns a configuration with every timing set to its default and
// no watches
func Default() *Config {
	return &Config{
		Interval:     reconciler.DefaultInterval,
		RetryBackoff: reconciler.DefaultRetryBackoff,
		Lookback:     monitor.DefaultLookback,
		ReopenDelay:  monitor.DefaultReopenDelay,
	}
}

// LoadFile reads a YAML configuration file. Fields missing from the file
// keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrInvalid, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file %s: %w", ErrInvalid, path, err)
	}
	return cfg, nil
}

// WatchesFromFlags pairs repeated --watch, --restart, --pattern,
// --skip-first and --policy values by position. --restart and --pattern
// values are comma-separated lists. --skip-first and --policy may be
// omitted entirely.
func WatchesFromFlags(watch, restart, pattern, skipFirst, policy []string) ([]WatchConfig, error) {
	n := len(watch)
	if len(restart) != n || len(pattern) != n {
		return nil, fmt.Errorf("%w: got %d --watch, %d --restart and %d --pattern values, they must be symmetrical",
			ErrInvalid, n, len(restart), len(pattern))
	}
	if len(skipFirst) != 0 && len(skipFirst) != n {
		return nil, fmt.Errorf("%w: got %d --skip-first values for %d --watch values", ErrInvalid, len(skipFirst), n)
	}
	if len(policy) != 0 && len(policy) != n {
		return nil, fmt.Errorf("%w: got %d --policy values for %d --watch values", ErrInvalid, len(policy), n)
	}

	watches := make([]WatchConfig, 0, n)
	for i := range watch {
		w := WatchConfig{
			Name:     watch[i],
			Restart:  splitList(restart[i]),
			Patterns: splitList(pattern[i]),
		}
		if len(skipFirst) > 0 {
			b, err := strconv.ParseBool(strings.TrimSpace(skipFirst[i]))
			if err != nil {
				return nil, fmt.Errorf("%w: --skip-first %q for watch %q is not a boolean", ErrInvalid, skipFirst[i], watch[i])
			}
			w.SkipFirst = b
		}
		if len(policy) > 0 {
			w.Policy = types.Policy(strings.TrimSpace(policy[i]))
		}
		watches = append(watches, w)
	}
	return watches, nil
}

func splitList(s string) []string {
	return strings.Split(s, ",")
}

// Validate checks the configuration and normalizes it in place: names are
// trimmed and stripped of a leading "/", empty list entries are dropped,
// duplicate patterns are removed and an empty policy becomes debounced.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalid, c.Interval)
	}
	if c.RetryBackoff <= 0 {
		return fmt.Errorf("%w: retry backoff must be positive, got %s", ErrInvalid, c.RetryBackoff)
	}
	if c.Lookback < 0 {
		return fmt.Errorf("%w: lookback must not be negative, got %s", ErrInvalid, c.Lookback)
	}
	if c.ReopenDelay <= 0 {
		return fmt.Errorf("%w: reopen delay must be positive, got %s", ErrInvalid, c.ReopenDelay)
	}
	if c.RestartTimeout < 0 {
		return fmt.Errorf("%w: restart timeout must not be negative, got %s", ErrInvalid, c.RestartTimeout)
	}
	if len(c.Watches) == 0 {
		return fmt.Errorf("%w: at least one watch is required", ErrInvalid)
	}

	seen := make(map[string]struct{}, len(c.Watches))
	for i := range c.Watches {
		w := &c.Watches[i]
		if err := w.normalize(); err != nil {
			return err
		}
		if _, dup := seen[w.Name]; dup {
			return fmt.Errorf("%w: container %q is watched more than once", ErrInvalid, w.Name)
		}
		seen[w.Name] = struct{}{}
	}
	return nil
}

func (w *WatchConfig) normalize() error {
	w.Name = resolver.NormalizeName(strings.TrimSpace(w.Name))
	if w.Name == "" {
		return fmt.Errorf("%w: watch name must not be empty", ErrInvalid)
	}

	targets := make([]string, 0, len(w.Restart))
	for _, t := range w.Restart {
		t = resolver.NormalizeName(strings.TrimSpace(t))
		if t != "" {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: watch %q has no restart targets", ErrInvalid, w.Name)
	}
	w.Restart = targets

	patterns := make([]string, 0, len(w.Patterns))
	seen := make(map[string]struct{}, len(w.Patterns))
	for _, p := range w.Patterns {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return fmt.Errorf("%w: watch %q has no patterns", ErrInvalid, w.Name)
	}
	w.Patterns = patterns

	if w.Policy == "" {
		w.Policy = types.PolicyDebounced
	}
	if !w.Policy.Valid() {
		return fmt.Errorf("%w: watch %q has unknown policy %q (want %s or %s)",
			ErrInvalid, w.Name, w.Policy, types.PolicyDebounced, types.PolicySingleShot)
	}
	return nil
}

// Registry validates the configuration and builds the watch registry
func (c *Config) Registry() (*types.Registry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	specs := make([]*types.WatchSpec, 0, len(c.Watches))
	for _, w := range c.Watches {
		specs = append(specs, &types.WatchSpec{
			Name:           w.Name,
			RestartTargets: append([]string(nil), w.Restart...),
			Patterns:       append([]string(nil), w.Patterns...),
			SkipFirst:      w.SkipFirst,
			Policy:         w.Policy,
		})
	}
	return types.NewRegistry(specs), nil
}

// ReconcilerConfig returns the reconciler settings
func (c *Config) ReconcilerConfig() reconciler.Config {
	return reconciler.Config{
		Interval:     c.Interval,
		RetryBackoff: c.RetryBackoff,
		Monitor: monitor.Config{
			Lookback:    c.Lookback,
			ReopenDelay: c.ReopenDelay,
		},
	}
}
