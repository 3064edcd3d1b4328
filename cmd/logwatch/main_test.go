package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/logwatch/pkg/config"
	"github.com/cuemby/logwatch/pkg/types"
)

func parse(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "logwatch"}
	registerFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigFromFlags(t *testing.T) {
	cmd := parse(t,
		"-w", "web", "-r", "web,proxy", "-p", "OOM,panic:", "-s", "true",
		"--watch", "/db", "--restart", "db", "--pattern", "FATAL", "--skip-first", "false",
		"--interval", "5s", "--lookback", "0s",
	)

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, []config.WatchConfig{
		{Name: "web", Restart: []string{"web", "proxy"}, Patterns: []string{"OOM", "panic:"}, SkipFirst: true, Policy: types.PolicyDebounced},
		{Name: "db", Restart: []string{"db"}, Patterns: []string{"FATAL"}, Policy: types.PolicyDebounced},
	}, cfg.Watches)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, time.Duration(0), cfg.Lookback)
	assert.Equal(t, config.Default().RetryBackoff, cfg.RetryBackoff)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watches: []\n"), 0644))

	tests := []struct {
		name string
		args []string
	}{
		{
			name: "nothing to watch",
			args: nil,
		},
		{
			name: "asymmetric flags",
			args: []string{"-w", "web", "-w", "db", "-r", "web", "-p", "OOM", "-p", "FATAL"},
		},
		{
			name: "skip-first count mismatch",
			args: []string{"-w", "web", "-w", "db", "-r", "web", "-r", "db", "-p", "OOM", "-p", "FATAL", "-s", "true"},
		},
		{
			name: "config and watch together",
			args: []string{"-c", path, "-w", "web", "-r", "web", "-p", "OOM"},
		},
		{
			name: "empty config file",
			args: []string{"-c", path},
		},
		{
			name: "unknown policy",
			args: []string{"-w", "web", "-r", "web", "-p", "OOM", "--policy", "always"},
		},
		{
			name: "zero interval",
			args: []string{"-w", "web", "-r", "web", "-p", "OOM", "--interval", "0s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(parse(t, tt.args...))
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestLoadConfigFileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
interval: 30s
retryBackoff: 20s
watches:
  - name: web
    restart: [web]
    patterns: [OOM]
    policy: single-shot
`), 0644))

	cfg, err := loadConfig(parse(t, "--config", path, "--retry-backoff", "1m"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, time.Minute, cfg.RetryBackoff)
	require.Len(t, cfg.Watches, 1)
	assert.Equal(t, types.PolicySingleShot, cfg.Watches[0].Policy)
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "logwatch", rootCmd.Use)
	for _, name := range []string{"watch", "restart", "pattern", "skip-first", "policy", "config", "metrics-addr"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "w", rootCmd.Flags().Lookup("watch").Shorthand)
	assert.Equal(t, "s", rootCmd.Flags().Lookup("skip-first").Shorthand)
}
