package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyValid(t *testing.T) {
	tests := []struct {
		policy Policy
		valid  bool
	}{
		{PolicyDebounced, true},
		{PolicySingleShot, true},
		{Policy(""), false},
		{Policy("Debounced"), false},
		{Policy("once"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.policy.Valid())
		})
	}
}

func TestWatchSpecMatch(t *testing.T) {
	spec := &WatchSpec{Name: "web", Patterns: []string{"OOM", "panic:"}}

	tests := []struct {
		name        string
		line        string
		wantPattern string
		wantMatch   bool
	}{
		{
			name:        "exact line",
			line:        "OOM",
			wantPattern: "OOM",
			wantMatch:   true,
		},
		{
			name:        "substring",
			line:        "2024-01-01 kernel: OOM killer invoked",
			wantPattern: "OOM",
			wantMatch:   true,
		},
		{
			name:        "second pattern",
			line:        "panic: runtime error",
			wantPattern: "panic:",
			wantMatch:   true,
		},
		{
			name:        "first pattern wins",
			line:        "panic: OOM",
			wantPattern: "OOM",
			wantMatch:   true,
		},
		{
			name:      "case sensitive",
			line:      "oom killer",
			wantMatch: false,
		},
		{
			name:      "no regex semantics",
			line:      "panic runtime error",
			wantMatch: false,
		},
		{
			name:      "empty line",
			line:      "",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, ok := spec.Match(tt.line)
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.wantPattern, pattern)
		})
	}
}

func TestRegistry(t *testing.T) {
	web := &WatchSpec{Name: "web", RestartTargets: []string{"web"}, Patterns: []string{"OOM"}}
	db := &WatchSpec{Name: "db", RestartTargets: []string{"db", "web"}, Patterns: []string{"FATAL"}}
	dup := &WatchSpec{Name: "web", RestartTargets: []string{"other"}, Patterns: []string{"x"}}

	reg := NewRegistry([]*WatchSpec{web, db, dup})

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"web", "db"}, reg.Names())

	got, ok := reg.Lookup("web")
	require.True(t, ok)
	assert.Same(t, web, got)

	_, ok = reg.Lookup("cache")
	assert.False(t, ok)

	// Names returns a copy
	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"web", "db"}, reg.Names())
}

func TestRegistryBind(t *testing.T) {
	web := &WatchSpec{Name: "web", Patterns: []string{"OOM"}}
	db := &WatchSpec{Name: "db", Patterns: []string{"FATAL"}}
	reg := NewRegistry([]*WatchSpec{web, db})

	tests := []struct {
		name       string
		containers []Container
		expected   []ResolvedContainer
	}{
		{
			name:       "no containers",
			containers: nil,
			expected:   []ResolvedContainer{},
		},
		{
			name: "unwatched containers are dropped",
			containers: []Container{
				{ID: "c1", Name: "web"},
				{ID: "x1", Name: "cache"},
				{ID: "c2", Name: "db"},
			},
			expected: []ResolvedContainer{
				{ID: "c1", Name: "web", Spec: web},
				{ID: "c2", Name: "db", Spec: db},
			},
		},
		{
			name: "order is preserved",
			containers: []Container{
				{ID: "c2", Name: "db"},
				{ID: "c1", Name: "web"},
			},
			expected: []ResolvedContainer{
				{ID: "c2", Name: "db", Spec: db},
				{ID: "c1", Name: "web", Spec: web},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, reg.Bind(tt.containers))
		})
	}
}
