package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/logwatch/pkg/types"
)

type stubLister struct {
	containers []types.Container
	err        error
	calls      int
}

func (s *stubLister) ListRunning(ctx context.Context) ([]types.Container, error) {
	s.calls++
	return s.containers, s.err
}

func TestResolve(t *testing.T) {
	running := []types.Container{
		{ID: "c1", Name: "/web"},
		{ID: "c2", Name: "/db"},
		{ID: "c3", Name: "/cache"},
		{ID: "c4", Name: "proxy"},
	}

	tests := []struct {
		name     string
		names    []string
		expected []types.Container
	}{
		{
			name:     "strips leading slash",
			names:    []string{"web"},
			expected: []types.Container{{ID: "c1", Name: "web"}},
		},
		{
			name:  "keeps listing order",
			names: []string{"db", "web"},
			expected: []types.Container{
				{ID: "c1", Name: "web"},
				{ID: "c2", Name: "db"},
			},
		},
		{
			name:     "name without prefix",
			names:    []string{"proxy"},
			expected: []types.Container{{ID: "c4", Name: "proxy"}},
		},
		{
			name:     "no match",
			names:    []string{"missing"},
			expected: []types.Container{},
		},
		{
			name:     "prefixed name is not a match",
			names:    []string{"/web"},
			expected: []types.Container{},
		},
		{
			name:     "empty names",
			names:    nil,
			expected: []types.Container{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&stubLister{containers: running})

			got, err := r.Resolve(context.Background(), tt.names)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveCollapsesDuplicateIDs(t *testing.T) {
	r := NewResolver(&stubLister{containers: []types.Container{
		{ID: "c1", Name: "/web"},
		{ID: "c1", Name: "/web"},
	}})

	got, err := r.Resolve(context.Background(), []string{"web"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestResolveSurfacesRuntimeError(t *testing.T) {
	listErr := errors.New("daemon unavailable")
	stub := &stubLister{err: listErr}
	r := NewResolver(stub)

	got, err := r.Resolve(context.Background(), []string{"web"})
	assert.Nil(t, got)
	assert.Equal(t, listErr, err)
	assert.Equal(t, 1, stub.calls, "resolver must not retry")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "web", NormalizeName("/web"))
	assert.Equal(t, "web", NormalizeName("web"))
	assert.Equal(t, "", NormalizeName("/"))
}
