package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/logwatch/pkg/reconciler"
)

type staticStatus reconciler.Status

func (s staticStatus) Status() reconciler.Status {
	return reconciler.Status(s)
}

// TestHealthHandler tests the /health endpoint
func TestHealthHandler(t *testing.T) {
	hs := NewHealthServer(nil)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{
			name:           "GET request succeeds",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "POST request fails",
			method:         http.MethodPost,
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "DELETE request fails",
			method:         http.MethodDelete,
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			hs.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

				var response HealthResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, "healthy", response.Status)
				assert.False(t, response.Timestamp.IsZero())
				assert.Equal(t, Version, response.Version)
			}
		})
	}
}

// TestReadyHandler tests the /ready endpoint against reconciler states
func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name           string
		status         StatusSource
		expectedStatus int
		expectedChecks map[string]string
	}{
		{
			name:           "no reconciler",
			status:         nil,
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"runtime": "not initialized", "monitors": "not initialized"},
		},
		{
			name:           "no tick yet",
			status:         staticStatus{},
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"runtime": "pending", "monitors": "0"},
		},
		{
			name:           "last tick failed",
			status:         staticStatus{LastTick: time.Now(), LastError: errors.New("daemon unavailable"), Active: 2},
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"runtime": "error: daemon unavailable", "monitors": "2"},
		},
		{
			name:           "healthy",
			status:         staticStatus{LastTick: time.Now(), Active: 3},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]string{"runtime": "ok", "monitors": "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthServer(tt.status)

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()

			hs.readyHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ReadyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedChecks, response.Checks)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "ready", response.Status)
				assert.Empty(t, response.Message)
			} else {
				assert.Equal(t, "not ready", response.Status)
				assert.NotEmpty(t, response.Message)
			}
		})
	}
}

// TestReadyHandlerMethodValidation tests readiness endpoint HTTP method validation
func TestReadyHandlerMethodValidation(t *testing.T) {
	hs := NewHealthServer(staticStatus{LastTick: time.Now()})

	req := httptest.NewRequest(http.MethodPost, "/ready", nil)
	w := httptest.NewRecorder()

	hs.readyHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// TestNewHealthServer tests route registration
func TestNewHealthServer(t *testing.T) {
	hs := NewHealthServer(nil)

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{path: "/health", expectedStatus: http.StatusOK},
		{path: "/ready", expectedStatus: http.StatusServiceUnavailable},
		{path: "/metrics", expectedStatus: http.StatusOK},
		{path: "/nonexistent", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			hs.GetHandler().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Path: %s", tt.path)
		})
	}
}

// TestServe tests that the server answers requests and stops on cancel
func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	hs := NewHealthServer(staticStatus{LastTick: time.Now()})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.Serve(ctx, addr)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeAddressInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	hs := NewHealthServer(nil)
	err = hs.Serve(context.Background(), l.Addr().String())
	assert.Error(t, err)
}

func BenchmarkHealthHandler(b *testing.B) {
	hs := NewHealthServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		hs.healthHandler(w, req)
	}
}
