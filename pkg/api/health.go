package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/logwatch/pkg/log"
	"github.com/cuemby/logwatch/pkg/metrics"
	"github.com/cuemby/logwatch/pkg/reconciler"
)

// Version is reported by /health; set from the command's build info
var Version = "dev"

// StatusSource reports the state of the reconciliation loop
type StatusSource interface {
	Status() reconciler.Status
}

// HealthServer provides HTTP health check and metrics endpoints
type HealthServer struct {
	status StatusSource
	mux    *http.ServeMux
	logger zerolog.Logger
}

// NewHealthServer creates a new health check HTTP server. status may be nil,
// in which case /ready always reports not ready.
func NewHealthServer(status StatusSource) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		status: status,
		mux:    mux,
		logger: log.WithComponent("api"),
	}

	// Register endpoints
	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Serve listens on addr until ctx is cancelled, then shuts the server down
func (hs *HealthServer) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		hs.logger.Info().Str("addr", addr).Msg("Metrics server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down metrics server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// healthHandler implements the /health endpoint
// This is a simple liveness check - returns 200 if the process is alive
func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// readyHandler implements the /ready endpoint. The watchdog is ready once
// the most recent reconciliation tick could list containers.
func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	if hs.status == nil {
		checks["runtime"] = "not initialized"
		checks["monitors"] = "not initialized"
		ready = false
		message = "Reconciler not initialized"
	} else {
		st := hs.status.Status()
		switch {
		case st.LastTick.IsZero():
			checks["runtime"] = "pending"
			ready = false
			message = "Waiting for first reconciliation"
		case st.LastError != nil:
			checks["runtime"] = fmt.Sprintf("error: %v", st.LastError)
			ready = false
			message = "Container runtime not reachable"
		default:
			checks["runtime"] = "ok"
		}
		checks["monitors"] = strconv.Itoa(st.Active)
	}

	status := "ready"
	statusCode := http.StatusOK

	if !ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadyResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
		Message:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// GetHandler returns the HTTP handler for embedding in other servers
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}
