package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ChannelStatus is the read-only view of a ring channel that readiness reports.
type ChannelStatus interface {
	Capacity() int
	Count() int
	IsFull() bool
}

// ChannelChecker reports a ring channel's occupancy. It is live for the
// whole process and ready between SetReady(true) and SetReady(false).
type ChannelChecker struct {
	name  string
	ch    ChannelStatus
	ready atomic.Bool
}

// NewChannelChecker returns a checker that starts not ready.
func NewChannelChecker(name string, ch ChannelStatus) *ChannelChecker {
	return &ChannelChecker{name: name, ch: ch}
}

// SetReady flips readiness.
func (c *ChannelChecker) SetReady(ready bool) {
	c.ready.Store(ready)
}

func (c *ChannelChecker) Liveness() bool {
	return true
}

func (c *ChannelChecker) Readiness(ctx context.Context) bool {
	return ctx.Err() == nil && c.ready.Load()
}

func (c *ChannelChecker) GetStatus() map[string]string {
	return map[string]string{
		"channel":  c.name,
		"capacity": strconv.Itoa(c.ch.Capacity()),
		"count":    strconv.Itoa(c.ch.Count()),
		"full":     strconv.FormatBool(c.ch.IsFull()),
	}
}

// LivenessHandler returns a handler for Kubernetes liveness probes.
func LivenessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "alive"
		statusCode := http.StatusOK

		if !checker.Liveness() {
			status = "not alive"
			statusCode = http.StatusServiceUnavailable
		}

		writeHealth(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, logger)
	}
}

// ReadinessHandler returns a handler for Kubernetes readiness probes.
// The body always carries the channel status, ready or not.
func ReadinessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ready"
		statusCode := http.StatusOK

		if !checker.Readiness(r.Context()) {
			status = "not ready"
			statusCode = http.StatusServiceUnavailable
		}

		writeHealth(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checker.GetStatus(),
		}, logger)
	}
}

func writeHealth(w http.ResponseWriter, statusCode int, response HealthResponse, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}
