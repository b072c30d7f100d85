package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"glucoreport/pkg/contracts"
)

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	reports   *ReportService
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Version   string      `json:"version"`
	Stats     SystemStats `json:"stats"`
}

// SystemStats represents runtime statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	QueuedRuns       int     `json:"queued_runs"`
	KnownRuns        int     `json:"known_runs"`
	WebSocketClients int     `json:"websocket_clients"`
	Goroutines       int     `json:"goroutines"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a health service. Either dependency may be nil.
func NewHealthService(reports *ReportService, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		reports:   reports,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Check returns the current health. The service is "degraded" while its
// report queue is full.
func (h *HealthService) Check(ctx context.Context) HealthStatus {
	stats := SystemStats{
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	status := "ok"
	if h.reports != nil {
		stats.QueuedRuns = h.reports.QueueLength()
		stats.KnownRuns = len(h.reports.Runs())
		if stats.QueuedRuns >= cap(h.reports.queue) {
			status = "degraded"
		}
	}
	if h.clients != nil {
		stats.WebSocketClients = h.clients.ClientCount()
	}

	h.logger.DebugContext(ctx, "health check",
		slog.String("status", status),
		slog.Int("queued_runs", stats.QueuedRuns))

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Version:   contracts.GetVersionString(),
		Stats:     stats,
	}
}
