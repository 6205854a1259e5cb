package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"sharescope/internal/config"
	ws "sharescope/internal/websocket"
	"sharescope/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version      string
	platform     string
	paths        *config.Paths
	dataService  *DataService
	webSocketHub *ws.Hub
	startTime    time.Time
	logger       *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(paths *config.Paths, dataService *DataService, webSocketHub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	info := contracts.GetVersionInfo()

	logger.Info("HealthService initialized",
		slog.String("version", info.Version),
		slog.String("platform", info.Platform))

	return &HealthService{
		version:      info.Version,
		platform:     info.Platform,
		paths:        paths,
		dataService:  dataService,
		webSocketHub: webSocketHub,
		startTime:    time.Now(),
		logger:       logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.Debug("HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["dataset"] = hs.checkDatasetHealth()
	status.Services["workbook"] = hs.checkWorkbookHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()

	allReady := true
	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			allReady = false
			break
		}
	}

	if !allReady {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"platform":     hs.platform,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// checkDatasetHealth checks whether a record set is loaded
func (hs *HealthService) checkDatasetHealth() ServiceHealth {
	if hs.dataService == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "data service not initialized",
		}
	}
	if !hs.dataService.Loaded() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "no dataset loaded",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d records loaded", hs.dataService.RecordCount()),
	}
}

// checkWorkbookHealth checks that the configured workbook file exists
func (hs *HealthService) checkWorkbookHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "paths not initialized",
		}
	}
	if _, err := os.Stat(hs.paths.WorkbookFile); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("workbook not found: %s", hs.paths.WorkbookFile),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "workbook present",
	}
}

// checkWebSocketHealth checks WebSocket service health
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.webSocketHub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "websocket hub not initialized",
		}
	}

	totalConnections, messagesSent := hs.webSocketHub.Stats()
	return ServiceHealth{
		Status: "ready",
		Message: fmt.Sprintf("%d clients connected, %d connections total, %d messages sent",
			hs.webSocketHub.ClientCount(), totalConnections, messagesSent),
		Uptime: time.Since(hs.startTime).String(),
	}
}
