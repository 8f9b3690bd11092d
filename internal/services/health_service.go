package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"fertpulse/internal/config"
	"fertpulse/internal/infrastructure"
	"fertpulse/pkg/contracts"
	"fertpulse/pkg/contracts/domain"
)

// LoadReporter reports the state of a one-shot load.
type LoadReporter interface {
	State() domain.LoadState
}

// Health and readiness statuses.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusDegraded = "degraded"
	StatusAlive    = "alive"
)

// HealthService provides health check functionality
type HealthService struct {
	version    contracts.VersionInfo
	dataset    LoadReporter
	boundaries LoadReporter
	startTime  time.Time
	logger     *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Load    *domain.LoadState `json:"load,omitempty"`
}

// NewHealthService creates a health service over the dataset and boundary
// loads. boundaries may be nil when the map is disabled.
func NewHealthService(dataset, boundaries LoadReporter, startTime time.Time, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if startTime.IsZero() {
		startTime = time.Now()
	}

	version := contracts.GetVersionInfo()
	logger.Info("HealthService initialized",
		slog.String("version", version.Version),
		slog.String("build_time", version.BuildTime))

	return &HealthService{
		version:    version,
		dataset:    dataset,
		boundaries: boundaries,
		startTime:  startTime,
		logger:     infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version.Version,
	}
}

// ReadinessCheck is ready once the dataset is. A failed boundary load only
// degrades the map.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services:  make(map[string]ServiceHealth),
	}

	data := hs.checkLoad(hs.dataset, "dataset")
	status.Services["dataset"] = data
	if data.Status != StatusReady {
		status.Status = StatusNotReady
	}

	if hs.boundaries != nil {
		status.Services["map"] = hs.checkLoad(hs.boundaries, "map")
	}

	if status.Status != StatusReady {
		hs.logger.DebugContext(ctx, "ReadinessCheck: not ready",
			slog.String("dataset", data.Status))
	}
	return status
}

// checkLoad maps a load state to a service health. The dataset blocks
// readiness, any other resource only degrades.
func (hs *HealthService) checkLoad(r LoadReporter, name string) ServiceHealth {
	if r == nil {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("%s not configured", name)}
	}

	state := r.State()
	health := ServiceHealth{Load: &state}
	switch state.Status {
	case domain.LoadStatusReady:
		health.Status = StatusReady
		health.Message = fmt.Sprintf("%d items loaded", state.Count)
	case domain.LoadStatusFailed:
		health.Status = StatusNotReady
		if name != "dataset" {
			health.Status = StatusDegraded
		}
		health.Message = state.Error
	default:
		health.Status = StatusNotReady
		health.Message = fmt.Sprintf("%s is loading", name)
	}
	return health
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Runtime:   infrastructure.CollectSystemStats(hs.startTime).FormatStats(),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"name":         config.AppName,
		"version":      hs.version.Version,
		"stage":        hs.version.Stage,
		"api_version":  hs.version.APIVersion,
		"data_format":  hs.version.DataFormat,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.version.BuildTime != "" {
		result["build_time"] = hs.version.BuildTime
	}
	if hs.version.GitCommit != "" {
		result["git_commit"] = hs.version.GitCommit
	}

	return result
}

// SystemStats returns runtime statistics
func (hs *HealthService) SystemStats(ctx context.Context) infrastructure.SystemStats {
	return infrastructure.CollectSystemStats(hs.startTime)
}
