package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fertpulse/internal/shared/testutil"
	"fertpulse/pkg/contracts"
	"fertpulse/pkg/contracts/domain"
)

type fakeLoad domain.LoadState

func (f fakeLoad) State() domain.LoadState { return domain.LoadState(f) }

func TestHealthService_ReadinessCheck(t *testing.T) {
	ready := fakeLoad{Name: "dataset", Status: domain.LoadStatusReady, Count: 6}
	loading := fakeLoad{Name: "dataset", Status: domain.LoadStatusLoading}
	failed := fakeLoad{Name: "dataset", Status: domain.LoadStatusFailed, Error: "404 Not Found"}
	mapReady := fakeLoad{Name: "boundaries", Status: domain.LoadStatusReady, Count: 36}
	mapFailed := fakeLoad{Name: "boundaries", Status: domain.LoadStatusFailed, Error: "timeout"}

	tests := []struct {
		name        string
		dataset     LoadReporter
		boundaries  LoadReporter
		wantStatus  string
		wantDataset string
		wantMap     string
	}{
		{"all ready", ready, mapReady, StatusReady, StatusReady, StatusReady},
		{"map failed only degrades", ready, mapFailed, StatusReady, StatusReady, StatusDegraded},
		{"dataset loading", loading, mapReady, StatusNotReady, StatusNotReady, StatusReady},
		{"dataset failed", failed, mapFailed, StatusNotReady, StatusNotReady, StatusDegraded},
		{"map disabled", ready, nil, StatusReady, StatusReady, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService(tt.dataset, tt.boundaries, time.Now(), logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantDataset, status.Services["dataset"].Status)
			if tt.wantMap == "" {
				assert.NotContains(t, status.Services, "map")
			} else {
				assert.Equal(t, tt.wantMap, status.Services["map"].Status)
			}
		})
	}
}

func TestHealthService_FailedLoadCarriesError(t *testing.T) {
	hs := NewHealthService(fakeLoad{Name: "dataset", Status: domain.LoadStatusFailed, Error: "404 Not Found"}, nil, time.Time{}, nil)

	data := hs.ReadinessCheck(context.Background()).Services["dataset"]
	assert.Equal(t, "404 Not Found", data.Message)
	if assert.NotNil(t, data.Load) {
		assert.Equal(t, domain.LoadStatusFailed, data.Load.Status)
	}
}

func TestHealthService_MissingDataset(t *testing.T) {
	hs := NewHealthService(nil, nil, time.Now(), nil)
	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, StatusNotReady, status.Status)
	assert.Contains(t, status.Services["dataset"].Message, "not configured")
}

func TestHealthService_HealthAndLiveness(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	start := time.Now().Add(-time.Minute)
	hs := NewHealthService(fakeLoad{Status: domain.LoadStatusReady}, nil, start, logger)
	ctx := context.Background()

	health := hs.HealthCheck(ctx)
	assert.Equal(t, StatusOK, health.Status)
	assert.Equal(t, contracts.Version, health.Version)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, StatusAlive, live.Status)
	assert.Contains(t, live.Runtime, "goroutines")
	assert.GreaterOrEqual(t, live.Runtime["uptime_seconds"], int64(60))

	stats := hs.SystemStats(ctx)
	assert.Positive(t, stats.GoRoutines)

	assert.True(t, logs.ContainsMessage("HealthService initialized"))
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService(nil, nil, time.Now(), nil)
	v := hs.Version()

	assert.Equal(t, contracts.Version, v["version"])
	assert.Equal(t, "Fertilizer Pulse", v["name"])
	assert.Equal(t, contracts.APIVersion, v["api_version"])
	assert.Contains(t, v, "go_version")
	assert.Contains(t, v, "start_time")
}
