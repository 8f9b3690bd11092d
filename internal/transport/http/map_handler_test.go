package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "fertpulse/internal/errors"
	"fertpulse/internal/files"
	"fertpulse/internal/geo"
	"fertpulse/internal/services"
	"fertpulse/internal/shared/testutil"
	"fertpulse/pkg/contracts/domain"
)

func newMapHandler(t *testing.T, service DashboardServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewMapHandler(service, logger, apierrors.NewErrorHandler(logger, false)).Routes()
}

func TestMapHandler_GetStates(t *testing.T) {
	service := new(MockDashboardService)
	service.On("StateBalances").Return([]domain.AggregateRow{
		{Key: "Bihar", Requirement: 90, Availability: 55},
	}, nil)

	w := httptest.NewRecorder()
	newMapHandler(t, service).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/states", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])
	row := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(-35), row["net_balance"])
}

func TestMapHandler_GetRegions(t *testing.T) {
	tests := []struct {
		name           string
		result         *services.StateMap
		err            error
		expectedStatus int
		expectedCount  float64
	}{
		{
			name: "joined",
			result: &services.StateMap{
				Boundaries: domain.LoadState{Name: geo.ResourceName, Status: domain.LoadStatusReady},
				Map: &geo.Choropleth{
					Regions:         []geo.Region{{}, {}},
					UnmatchedStates: []string{"Uttar Pradesh"},
				},
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name: "boundaries failed",
			result: &services.StateMap{
				Boundaries: domain.LoadState{Name: geo.ResourceName, Status: domain.LoadStatusFailed, Error: "404"},
				Message:    geo.LoadErrorMessage,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "boundaries loading",
			err:            fmt.Errorf("%w: %s", files.ErrNotReady, geo.ResourceName),
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockDashboardService)
			if tt.err != nil {
				service.On("StateMap").Return(nil, tt.err)
			} else {
				service.On("StateMap").Return(tt.result, nil)
			}

			w := httptest.NewRecorder()
			newMapHandler(t, service).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/regions", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.err == nil {
				body := decodeBody(t, w)
				assert.Equal(t, tt.expectedCount, body["count"])
				data := body["data"].(map[string]interface{})
				if tt.result.Map == nil {
					assert.Equal(t, geo.LoadErrorMessage, data["message"])
					assert.NotContains(t, data, "map")
				}
			}
		})
	}
}
