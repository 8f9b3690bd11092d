package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fertpulse/internal/services"
	"fertpulse/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) KPIs(ctx context.Context) (domain.KPIs, error) {
	args := m.Called()
	return args.Get(0).(domain.KPIs), args.Error(1)
}

func (m *MockDashboardService) Options(ctx context.Context) (*services.Options, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Options), args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context) (*services.Summary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Summary), args.Error(1)
}

func (m *MockDashboardService) MonthlyChart(ctx context.Context, q services.MonthlyQuery) (*services.MonthlyChart, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MonthlyChart), args.Error(1)
}

func (m *MockDashboardService) BreakdownChart(ctx context.Context, q services.BreakdownQuery) (*services.Breakdown, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Breakdown), args.Error(1)
}

func (m *MockDashboardService) TopProducts(ctx context.Context, q services.TopProductsQuery) (*services.TopProducts, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TopProducts), args.Error(1)
}

func (m *MockDashboardService) ProductTable(ctx context.Context, q services.TableQuery) (*services.ProductTable, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProductTable), args.Error(1)
}

func (m *MockDashboardService) RecordTable(ctx context.Context, q services.TableQuery) (*services.RecordTable, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RecordTable), args.Error(1)
}

func (m *MockDashboardService) StateBalances(ctx context.Context) ([]domain.AggregateRow, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AggregateRow), args.Error(1)
}

func (m *MockDashboardService) StateMap(ctx context.Context) (*services.StateMap, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StateMap), args.Error(1)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
