package http

import (
	"context"

	"fertpulse/internal/services"
	"fertpulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the views served over HTTP.
// *services.DashboardService implements it.
type DashboardServiceInterface interface {
	KPIs(ctx context.Context) (domain.KPIs, error)
	Options(ctx context.Context) (*services.Options, error)
	Summary(ctx context.Context) (*services.Summary, error)
	MonthlyChart(ctx context.Context, q services.MonthlyQuery) (*services.MonthlyChart, error)
	BreakdownChart(ctx context.Context, q services.BreakdownQuery) (*services.Breakdown, error)
	TopProducts(ctx context.Context, q services.TopProductsQuery) (*services.TopProducts, error)
	ProductTable(ctx context.Context, q services.TableQuery) (*services.ProductTable, error)
	RecordTable(ctx context.Context, q services.TableQuery) (*services.RecordTable, error)
	StateBalances(ctx context.Context) ([]domain.AggregateRow, error)
	StateMap(ctx context.Context) (*services.StateMap, error)
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
