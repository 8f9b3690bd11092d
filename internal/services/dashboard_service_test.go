package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"fertpulse/internal/aggregation"
	"fertpulse/internal/config"
	"fertpulse/internal/dataset"
	apierrors "fertpulse/internal/errors"
	"fertpulse/internal/files"
	"fertpulse/internal/geo"
	"fertpulse/internal/infrastructure"
	"fertpulse/internal/shared/testutil"
	"fertpulse/pkg/contracts/domain"
)

// fakeRecords is a RecordSource stuck in one state.
type fakeRecords struct {
	records []domain.Record
	err     error
}

func (f fakeRecords) Records() ([]domain.Record, error) { return f.records, f.err }
func (f fakeRecords) State() domain.LoadState {
	if f.err != nil {
		return domain.LoadState{Name: dataset.ResourceName, Status: domain.LoadStatusLoading}
	}
	return domain.LoadState{Name: dataset.ResourceName, Status: domain.LoadStatusReady, Count: len(f.records)}
}

// fakeBoundaries is a BoundarySource stuck in one state.
type fakeBoundaries struct {
	fc    *geojson.FeatureCollection
	err   error
	state domain.LoadStatus
}

func (f fakeBoundaries) Collection() (*geojson.FeatureCollection, error) { return f.fc, f.err }
func (f fakeBoundaries) State() domain.LoadState {
	return domain.LoadState{Name: geo.ResourceName, Status: f.state}
}

func testBoundaries(t *testing.T) *geo.BoundaryStore {
	t.Helper()
	fc, err := geo.DecodeBoundaries(strings.NewReader(testutil.BoundariesJSON))
	require.NoError(t, err)
	return geo.NewStaticBoundaryStore(fc)
}

func newTestService(t *testing.T, records []domain.Record) *DashboardService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewDashboardService(dataset.NewStaticStore(records), testBoundaries(t), nil,
		config.DashboardConfig{Theme: "light"}, nil, logger)
}

func keys(rows []domain.AggregateRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}

func TestDashboardService_KPIs(t *testing.T) {
	svc := newTestService(t, testutil.Records())

	kpis, err := svc.KPIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 280.0, kpis.TotalRequirement)
	assert.Equal(t, 190.0, kpis.TotalAvailability)
	assert.Equal(t, -90.0, kpis.NetBalance)
	assert.Equal(t, 67.86, kpis.FulfillmentRate)
	assert.Equal(t, domain.BalanceDeficit, kpis.Status)
	assert.Equal(t, 6, kpis.RecordCount)
}

func TestDashboardService_EmptyDataset(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	kpis, err := svc.KPIs(ctx)
	require.NoError(t, err)
	assert.Zero(t, kpis.FulfillmentRate)

	opts, err := svc.Options(ctx)
	require.NoError(t, err)
	assert.Empty(t, opts.States)
	assert.Empty(t, opts.DefaultState)

	table, err := svc.ProductTable(ctx, TableQuery{})
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestDashboardService_Options(t *testing.T) {
	svc := newTestService(t, testutil.Records())

	opts, err := svc.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2023"}, opts.Years)
	assert.Equal(t, []string{"April", "May", "June"}, opts.Months)
	assert.Equal(t, []string{"Bihar", "Punjab", "Uttar Pradesh"}, opts.States)
	assert.Equal(t, []string{"DAP", "MOP", "Urea"}, opts.Products)
	assert.Equal(t, []string{"All", "April", "May", "June"}, opts.MonthFilter)
	assert.Equal(t, []string{"All Products", "DAP", "MOP", "Urea"}, opts.ChartProducts)
	assert.Equal(t, "Uttar Pradesh", opts.DefaultState)
	assert.Equal(t, "April", opts.DefaultMonth)
	assert.Equal(t, "light", opts.Theme)
}

func TestDashboardService_MonthlyChart(t *testing.T) {
	records := append(testutil.Records(),
		testutil.Record("7", "July", "Uttar Pradesh", "Urea", "0", "0"),
		testutil.Record("8", "August", "Uttar Pradesh", "Urea", "-5", "0"))
	svc := newTestService(t, records)

	tests := []struct {
		name     string
		query    MonthlyQuery
		wantMode string
		wantKeys []string
		wantReq  []float64
	}{
		{"defaults", MonthlyQuery{}, MonthlyByProduct, []string{"Urea"}, []float64{100}},
		{"state and month", MonthlyQuery{State: "Uttar Pradesh", Month: "May"}, MonthlyByProduct, []string{"DAP"}, []float64{60}},
		{"all products sentinel", MonthlyQuery{State: "Bihar", Month: "April", Product: "All Products"}, MonthlyByProduct, []string{"DAP"}, []float64{40}},
		{"product across months drops months without positive sums", MonthlyQuery{State: "Uttar Pradesh", Product: "Urea"}, MonthlyByMonth, []string{"April", "June"}, []float64{100, 10}},
		{"unknown state", MonthlyQuery{State: "Goa", Month: "April"}, MonthlyByProduct, []string{}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chart, err := svc.MonthlyChart(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, chart.Mode)
			assert.Equal(t, tt.wantKeys, keys(chart.Rows))
			req := make([]float64, len(chart.Rows))
			for i, r := range chart.Rows {
				req[i] = r.Requirement
			}
			assert.Equal(t, tt.wantReq, req)
		})
	}

	_, err := svc.MonthlyChart(context.Background(), MonthlyQuery{Month: "Smarch"})
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestDashboardService_BreakdownChart(t *testing.T) {
	svc := newTestService(t, testutil.Records())
	ctx := context.Background()

	t.Run("defaults to the configured state", func(t *testing.T) {
		b, err := svc.BreakdownChart(ctx, BreakdownQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Bihar", "Punjab", "Uttar Pradesh"}, b.Groups)
		assert.Equal(t, "Uttar Pradesh", b.Selected)
		assert.Equal(t, []string{"DAP", "Urea"}, keys(b.Rows))
		assert.Equal(t, []Point{{"DAP", 60}, {"Urea", 110}}, b.Series)
	})

	t.Run("unknown selection falls back to the first group", func(t *testing.T) {
		b, err := svc.BreakdownChart(ctx, BreakdownQuery{Parent: "month", Child: "state", Field: "availability", Selected: "Smarch"})
		require.NoError(t, err)
		assert.Equal(t, "April", b.Selected)
		assert.Equal(t, []Point{{"Bihar", 55}, {"Uttar Pradesh", 80}}, b.Series)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			query BreakdownQuery
			want  error
		}{
			{BreakdownQuery{Parent: "requirement"}, ErrInvalidDimension},
			{BreakdownQuery{Child: "id"}, ErrInvalidDimension},
			{BreakdownQuery{Parent: "product", Child: "product"}, ErrInvalidDimension},
			{BreakdownQuery{Field: "net_balance"}, ErrInvalidValueField},
		}
		for _, tt := range tests {
			_, err := svc.BreakdownChart(ctx, tt.query)
			assert.ErrorIs(t, err, tt.want, fmt.Sprintf("%+v", tt.query))

			var appErr *apierrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apierrors.ErrTypeValidation, appErr.Type)
		}
	})
}

func TestDashboardService_TopProducts(t *testing.T) {
	svc := newTestService(t, append(testutil.Records(),
		testutil.Record("8", "June", "Punjab", "", "999", "999")))
	ctx := context.Background()

	tests := []struct {
		name  string
		query TopProductsQuery
		want  []Point
	}{
		{"requirement", TopProductsQuery{}, []Point{{"Urea", 160}, {"DAP", 100}, {"MOP", 20}}},
		{"availability", TopProductsQuery{Field: "availability"}, []Point{{"DAP", 85}, {"Urea", 80}, {"MOP", 25}}},
		{"ascending limited", TopProductsQuery{Ascending: true, Limit: 2}, []Point{{"MOP", 20}, {"DAP", 100}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top, err := svc.TopProducts(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, top.Slices)
			assert.Len(t, top.Rows, len(tt.want))
		})
	}

	_, err := svc.TopProducts(ctx, TopProductsQuery{Field: "id"})
	assert.ErrorIs(t, err, ErrInvalidValueField)
	_, err = svc.TopProducts(ctx, TopProductsQuery{Limit: -1})
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestDashboardService_ProductTable(t *testing.T) {
	incomplete := testutil.Record("9", "April", "Bihar", "SSP", "5", "")
	incomplete.Availability = domain.Quantity{}
	svc := newTestService(t, append(testutil.Records(), incomplete))
	ctx := context.Background()

	t.Run("default sort", func(t *testing.T) {
		table, err := svc.ProductTable(ctx, TableQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"DAP", "MOP", "Urea"}, keys(table.Rows))
		assert.Equal(t, aggregation.SortState{Key: "product", Direction: aggregation.Ascending}, table.Sort)
		assert.Equal(t, domain.AggregateRow{Key: "Total", Requirement: 280, Availability: 190}, table.Totals)
	})

	t.Run("filtered and sorted", func(t *testing.T) {
		table, err := svc.ProductTable(ctx, TableQuery{State: "Bihar", Sort: "requirement", Direction: "descending"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Urea", "DAP"}, keys(table.Rows))
	})

	t.Run("search", func(t *testing.T) {
		table, err := svc.ProductTable(ctx, TableQuery{
			Year:   "2023",
			Month:  "All",
			Search: map[aggregation.Field]string{aggregation.FieldProduct: "ur"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Urea"}, keys(table.Rows))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := svc.ProductTable(ctx, TableQuery{Direction: "up"})
		assert.ErrorIs(t, err, aggregation.ErrInvalidDirection)
		_, err = svc.ProductTable(ctx, TableQuery{Sort: "colour"})
		assert.ErrorIs(t, err, aggregation.ErrUnknownSortKey)
		_, err = svc.ProductTable(ctx, TableQuery{Sort: "state"})
		assert.ErrorIs(t, err, aggregation.ErrUnknownSortKey)
		_, err = svc.ProductTable(ctx, TableQuery{Search: map[aggregation.Field]string{"colour": "x"}})
		assert.ErrorIs(t, err, aggregation.ErrUnknownField)
		_, err = svc.ProductTable(ctx, TableQuery{Month: "Smarch"})
		assert.ErrorIs(t, err, ErrInvalidMonth)
	})
}

func TestDashboardService_RecordTable(t *testing.T) {
	svc := newTestService(t, testutil.Records())
	ctx := context.Background()

	ids := func(records []domain.Record) []string {
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = string(r.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		query TableQuery
		want  []string
	}{
		{"default id order", TableQuery{}, []string{"1", "2", "3", "4", "5", "6"}},
		{"requirement descending", TableQuery{Sort: "requirement", Direction: "descending"}, []string{"1", "3", "4", "2", "5", "6"}},
		{"month filter", TableQuery{Month: "June"}, []string{"5", "6"}},
		{"search availability", TableQuery{Search: map[aggregation.Field]string{aggregation.FieldAvailability: "N/A"}}, []string{"6"}},
		{"no match", TableQuery{Year: "2024"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := svc.RecordTable(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(table.Records))
		})
	}

	_, err := svc.RecordTable(ctx, TableQuery{Sort: "colour"})
	assert.ErrorIs(t, err, aggregation.ErrUnknownField)
}

func TestDashboardService_StateBalancesAndMap(t *testing.T) {
	svc := newTestService(t, testutil.Records())
	ctx := context.Background()

	balances, err := svc.StateBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bihar", "Punjab", "Uttar Pradesh"}, keys(balances))
	assert.Equal(t, -60.0, balances[2].NetBalance())

	view, err := svc.StateMap(ctx)
	require.NoError(t, err)
	require.NotNil(t, view.Map)
	assert.Equal(t, domain.LoadStatusReady, view.Boundaries.Status)
	assert.Equal(t, []string{"Uttar Pradesh"}, view.Map.UnmatchedStates)
	require.Len(t, view.Map.Regions, 3)
	assert.True(t, view.Map.Regions[0].HasData)
	assert.False(t, view.Map.Regions[2].HasData)
	assert.Equal(t, "Kerala - Net Balance: N/A MT", view.Map.Regions[2].Label)
}

func TestDashboardService_StateMapBoundaryStates(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	records := dataset.NewStaticStore(testutil.Records())
	ctx := context.Background()

	loading := NewDashboardService(records,
		fakeBoundaries{err: fmt.Errorf("%w: boundaries", files.ErrNotReady), state: domain.LoadStatusLoading},
		nil, config.DashboardConfig{}, nil, logger)
	_, err := loading.StateMap(ctx)
	assert.ErrorIs(t, err, files.ErrNotReady)

	failed := NewDashboardService(records,
		fakeBoundaries{err: fmt.Errorf("%w: boundaries: 404", files.ErrLoadFailed), state: domain.LoadStatusFailed},
		nil, config.DashboardConfig{}, nil, logger)
	view, err := failed.StateMap(ctx)
	require.NoError(t, err)
	assert.Nil(t, view.Map)
	assert.Equal(t, geo.LoadErrorMessage, view.Message)
	assert.Equal(t, domain.LoadStatusFailed, view.Boundaries.Status)
}

func TestDashboardService_DatasetNotReady(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := NewDashboardService(fakeRecords{err: fmt.Errorf("%w: dataset", files.ErrNotReady)},
		testBoundaries(t), nil, config.DashboardConfig{}, nil, logger)
	ctx := context.Background()

	_, err := svc.KPIs(ctx)
	assert.ErrorIs(t, err, files.ErrNotReady)
	_, err = svc.Summary(ctx)
	assert.ErrorIs(t, err, files.ErrNotReady)
	_, err = svc.RecordTable(ctx, TableQuery{})
	assert.ErrorIs(t, err, files.ErrNotReady)
}

func TestDashboardService_Summary(t *testing.T) {
	svc := newTestService(t, testutil.Records())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 280.0, summary.KPIs.TotalRequirement)
	assert.Equal(t, []string{"Urea", "DAP", "MOP"}, keys(summary.TopRequirement.Rows))
	assert.Equal(t, []string{"DAP", "Urea", "MOP"}, keys(summary.TopAvailability.Rows))
	assert.Len(t, summary.StateBalances, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Summary(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDashboardService_Telemetry(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	svc := NewDashboardService(dataset.NewStaticStore(testutil.Records()), testBoundaries(t), nil,
		config.DashboardConfig{}, metrics, logger)

	ctx := context.Background()
	_, err = svc.StateMap(ctx)
	require.NoError(t, err)
	_, err = svc.ProductTable(ctx, TableQuery{Sort: "colour"})
	require.Error(t, err)

	ended := spans.Ended()
	names := make([]string, 0)
	for _, s := range ended {
		names = append(names, s.Name())
	}
	require.Equal(t, []string{"dashboard.state_map", "dashboard.product_table"}, names)

	mapSpan := ended[0]
	require.Len(t, mapSpan.Events(), 1)
	assert.Equal(t, "view.computed", mapSpan.Events()[0].Name)
	attrKeys := make([]attribute.Key, 0)
	for _, kv := range mapSpan.Attributes() {
		attrKeys = append(attrKeys, kv.Key)
	}
	assert.Contains(t, attrKeys, attribute.Key("view.rows"))

	tableSpan := ended[1]
	assert.Equal(t, codes.Error, tableSpan.Status().Code)
	require.NotEmpty(t, tableSpan.Events())
	assert.Equal(t, "exception", tableSpan.Events()[0].Name)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	assert.True(t, found["dashboard_view_requests_total"])
	assert.True(t, found["dashboard_view_errors_total"])
	assert.True(t, found["map_unmatched_states"])
}
