package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"fertpulse/internal/aggregation"
	"fertpulse/internal/config"
	"fertpulse/internal/files"
	"fertpulse/internal/geo"
	"fertpulse/internal/infrastructure"
	"fertpulse/pkg/contracts/domain"
)

// RecordSource provides the loaded dataset.
type RecordSource interface {
	Records() ([]domain.Record, error)
	State() domain.LoadState
}

// BoundarySource provides the loaded region boundaries.
type BoundarySource interface {
	Collection() (*geojson.FeatureCollection, error)
	State() domain.LoadState
}

// dimensions are the record columns a chart may group on.
var dimensions = map[aggregation.Field]bool{
	aggregation.FieldYear:    true,
	aggregation.FieldMonth:   true,
	aggregation.FieldState:   true,
	aggregation.FieldProduct: true,
}

// DashboardService computes every dashboard view from the dataset. Views
// are pure reads of the immutable record slice and are never cached.
type DashboardService struct {
	records    RecordSource
	boundaries BoundarySource
	joiner     *geo.Joiner
	cfg        config.DashboardConfig
	metrics    *infrastructure.BusinessMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewDashboardService creates a dashboard service. boundaries, joiner and metrics may be
// nil.
func NewDashboardService(records RecordSource, boundaries BoundarySource, joiner *geo.Joiner,
	cfg config.DashboardConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if joiner == nil {
		joiner = geo.NewJoiner()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = config.DefaultTopN
	}
	if cfg.DefaultState == "" {
		cfg.DefaultState = config.DefaultParentState
	}

	return &DashboardService{
		records:    records,
		boundaries: boundaries,
		joiner:     joiner,
		cfg:        cfg,
		metrics:    metrics,
		tracer:     otel.Tracer(infrastructure.ServiceName + "/services"),
		logger:     infrastructure.WithComponent(logger, "dashboard_service"),
	}
}

// view traces and measures one view computation. fn returns the number of
// rows it produced.
func (s *DashboardService) view(ctx context.Context, name string, fn func(ctx context.Context, records []domain.Record) (int, error)) error {
	ctx, span := s.tracer.Start(ctx, "dashboard."+name,
		trace.WithAttributes(attribute.String("view", name)))
	defer span.End()

	start := time.Now()
	records, err := s.records.Records()
	rows := 0
	if err == nil {
		rows, err = fn(ctx, records)
	}
	duration := time.Since(start)

	infrastructure.RecordViewMetrics(ctx, s.metrics, name, rows, duration, err)
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{"view.rows": rows})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).DebugContext(ctx, "view failed",
			slog.String("view", name))
		return err
	}
	infrastructure.AddSpanEvent(ctx, "view.computed", map[string]interface{}{
		"records":     len(records),
		"duration_ms": duration.Milliseconds(),
	})

	s.logger.DebugContext(ctx, "view computed",
		slog.String("view", name),
		slog.Int("rows", rows),
		slog.Duration("duration", duration))
	return nil
}

// KPIs totals the whole dataset.
func (s *DashboardService) KPIs(ctx context.Context) (domain.KPIs, error) {
	var kpis domain.KPIs
	err := s.view(ctx, "kpis", func(_ context.Context, records []domain.Record) (int, error) {
		kpis = aggregation.ComputeKPIs(records)
		return 1, nil
	})
	return kpis, err
}

// Options lists the values every selector offers.
func (s *DashboardService) Options(ctx context.Context) (*Options, error) {
	var opts *Options
	err := s.view(ctx, "options", func(_ context.Context, records []domain.Record) (int, error) {
		years := aggregation.DistinctYears(records)
		months := aggregation.PresentMonths(records)
		states := aggregation.Distinct(records, aggregation.FieldState)
		products := aggregation.Distinct(records, aggregation.FieldProduct)

		opts = &Options{
			Years:         years,
			Months:        months,
			States:        states,
			Products:      products,
			YearFilter:    aggregation.WithMatchAll(aggregation.MatchAll, years),
			MonthFilter:   aggregation.WithMatchAll(aggregation.MatchAll, months),
			StateFilter:   aggregation.WithMatchAll(aggregation.MatchAll, states),
			ChartProducts: aggregation.WithMatchAll(config.AllProductsOption, products),
			DefaultState:  s.defaultState(states),
			Theme:         s.cfg.Theme,
			Themes:        config.Themes,
		}
		if len(months) > 0 {
			opts.DefaultMonth = months[0]
		}
		return len(years) + len(months) + len(states) + len(products), nil
	})
	return opts, err
}

// defaultState prefers the configured state when the data has it.
func (s *DashboardService) defaultState(states []string) string {
	for _, st := range states {
		if st == s.cfg.DefaultState {
			return st
		}
	}
	if len(states) > 0 {
		return states[0]
	}
	return ""
}

// MonthlyChart returns per-product sums for one state and month, or, for a
// single product, one row per month in calendar order with empty months
// dropped.
func (s *DashboardService) MonthlyChart(ctx context.Context, q MonthlyQuery) (*MonthlyChart, error) {
	if q.Month != "" && !aggregation.IsMonth(q.Month) {
		return nil, queryError(ErrInvalidMonth, "unknown month %q", q.Month)
	}

	var chart *MonthlyChart
	err := s.view(ctx, "monthly", func(_ context.Context, records []domain.Record) (int, error) {
		state := q.State
		if state == "" {
			state = s.defaultState(aggregation.Distinct(records, aggregation.FieldState))
		}
		month := q.Month
		if month == "" {
			if months := aggregation.PresentMonths(records); len(months) > 0 {
				month = months[0]
			}
		}
		product := q.Product
		if product == "" {
			product = config.AllProductsOption
		}

		inState := aggregation.FilterRecords(records,
			aggregation.NewPredicate().Equal(aggregation.FieldState, state))

		chart = &MonthlyChart{State: state, Month: month, Product: product}
		if product == config.AllProductsOption {
			inMonth := aggregation.FilterRecords(inState,
				aggregation.NewPredicate().Equal(aggregation.FieldMonth, month))
			chart.Mode = MonthlyByProduct
			chart.Rows = dropEmptyKeys(
				aggregation.GroupAndSum(inMonth, aggregation.ByField(aggregation.FieldProduct)).Rows())
			return len(chart.Rows), nil
		}

		selected := aggregation.FilterRecords(inState,
			aggregation.NewPredicate().Equal(aggregation.FieldProduct, product))
		byMonth := aggregation.GroupAndSum(selected, aggregation.ByField(aggregation.FieldMonth))

		chart.Mode = MonthlyByMonth
		chart.Rows = make([]domain.AggregateRow, 0, byMonth.Len())
		for _, m := range aggregation.PresentMonths(selected) {
			row, _ := byMonth.Get(m)
			if row.Requirement > 0 || row.Availability > 0 {
				chart.Rows = append(chart.Rows, row)
			}
		}
		return len(chart.Rows), nil
	})
	return chart, err
}

// BreakdownChart groups by parent then child and returns the selected
// parent's children collated by name.
func (s *DashboardService) BreakdownChart(ctx context.Context, q BreakdownQuery) (*Breakdown, error) {
	parent, child, field, err := s.breakdownFields(q)
	if err != nil {
		return nil, err
	}

	var out *Breakdown
	err = s.view(ctx, "breakdown", func(_ context.Context, records []domain.Record) (int, error) {
		nested := aggregation.GroupNested(records, aggregation.ByField(parent), aggregation.ByField(child))

		out = &Breakdown{
			Parent: string(parent),
			Child:  string(child),
			Field:  field,
			Groups: make([]string, 0, len(nested)),
			Rows:   []domain.AggregateRow{},
			Series: []Point{},
		}
		byKey := make(map[string][]domain.AggregateRow, len(nested))
		first := ""
		for _, g := range nested {
			if g.Key == "" {
				continue
			}
			if first == "" {
				first = g.Key
			}
			out.Groups = append(out.Groups, g.Key)
			byKey[g.Key] = g.Rows
		}
		aggregation.CollateStrings(out.Groups)

		selected := q.Selected
		if selected == "" && parent == aggregation.FieldState {
			selected = s.cfg.DefaultState
		}
		if _, ok := byKey[selected]; !ok {
			selected = first
		}
		out.Selected = selected
		if selected == "" {
			return 0, nil
		}

		rows, err := aggregation.SortRows(dropEmptyKeys(byKey[selected]), aggregation.RowKey, aggregation.Ascending)
		if err != nil {
			return 0, err
		}
		out.Rows = rows
		out.Series = series(rows, field)
		return len(rows), nil
	})
	return out, err
}

func (s *DashboardService) breakdownFields(q BreakdownQuery) (parent, child aggregation.Field, field string, err error) {
	parent, child, field = aggregation.FieldState, aggregation.FieldProduct, aggregation.RowRequirement
	if q.Parent != "" {
		parent = aggregation.Field(q.Parent)
	}
	if q.Child != "" {
		child = aggregation.Field(q.Child)
	}
	if q.Field != "" {
		field = q.Field
	}

	switch {
	case !dimensions[parent]:
		return "", "", "", queryError(ErrInvalidDimension, "cannot group by %q", parent)
	case !dimensions[child]:
		return "", "", "", queryError(ErrInvalidDimension, "cannot group by %q", child)
	case parent == child:
		return "", "", "", queryError(ErrInvalidDimension, "parent and child are both %q", parent)
	}
	if err := checkValueField(field); err != nil {
		return "", "", "", err
	}
	return parent, child, field, nil
}

// TopProducts ranks products by one quantity for the pie charts.
func (s *DashboardService) TopProducts(ctx context.Context, q TopProductsQuery) (*TopProducts, error) {
	field := q.Field
	if field == "" {
		field = aggregation.RowRequirement
	}
	if err := checkValueField(field); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit < 0 {
		return nil, queryError(ErrInvalidLimit, "limit must not be negative")
	}
	if limit == 0 {
		limit = s.cfg.TopN
	}

	var out *TopProducts
	err := s.view(ctx, "top_products", func(_ context.Context, records []domain.Record) (int, error) {
		var err error
		out, err = topProducts(records, field, q.Ascending, limit)
		if err != nil {
			return 0, err
		}
		return len(out.Rows), nil
	})
	return out, err
}

func topProducts(records []domain.Record, field string, ascending bool, n int) (*TopProducts, error) {
	groups := aggregation.GroupAndSum(withProduct(records), aggregation.ByField(aggregation.FieldProduct))
	rows, err := aggregation.TopN(groups, field, n, ascending)
	if err != nil {
		return nil, err
	}
	return &TopProducts{
		Field:     field,
		Ascending: ascending,
		Rows:      rows,
		Slices:    series(rows, field),
	}, nil
}

// ProductTable filters records and sums them per product. Records without a
// product or without either quantity field are left out.
func (s *DashboardService) ProductTable(ctx context.Context, q TableQuery) (*ProductTable, error) {
	pred, err := tablePredicate(q)
	if err != nil {
		return nil, err
	}
	sortState, err := tableSort(q, string(aggregation.FieldProduct))
	if err != nil {
		return nil, err
	}

	var out *ProductTable
	err = s.view(ctx, "product_table", func(_ context.Context, records []domain.Record) (int, error) {
		rowKey, err := aggregation.GroupSortKey(aggregation.FieldProduct, sortState.Key)
		if err != nil {
			return 0, err
		}
		filtered := aggregation.FilterRecords(records, pred)
		complete := make([]domain.Record, 0, len(filtered))
		for _, r := range filtered {
			if r.Product == "" || !r.Requirement.Present || !r.Availability.Present {
				continue
			}
			complete = append(complete, r)
		}

		groups := aggregation.GroupAndSum(complete, aggregation.ByField(aggregation.FieldProduct))
		rows, err := aggregation.SortRows(groups.Rows(), rowKey, sortState.Direction)
		if err != nil {
			return 0, err
		}
		totals := aggregation.Totals(complete)
		totals.Key = "Total"

		out = &ProductTable{Rows: rows, Totals: totals, Sort: sortState}
		return len(rows), nil
	})
	return out, err
}

// RecordTable filters and sorts the raw records.
func (s *DashboardService) RecordTable(ctx context.Context, q TableQuery) (*RecordTable, error) {
	pred, err := tablePredicate(q)
	if err != nil {
		return nil, err
	}
	sortState, err := tableSort(q, string(aggregation.FieldID))
	if err != nil {
		return nil, err
	}
	sortField, err := aggregation.ParseField(sortState.Key)
	if err != nil {
		return nil, err
	}

	var out *RecordTable
	err = s.view(ctx, "record_table", func(_ context.Context, records []domain.Record) (int, error) {
		sorted, err := aggregation.SortRecords(aggregation.FilterRecords(records, pred), sortField, sortState.Direction)
		if err != nil {
			return 0, err
		}
		out = &RecordTable{Records: sorted, Sort: sortState}
		return len(sorted), nil
	})
	return out, err
}

func tablePredicate(q TableQuery) (aggregation.Predicate, error) {
	if q.Month != "" && q.Month != aggregation.MatchAll && !aggregation.IsMonth(q.Month) {
		return aggregation.Predicate{}, queryError(ErrInvalidMonth, "unknown month %q", q.Month)
	}

	p := aggregation.NewPredicate().
		Equal(aggregation.FieldYear, orMatchAll(q.Year)).
		Equal(aggregation.FieldMonth, orMatchAll(q.Month)).
		Equal(aggregation.FieldState, orMatchAll(q.State))
	for f, text := range q.Search {
		p = p.Contains(f, text)
	}
	if err := p.Validate(); err != nil {
		return aggregation.Predicate{}, err
	}
	return p, nil
}

func tableSort(q TableQuery, defaultKey string) (aggregation.SortState, error) {
	st := aggregation.SortState{Key: q.Sort, Direction: aggregation.Ascending}
	if st.Key == "" {
		st.Key = defaultKey
	}
	if q.Direction != "" {
		dir, err := aggregation.ParseDirection(q.Direction)
		if err != nil {
			return st, err
		}
		st.Direction = dir
	}
	return st, nil
}

// StateBalances sums the dataset per state, collated by name.
func (s *DashboardService) StateBalances(ctx context.Context) ([]domain.AggregateRow, error) {
	var rows []domain.AggregateRow
	err := s.view(ctx, "state_balances", func(_ context.Context, records []domain.Record) (int, error) {
		var err error
		rows, err = stateBalances(records)
		return len(rows), err
	})
	return rows, err
}

func stateBalances(records []domain.Record) ([]domain.AggregateRow, error) {
	groups := aggregation.GroupAndSum(records, aggregation.ByField(aggregation.FieldState))
	return aggregation.SortRows(dropEmptyKeys(groups.Rows()), aggregation.RowKey, aggregation.Ascending)
}

// StateMap joins state balances to the boundary features. It fails with
// files.ErrNotReady while either input is loading.
func (s *DashboardService) StateMap(ctx context.Context) (*StateMap, error) {
	var out *StateMap
	err := s.view(ctx, "state_map", func(ctx context.Context, records []domain.Record) (int, error) {
		if s.boundaries == nil {
			out = &StateMap{Message: geo.LoadErrorMessage}
			return 0, nil
		}
		out = &StateMap{Boundaries: s.boundaries.State()}

		fc, err := s.boundaries.Collection()
		if errors.Is(err, files.ErrLoadFailed) {
			out.Message = geo.LoadErrorMessage
			return 0, nil
		}
		if err != nil {
			return 0, err
		}

		balances, err := stateBalances(records)
		if err != nil {
			return 0, err
		}
		choropleth := s.joiner.Join(balances, fc)
		out.Map = &choropleth

		if len(choropleth.UnmatchedStates) > 0 {
			s.logger.DebugContext(ctx, "states without boundary",
				slog.Any("states", choropleth.UnmatchedStates))
		}
		if s.metrics != nil {
			s.metrics.UnmatchedStates.Record(ctx, int64(len(choropleth.UnmatchedStates)),
				metric.WithAttributes(attribute.String("property", s.joiner.NameProperty)))
		}
		return len(choropleth.Regions), nil
	})
	return out, err
}

// Summary computes the landing page views concurrently.
func (s *DashboardService) Summary(ctx context.Context) (*Summary, error) {
	out := &Summary{}
	err := s.view(ctx, "summary", func(ctx context.Context, records []domain.Record) (int, error) {
		var g errgroup.Group

		g.Go(func() error {
			out.KPIs = aggregation.ComputeKPIs(records)
			return nil
		})
		g.Go(func() error {
			top, err := topProducts(records, aggregation.RowRequirement, false, s.cfg.TopN)
			out.TopRequirement = top
			return err
		})
		g.Go(func() error {
			top, err := topProducts(records, aggregation.RowAvailability, false, s.cfg.TopN)
			out.TopAvailability = top
			return err
		})
		g.Go(func() error {
			rows, err := stateBalances(records)
			out.StateBalances = rows
			return err
		})

		if err := g.Wait(); err != nil {
			return 0, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return len(out.StateBalances), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func checkValueField(field string) error {
	if field != aggregation.RowRequirement && field != aggregation.RowAvailability {
		return queryError(ErrInvalidValueField, "field must be %s or %s, got %q",
			aggregation.RowRequirement, aggregation.RowAvailability, field)
	}
	return nil
}

func orMatchAll(v string) string {
	if v == "" {
		return aggregation.MatchAll
	}
	return v
}

func withProduct(records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.Product != "" {
			out = append(out, r)
		}
	}
	return out
}

func dropEmptyKeys(rows []domain.AggregateRow) []domain.AggregateRow {
	out := make([]domain.AggregateRow, 0, len(rows))
	for _, r := range rows {
		if r.Key != "" {
			out = append(out, r)
		}
	}
	return out
}

func series(rows []domain.AggregateRow, field string) []Point {
	points := make([]Point, len(rows))
	for i, r := range rows {
		v := r.Requirement
		if field == aggregation.RowAvailability {
			v = r.Availability
		}
		points[i] = Point{Name: r.Key, Value: v}
	}
	return points
}
