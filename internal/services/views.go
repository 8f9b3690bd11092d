package services

import (
	"fertpulse/internal/aggregation"
	"fertpulse/internal/geo"
	"fertpulse/pkg/contracts/domain"
)

// Point is one labelled value of a chart series.
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Options feeds the dashboard selectors.
type Options struct {
	Years    []string `json:"years"`
	Months   []string `json:"months"`
	States   []string `json:"states"`
	Products []string `json:"products"`

	// Filter lists lead with the match-all sentinel.
	YearFilter  []string `json:"year_filter"`
	MonthFilter []string `json:"month_filter"`
	StateFilter []string `json:"state_filter"`
	// ChartProducts leads with "All Products".
	ChartProducts []string `json:"chart_products"`

	DefaultState string   `json:"default_state"`
	DefaultMonth string   `json:"default_month"`
	Theme        string   `json:"theme"`
	Themes       []string `json:"themes"`
}

// MonthlyQuery selects the bar chart data.
type MonthlyQuery struct {
	State   string `query:"state"`
	Month   string `query:"month" validate:"omitempty,month"`
	Product string `query:"product"`
}

// Monthly chart modes.
const (
	MonthlyByProduct = "products"
	MonthlyByMonth   = "months"
)

// MonthlyChart is the requirement/availability bar chart.
type MonthlyChart struct {
	State   string                `json:"state"`
	Month   string                `json:"month"`
	Product string                `json:"product"`
	Mode    string                `json:"mode"`
	Rows    []domain.AggregateRow `json:"rows"`
}

// BreakdownQuery selects a two-level breakdown.
type BreakdownQuery struct {
	Parent   string `query:"parent" validate:"omitempty,field"`
	Child    string `query:"child" validate:"omitempty,field"`
	Field    string `query:"field" validate:"omitempty,oneof=requirement availability"`
	Selected string `query:"selected"`
}

// Breakdown is one parent group split by child.
type Breakdown struct {
	Parent   string                `json:"parent"`
	Child    string                `json:"child"`
	Field    string                `json:"field"`
	Groups   []string              `json:"groups"`
	Selected string                `json:"selected"`
	Rows     []domain.AggregateRow `json:"rows"`
	Series   []Point               `json:"series"`
}

// TopProductsQuery selects a pie chart.
type TopProductsQuery struct {
	Field     string `query:"field" validate:"omitempty,oneof=requirement availability"`
	Ascending bool   `query:"-"`
	Limit     int    `query:"limit" validate:"gte=0,lte=50"`
}

// TopProducts is a pie chart of the largest (or smallest) products.
type TopProducts struct {
	Field     string                `json:"field"`
	Ascending bool                  `json:"ascending"`
	Rows      []domain.AggregateRow `json:"rows"`
	Slices    []Point               `json:"slices"`
}

// TableQuery filters and sorts the product and record tables.
type TableQuery struct {
	Year      string `query:"year"`
	Month     string `query:"month" validate:"omitempty,month"`
	State     string `query:"state"`
	Sort      string `query:"sort"`
	Direction string `query:"direction" validate:"omitempty,direction"`
	// Search maps a record column to the text it must contain.
	Search map[aggregation.Field]string `query:"-"`
}

// ProductTable is the per-product aggregate table.
type ProductTable struct {
	Rows   []domain.AggregateRow  `json:"rows"`
	Totals domain.AggregateRow    `json:"totals"`
	Sort   aggregation.SortState  `json:"sort"`
}

// RecordTable is the filtered raw record table.
type RecordTable struct {
	Records []domain.Record       `json:"records"`
	Sort    aggregation.SortState `json:"sort"`
}

// StateMap is the choropleth view. While boundaries are loading the view
// fails; once they failed the view carries the load error instead of a map.
type StateMap struct {
	Boundaries domain.LoadState `json:"boundaries"`
	Message    string           `json:"message,omitempty"`
	Map        *geo.Choropleth  `json:"map,omitempty"`
}

// Summary is the landing page: KPIs, both pie charts and the state balances.
type Summary struct {
	KPIs            domain.KPIs           `json:"kpis"`
	TopRequirement  *TopProducts          `json:"top_requirement"`
	TopAvailability *TopProducts          `json:"top_availability"`
	StateBalances   []domain.AggregateRow `json:"state_balances"`
}
