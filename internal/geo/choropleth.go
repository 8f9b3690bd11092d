package geo

import (
	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fertpulse/pkg/contracts/domain"
)

// Region is one boundary feature with its joined balance.
type Region struct {
	Name         string  `json:"name"`
	HasData      bool    `json:"has_data"`
	Requirement  float64 `json:"requirement"`
	Availability float64 `json:"availability"`
	NetBalance   float64 `json:"net_balance"`
	Fill         string  `json:"fill"`
	Label        string  `json:"label"`
}

// Choropleth is the map view: styled features plus a flat region list.
type Choropleth struct {
	Regions []Region `json:"regions"`
	// UnmatchedStates have data but no feature with the same name.
	UnmatchedStates []string                   `json:"unmatched_states"`
	Legend          []LegendEntry              `json:"legend"`
	Features        *geojson.FeatureCollection `json:"features"`
}

// Joiner matches state balances to boundary features.
type Joiner struct {
	NameProperty string
	Scale        ColorScale
	printer      *message.Printer
}

// NewJoiner uses the feature "name" property and the default scale.
func NewJoiner() *Joiner {
	return &Joiner{
		NameProperty: DefaultNameProperty,
		Scale:        DefaultColorScale(),
		printer:      message.NewPrinter(language.English),
	}
}

// Join styles every feature in fc. Balances are keyed by state; a feature
// whose name has no exact match is drawn as no data. fc is not modified.
func (j *Joiner) Join(balances []domain.AggregateRow, fc *geojson.FeatureCollection) Choropleth {
	byState := make(map[string]domain.AggregateRow, len(balances))
	for _, row := range balances {
		byState[row.Key] = row
	}

	out := Choropleth{
		Regions:         make([]Region, 0, len(fc.Features)),
		UnmatchedStates: []string{},
		Legend:          Legend(),
		Features:        geojson.NewFeatureCollection(),
	}
	matched := make(map[string]bool, len(fc.Features))

	for _, f := range fc.Features {
		name := featureName(f, j.NameProperty)
		region := Region{Name: name, Fill: ColorNoData}
		if row, ok := byState[name]; ok {
			matched[name] = true
			region.HasData = true
			region.Requirement = row.Requirement
			region.Availability = row.Availability
			region.NetBalance = row.NetBalance()
			region.Fill = j.Scale.Color(region.NetBalance)
		}
		region.Label = j.Label(region)
		out.Regions = append(out.Regions, region)

		styled := geojson.NewFeature(f.Geometry)
		styled.ID = f.ID
		for k, v := range f.Properties {
			styled.Properties[k] = v
		}
		styled.Properties["fill"] = region.Fill
		styled.Properties["label"] = region.Label
		styled.Properties["has_data"] = region.HasData
		styled.Properties["net_balance"] = region.NetBalance
		out.Features.Append(styled)
	}

	for _, row := range balances {
		if !matched[row.Key] {
			out.UnmatchedStates = append(out.UnmatchedStates, row.Key)
		}
	}
	return out
}

// Label is the hover text of a region.
func (j *Joiner) Label(r Region) string {
	if !r.HasData {
		return r.Name + " - Net Balance: N/A MT"
	}
	return j.printer.Sprintf("%s - Net Balance: %v MT", r.Name,
		number.Decimal(r.NetBalance, number.MaxFractionDigits(3)))
}
