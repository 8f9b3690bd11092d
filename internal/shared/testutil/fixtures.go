package testutil

import (
	"fertpulse/pkg/contracts/domain"
)

// BoundariesJSON is a small FeatureCollection with Bihar, Punjab and
// Kerala. Kerala has no records in Records.
const BoundariesJSON = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"name": "Bihar"},
		 "geometry": {"type": "Polygon", "coordinates": [[[84,25],[86,25],[86,27],[84,27],[84,25]]]}},
		{"type": "Feature", "properties": {"name": "Punjab"},
		 "geometry": {"type": "Polygon", "coordinates": [[[74,30],[76,30],[76,32],[74,32],[74,30]]]}},
		{"type": "Feature", "properties": {"name": "Kerala"},
		 "geometry": {"type": "Polygon", "coordinates": [[[75,8],[77,8],[77,12],[75,12],[75,8]]]}}
	]
}`

// Record builds a 2023 record
func Record(id, month, state, product, requirement, availability string) domain.Record {
	year := 2023
	return domain.Record{
		Year:         &year,
		Month:        month,
		State:        state,
		Product:      product,
		Requirement:  domain.NewQuantity(requirement),
		Availability: domain.NewQuantity(availability),
		ID:           domain.RecordID(id),
	}
}

// Records returns a dataset covering three states, three products and
// three months. Uttar Pradesh has no boundary in BoundariesJSON.
//
//	state          requirement  availability  balance
//	Uttar Pradesh  170          110           -60
//	Bihar           90           55           -35
//	Punjab          20           25             5
func Records() []domain.Record {
	return []domain.Record{
		Record("1", "April", "Uttar Pradesh", "Urea", "100", "80"),
		Record("2", "April", "Bihar", "DAP", "40", "55"),
		Record("3", "May", "Uttar Pradesh", "DAP", "60", "30"),
		Record("4", "May", "Bihar", "Urea", "50", ""),
		Record("5", "June", "Punjab", "MOP", "20", "25"),
		Record("6", "June", "Uttar Pradesh", "Urea", "10", "n/a"),
	}
}
