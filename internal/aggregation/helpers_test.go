package aggregation

import (
	"fertpulse/pkg/contracts/domain"
)

func year(y int) *int { return &y }

func record(id, month, state, product, req, avail string) domain.Record {
	return domain.Record{
		Year:         year(2023),
		Month:        month,
		State:        state,
		Product:      product,
		Requirement:  domain.NewQuantity(req),
		Availability: domain.NewQuantity(avail),
		ID:           domain.RecordID(id),
	}
}

func sampleRecords() []domain.Record {
	return []domain.Record{
		record("1", "April", "Uttar Pradesh", "Urea", "100", "80"),
		record("2", "April", "Bihar", "DAP", "40", "55"),
		record("3", "May", "Uttar Pradesh", "DAP", "60", "30"),
		record("4", "May", "Bihar", "Urea", "50", ""),
		record("5", "June", "Punjab", "MOP", "20", "25"),
		record("6", "June", "Uttar Pradesh", "Urea", "10", "n/a"),
	}
}

func keys(rows []domain.AggregateRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}

func ids(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r.ID)
	}
	return out
}
