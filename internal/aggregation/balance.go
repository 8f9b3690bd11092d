package aggregation

import (
	"github.com/shopspring/decimal"

	"fertpulse/pkg/contracts/domain"
)

// ComputeBalance derives the net balance and the fulfillment rate, the
// latter as a percentage rounded to two places and 0 when nothing is required.
// The percentage is computed in float64 and only the result is rounded.
func ComputeBalance(totalRequirement, totalAvailability float64) domain.Balance {
	b := domain.Balance{NetBalance: totalAvailability - totalRequirement}
	if totalRequirement > 0 {
		b.FulfillmentRate = Round2(totalAvailability / totalRequirement * 100)
	}
	return b
}

// Round2 rounds v half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ComputeKPIs totals records and derives their balance.
func ComputeKPIs(records []domain.Record) domain.KPIs {
	t := Totals(records)
	b := ComputeBalance(t.Requirement, t.Availability)
	return domain.KPIs{
		TotalRequirement:  t.Requirement,
		TotalAvailability: t.Availability,
		NetBalance:        b.NetBalance,
		FulfillmentRate:   b.FulfillmentRate,
		Status:            b.Status(),
		RecordCount:       len(records),
	}
}
