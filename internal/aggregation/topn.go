package aggregation

import (
	"fmt"

	"fertpulse/pkg/contracts/domain"
)

// DefaultTopN is the slice count of the dashboard pie charts.
const DefaultTopN = 5

// TopN returns at most n groups ranked by a numeric row key, largest first
// unless ascending. Ties keep first-seen order.
func TopN(groups *Groups, key string, n int, ascending bool) ([]domain.AggregateRow, error) {
	if _, ok := rowValue(key); !ok {
		return nil, fmt.Errorf("%w: %q is not numeric", ErrUnknownSortKey, key)
	}
	if groups == nil || n <= 0 {
		return []domain.AggregateRow{}, nil
	}

	dir := Descending
	if ascending {
		dir = Ascending
	}
	ranked, err := SortRows(groups.Rows(), key, dir)
	if err != nil {
		return nil, err
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
