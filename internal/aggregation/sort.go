package aggregation

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"fertpulse/pkg/contracts/domain"
)

// Direction orders a sort.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// ParseDirection rejects anything but ascending or descending.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// Valid reports whether d is ascending or descending.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

// Opposite flips d.
func (d Direction) Opposite() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// Aggregate row sort keys. The group key sorts as text; the rest by number.
const (
	RowKey          = "key"
	RowRequirement  = "requirement"
	RowAvailability = "availability"
	RowNetBalance   = "net_balance"
)

// SortState is a table's current sort column and direction.
type SortState struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle selects key: the same key flips direction, a new key starts ascending.
func (s SortState) Toggle(key string) SortState {
	if s.Key == key && s.Direction == Ascending {
		return SortState{Key: key, Direction: Descending}
	}
	return SortState{Key: key, Direction: Ascending}
}

// newCollator returns an English collator. Collators are not safe for
// concurrent use, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English)
}

// GroupSortKey resolves a sort key for rows grouped by dimension. The
// dimension's own name sorts by the group key; any other record field is
// unknown.
func GroupSortKey(dimension Field, key string) (string, error) {
	if key == RowKey || key == string(dimension) {
		return RowKey, nil
	}
	if _, ok := rowValue(key); ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: %q for rows grouped by %s", ErrUnknownSortKey, key, dimension)
}

// rowValue extracts a numeric row key.
func rowValue(key string) (func(domain.AggregateRow) float64, bool) {
	switch key {
	case RowRequirement:
		return func(r domain.AggregateRow) float64 { return r.Requirement }, true
	case RowAvailability:
		return func(r domain.AggregateRow) float64 { return r.Availability }, true
	case RowNetBalance:
		return domain.AggregateRow.NetBalance, true
	}
	return nil, false
}

// SortRows returns a copy of rows ordered by key. Text keys use
// locale-aware collation; ties keep their relative order.
func SortRows(rows []domain.AggregateRow, key string, dir Direction) ([]domain.AggregateRow, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, string(dir))
	}
	var cmp func(a, b domain.AggregateRow) int
	if key == RowKey {
		c := newCollator()
		cmp = func(a, b domain.AggregateRow) int { return c.CompareString(a.Key, b.Key) }
	} else if value, ok := rowValue(key); ok {
		cmp = func(a, b domain.AggregateRow) int { return compareFloat(value(a), value(b)) }
	} else {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
	}

	out := make([]domain.AggregateRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if dir == Descending {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out, nil
}

// SortRecords returns a copy of records ordered by field. Quantities and
// years sort by number with unparseable values as 0; ids sort by number
// when both are numeric.
func SortRecords(records []domain.Record, f Field, dir Direction) ([]domain.Record, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, string(dir))
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, string(f))
	}

	c := newCollator()
	var cmp func(a, b domain.Record) int
	switch {
	case f == FieldYear:
		cmp = func(a, b domain.Record) int { return compareFloat(yearValue(a), yearValue(b)) }
	case f.numeric():
		cmp = func(a, b domain.Record) int {
			return compareFloat(quantityOf(a, f).Value(), quantityOf(b, f).Value())
		}
	case f == FieldID:
		cmp = func(a, b domain.Record) int {
			x, xok := a.ID.Numeric()
			y, yok := b.ID.Numeric()
			if xok && yok {
				return compareFloat(x, y)
			}
			return c.CompareString(string(a.ID), string(b.ID))
		}
	default:
		cmp = func(a, b domain.Record) int {
			return c.CompareString(FieldValue(a, f), FieldValue(b, f))
		}
	}

	out := make([]domain.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if dir == Descending {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out, nil
}

func yearValue(r domain.Record) float64 {
	if r.Year == nil {
		return 0
	}
	return float64(*r.Year)
}

func quantityOf(r domain.Record, f Field) domain.Quantity {
	if f == FieldAvailability {
		return r.Availability
	}
	return r.Requirement
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CollateStrings sorts values in place by locale-aware collation.
func CollateStrings(values []string) {
	c := newCollator()
	sort.SliceStable(values, func(i, j int) bool {
		return c.CompareString(values[i], values[j]) < 0
	})
}
