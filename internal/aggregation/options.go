package aggregation

import (
	"sort"
	"strconv"

	"fertpulse/pkg/contracts/domain"
)

// CanonicalMonths is calendar order.
var CanonicalMonths = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var monthIndex = func() map[string]int {
	m := make(map[string]int, len(CanonicalMonths))
	for i, name := range CanonicalMonths {
		m[name] = i
	}
	return m
}()

// IsMonth reports whether name is a canonical month.
func IsMonth(name string) bool {
	_, ok := monthIndex[name]
	return ok
}

// PresentMonths returns the canonical months that occur in records, in
// calendar order.
func PresentMonths(records []domain.Record) []string {
	seen := make([]bool, len(CanonicalMonths))
	for _, r := range records {
		if i, ok := monthIndex[r.Month]; ok {
			seen[i] = true
		}
	}
	months := make([]string, 0, len(CanonicalMonths))
	for i, ok := range seen {
		if ok {
			months = append(months, CanonicalMonths[i])
		}
	}
	return months
}

// Distinct returns the non-empty values of f, collated ascending.
func Distinct(records []domain.Record, f Field) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range records {
		v := FieldValue(r, f)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	CollateStrings(values)
	return values
}

// DistinctYears returns the years present, ascending.
func DistinctYears(records []domain.Record) []string {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, r := range records {
		if r.Year == nil {
			continue
		}
		if _, ok := seen[*r.Year]; ok {
			continue
		}
		seen[*r.Year] = struct{}{}
		years = append(years, *r.Year)
	}
	sort.Ints(years)

	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

// WithMatchAll prepends the MatchAll sentinel to values.
func WithMatchAll(sentinel string, values []string) []string {
	return append([]string{sentinel}, values...)
}
