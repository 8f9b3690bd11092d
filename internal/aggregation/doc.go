// Package aggregation turns the flat fertilizer record set into the derived
// views every dashboard surface consumes.
//
// # Operations
//
// All functions are pure: they never mutate their input and keep no state
// between calls, so any number of them can run concurrently over the same
// dataset.
//
//	FilterRecords  exact-match and substring constraints, combined with AND
//	GroupAndSum    per-key sums of requirement and availability
//	GroupNested    outer key -> ordered inner sums
//	SortRows       sorted copy of aggregate rows
//	SortRecords    sorted copy of raw records
//	TopN           largest or smallest groups by one value field
//	ComputeBalance net balance and fulfillment rate
//
// # Malformed numbers
//
// Quantities arrive as text. A value without a leading number contributes 0
// to every sum and compares as 0 when sorting. Groups.Invalid counts such
// values so callers can report data quality without changing totals.
//
// # Contract violations
//
// Invalid sort directions and unknown sort keys are returned as errors
// (ErrInvalidDirection, ErrUnknownSortKey). Predicates built from untrusted
// input should be checked with Predicate.Validate before filtering.
package aggregation
