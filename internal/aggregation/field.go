package aggregation

import (
	"fmt"

	"fertpulse/pkg/contracts/domain"
)

// Field names a record column.
type Field string

const (
	FieldYear         Field = "year"
	FieldMonth        Field = "month"
	FieldState        Field = "state"
	FieldProduct      Field = "product"
	FieldRequirement  Field = "requirement"
	FieldAvailability Field = "availability"
	FieldID           Field = "id"
)

// Fields lists every record column in display order.
var Fields = []Field{
	FieldYear, FieldMonth, FieldState, FieldProduct,
	FieldRequirement, FieldAvailability, FieldID,
}

// ParseField maps a column name to a Field.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// Valid reports whether f is a known column.
func (f Field) Valid() bool {
	switch f {
	case FieldYear, FieldMonth, FieldState, FieldProduct,
		FieldRequirement, FieldAvailability, FieldID:
		return true
	}
	return false
}

// numeric reports whether f sorts by number.
func (f Field) numeric() bool {
	return f == FieldYear || f == FieldRequirement || f == FieldAvailability
}

// lookup returns the text form of f and whether the record carries it.
func lookup(r domain.Record, f Field) (string, bool) {
	switch f {
	case FieldYear:
		return r.YearString(), r.Year != nil
	case FieldMonth:
		return r.Month, r.Month != ""
	case FieldState:
		return r.State, r.State != ""
	case FieldProduct:
		return r.Product, r.Product != ""
	case FieldRequirement:
		return r.Requirement.Raw, r.Requirement.Present
	case FieldAvailability:
		return r.Availability.Raw, r.Availability.Present
	case FieldID:
		return string(r.ID), r.ID != ""
	}
	panic(fmt.Sprintf("aggregation: %v: %q", ErrUnknownField, string(f)))
}

// FieldValue returns the text form of f, "" when the record lacks it.
func FieldValue(r domain.Record, f Field) string {
	v, _ := lookup(r, f)
	return v
}
