package aggregation

import "errors"

var (
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrUnknownSortKey   = errors.New("unknown sort key")
	ErrUnknownField     = errors.New("unknown record field")
)
