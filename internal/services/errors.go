package services

import (
	"errors"
	"fmt"

	apierrors "fertpulse/internal/errors"
)

// Query errors. They reach handlers wrapped in a validation AppError so
// they render as 400 problems.
var (
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidDimension  = errors.New("invalid grouping dimension")
	ErrInvalidValueField = errors.New("invalid value field")
	ErrInvalidLimit      = errors.New("invalid limit")
)

func queryError(cause error, format string, args ...interface{}) error {
	return apierrors.NewAppValidationError(fmt.Sprintf(format, args...), cause)
}
