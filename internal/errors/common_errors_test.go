package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := errors.New("connection refused")

	err := NewNetworkError("fetch india.json", cause)
	assert.Equal(t, "[NETWORK] fetch india.json: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	plain := NewParsingError("CSV dataset has no \"id\" column", nil)
	assert.Equal(t, "[PARSING] CSV dataset has no \"id\" column", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewAppValidationError("unknown month", nil).
		WithContext("month", "Smarch").
		WithContext("field", "month")
	assert.Equal(t, "Smarch", err.Context["month"])
	assert.Len(t, err.Context, 2)

	bare := &AppError{Type: ErrTypeParsing, Message: "bad"}
	bare.WithContext("line", 3)
	assert.Equal(t, 3, bare.Context["line"])
}

func TestAppErrorConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name   string
		err    *AppError
		typ    ErrorType
		status int
	}{
		{"network", NewNetworkError("m", cause), ErrTypeNetwork, http.StatusBadGateway},
		{"parsing", NewParsingError("m", cause), ErrTypeParsing, http.StatusInternalServerError},
		{"validation", NewAppValidationError("m", nil), ErrTypeValidation, http.StatusBadRequest},
		{"config", NewConfigError("m", cause), ErrTypeConfig, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestAppErrorAs(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), NewNetworkError("failed to fetch boundaries", nil))

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeNetwork, appErr.Type)
}
