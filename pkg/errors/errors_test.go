package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("doctor", nil), http.StatusNotFound},
		{"bad request", BadRequest("malformed body", nil), http.StatusBadRequest},
		{"unprocessable", Unprocessable("non_operating_day", "closed", nil), http.StatusUnprocessableEntity},
		{"validation", Validation(nil, nil), http.StatusUnprocessableEntity},
		{"conflict", Conflict("duplicate_email", "taken", nil), http.StatusConflict},
		{"rate limited", TooManyRequests(), http.StatusTooManyRequests},
		{"internal", Internal(sql.ErrConnDone), http.StatusInternalServerError},
		{"unknown code", &AppError{Code: 42}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("failed to create doctor: %w", NotFound("doctor", cause))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrNotFound, appErr.Code)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "doctor not found: boom", appErr.Error())

	_, ok = As(cause)
	assert.False(t, ok)
}
