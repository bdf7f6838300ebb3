package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotFound_RecordsResource(t *testing.T) {
	err := NewNotFound("technician", map[string]any{"technician_id": int64(7)})

	assert.True(t, IsCode(err, CodeNotFound))
	assert.Equal(t, "technician", ResourceOf(err))
	assert.Equal(t, "technician not found", err.Error())
}

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{name: "domain error passes through", err: NewForbidden("nope"), code: CodeForbidden, status: http.StatusForbidden},
		{name: "wrapped domain error", err: fmt.Errorf("ctx: %w", NewValidationError("bad", nil)), code: CodeValidation, status: http.StatusBadRequest},
		{name: "no rows", err: pgx.ErrNoRows, code: CodeNotFound, status: http.StatusNotFound},
		{name: "anything else", err: errors.New("boom"), code: CodeInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.status, de.HTTPStatus)
		})
	}
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}
