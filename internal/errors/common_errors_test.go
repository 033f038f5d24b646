package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewRegistryError("column not found", nil),
			expected: "[REGISTRY] column not found",
		},
		{
			name:     "with cause",
			err:      NewSheetsError("update failed", fmt.Errorf("quota exceeded")),
			expected: "[SHEETS] update failed: quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	sentinel := errors.New("element not clickable")
	err := NewPortalError("login failed", sentinel)

	assert.True(t, errors.Is(err, sentinel))

	wrapped := fmt.Errorf("attempt 2: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypePortal, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeExport, Message: "no file"}
	err.WithContext("site", "HQ").WithContext("attempt", 3)

	assert.Equal(t, "HQ", err.Context["site"])
	assert.Equal(t, 3, err.Context["attempt"])
}

func TestIsType(t *testing.T) {
	inner := NewParsingError("bad workbook", nil)
	outer := NewExportError("site failed", inner)

	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{name: "direct match", err: inner, errType: ErrTypeParsing, want: true},
		{name: "nested match", err: outer, errType: ErrTypeParsing, want: true},
		{name: "outer match", err: fmt.Errorf("wrap: %w", outer), errType: ErrTypeExport, want: true},
		{name: "no match", err: outer, errType: ErrTypeSheets, want: false},
		{name: "plain error", err: errors.New("boom"), errType: ErrTypeConfig, want: false},
		{name: "nil", err: nil, errType: ErrTypeConfig, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.errType))
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		err  *AppError
		want ErrorType
	}{
		{NewConfigError("c", cause), ErrTypeConfig},
		{NewRegistryError("r", cause), ErrTypeRegistry},
		{NewPortalError("p", cause), ErrTypePortal},
		{NewExportError("e", cause), ErrTypeExport},
		{NewParsingError("x", cause), ErrTypeParsing},
		{NewSheetsError("s", cause), ErrTypeSheets},
		{NewStorageError("f", cause), ErrTypeStorage},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.Same(t, cause, tt.err.Cause)
			assert.NotNil(t, tt.err.Context)
		})
	}
}
