package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConfig   ErrorType = "CONFIG"
	ErrTypeRegistry ErrorType = "REGISTRY"
	ErrTypePortal   ErrorType = "PORTAL"
	ErrTypeExport   ErrorType = "EXPORT"
	ErrTypeParsing  ErrorType = "PARSING"
	ErrTypeSheets   ErrorType = "SHEETS"
	ErrTypeStorage  ErrorType = "STORAGE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether any AppError in err's chain has the given type
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewRegistryError creates a registry lookup error
func NewRegistryError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRegistry, message, cause)
}

// NewPortalError creates an error for a failed interaction with the portal UI
func NewPortalError(message string, cause error) *AppError {
	return NewAppError(ErrTypePortal, message, cause)
}

// NewExportError creates an export/download error
func NewExportError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExport, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewSheetsError creates a spreadsheet API error
func NewSheetsError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSheets, message, cause)
}

// NewStorageError creates a local file system error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}
