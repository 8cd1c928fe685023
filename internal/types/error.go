package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types reported in the "type" field of error responses
const (
	ErrorTypeValidation  = "validation"
	ErrorTypeNotFound    = "notFound"
	ErrorTypeAuth        = "auth"
	ErrorTypePersistence = "persistence"
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s [type: %s]: %v", e.Code, e.Message, e.Type, e.Err)
	}
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewValidationError reports missing or invalid input (400)
func NewValidationError(format string, args ...interface{}) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...), Type: ErrorTypeValidation}
}

// NewNotFoundError reports an id that resolves to nothing or to a soft-deleted row (404)
func NewNotFoundError(format string, args ...interface{}) *CustomError {
	return &CustomError{Code: http.StatusNotFound, Message: fmt.Sprintf(format, args...), Type: ErrorTypeNotFound}
}

// NewAuthError reports a credential mismatch (401)
func NewAuthError(message string) *CustomError {
	return &CustomError{Code: http.StatusUnauthorized, Message: message, Type: ErrorTypeAuth}
}

// NewPersistenceError reports a database or file system failure (500)
func NewPersistenceError(message string, err error) *CustomError {
	return &CustomError{Code: http.StatusInternalServerError, Message: message, Type: ErrorTypePersistence, Err: err}
}

// IsType reports whether err carries a CustomError of the given type
func IsType(err error, errorType string) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Type == errorType
}
