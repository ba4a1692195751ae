package domain

import (
	"errors"
	"fmt"
)

// Field and session validation errors.
var (
	ErrFieldEmpty   = errors.New("field name cannot be empty")
	ErrFieldExists  = errors.New("field already exists")
	ErrFieldLimit   = errors.New("maximum number of fields reached")
	ErrFieldIndex   = errors.New("field index out of range")
	ErrNoFields     = errors.New("no fields added yet")
	ErrNoDocument   = errors.New("no document uploaded")
	ErrNotRequested = errors.New("extraction not requested")
	ErrInvalidStyle = errors.New("invalid output style")
	ErrWordLimit    = errors.New("word limit must be >= 0")

	ErrSessionNotFound = errors.New("session not found or expired")
)

// Document and provider errors.
var (
	ErrUnsupportedDocument = errors.New("only PDF or DOCX formats are supported")
	ErrDocumentTooLarge    = errors.New("document exceeds size limit")
	ErrPageLimit           = errors.New("document exceeds the page limit of the selected model")
	ErrUnknownModel        = errors.New("model not configured")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrProviderResponse    = errors.New("provider returned an error")
	ErrMissingAPIKey       = errors.New("missing API key")
)

// Error codes carried by AppError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeDocument   = "DOCUMENT_ERROR"
	CodeNetwork    = "NETWORK_ERROR"
	CodeAI         = "AI_ERROR"
	CodeConfig     = "CONFIG_ERROR"
)

// AppError represents application-specific errors.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the AppError code carried by err, or "" when there is none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
