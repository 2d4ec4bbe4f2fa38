package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Quiz specific errors
	CodeInvalidLevel      ErrorCode = "INVALID_LEVEL"
	CodeInvalidImage      ErrorCode = "INVALID_IMAGE"
	CodeOCRFailed         ErrorCode = "OCR_FAILED"
	CodeLLMServiceError   ErrorCode = "LLM_SERVICE_ERROR"
	CodeLLMNotConfigured  ErrorCode = "LLM_NOT_CONFIGURED"
	CodeParseError        ErrorCode = "PARSE_ERROR"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeNotFound          ErrorCode = "NOT_FOUND"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// WithContext attaches a detail that is echoed back to API clients.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Helper functions for common errors
func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewInvalidLevelError(level string) *DomainError {
	return NewError(CodeInvalidLevel, fmt.Sprintf("Invalid quiz level: %q (expected easy, medium or hard)", level), nil)
}

func NewInvalidImageError(message string, err error) *DomainError {
	return NewError(CodeInvalidImage, message, err)
}

func NewOCRFailedError(err error) *DomainError {
	return NewError(CodeOCRFailed, "Could not read text from the uploaded image", err)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(CodeLLMServiceError, "Failed to process with LLM service", err)
}

func NewLLMNotConfiguredError() *DomainError {
	return NewError(CodeLLMNotConfigured, "No API key configured for the quiz model", nil)
}

func NewParseError(err error) *DomainError {
	return NewError(CodeParseError, "The quiz model returned a response that could not be read", err)
}

func NewNotFoundError(message string, err error) *DomainError {
	return NewError(CodeNotFound, message, err)
}

func NewInvalidTransitionError(phase, event string) *DomainError {
	return NewError(CodeInvalidTransition, fmt.Sprintf("%s is not allowed while the session is in %s", event, phase), nil).
		WithContext("phase", phase).
		WithContext("event", event)
}

// ErrorCodeOf returns the code of a DomainError anywhere in err's chain.
func ErrorCodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned by request validators and rendered as a 400.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Code: CodeMissingField, Message: "field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Code: CodeInvalidFormat, Message: "field has an invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("value must be between %d and %d", min, max),
		Value:   value,
	}
}
