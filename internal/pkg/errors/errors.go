// Package errors provides custom error types and error handling utilities.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	// Client errors (4xx).
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"

	// Server errors (5xx).
	CodeInternal              = "INTERNAL_ERROR"
	CodeUnavailable           = "SERVICE_UNAVAILABLE"
	CodeTimeout               = "TIMEOUT"
	CodeRetrievalUnavailable  = "RETRIEVAL_UNAVAILABLE"
	CodeEmbeddingUnavailable  = "EMBEDDING_UNAVAILABLE"
	CodeIndexUnavailable      = "INDEX_UNAVAILABLE"
	CodeGenerationUnavailable = "GENERATION_UNAVAILABLE"
	CodeGenerationTimeout     = "GENERATION_TIMEOUT"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable, CodeRetrievalUnavailable, CodeEmbeddingUnavailable,
		CodeIndexUnavailable, CodeGenerationUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout, CodeGenerationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Convenience constructors.

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// NotFoundError creates a not found error.
func NotFoundError(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// InternalError creates an internal error.
func InternalError(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}

// InvalidRequestError creates an invalid request error.
func InvalidRequestError(message string) *AppError {
	return New(CodeInvalidRequest, message)
}

// RetrievalUnavailableError wraps a collaborator failure that is fatal to the query.
func RetrievalUnavailableError(message string, err error) *AppError {
	return Wrap(CodeRetrievalUnavailable, message, err)
}

// EmbeddingUnavailableError creates an embedding service error.
func EmbeddingUnavailableError(message string, err error) *AppError {
	return Wrap(CodeEmbeddingUnavailable, message, err)
}

// IndexUnavailableError creates a vector index error.
func IndexUnavailableError(message string, err error) *AppError {
	return Wrap(CodeIndexUnavailable, message, err)
}

// GenerationUnavailableError creates a generative collaborator error.
func GenerationUnavailableError(message string, err error) *AppError {
	return Wrap(CodeGenerationUnavailable, message, err)
}

// GenerationTimeoutError creates a generation timeout error.
func GenerationTimeoutError(message string) *AppError {
	return New(CodeGenerationTimeout, message)
}

// TimeoutError creates a timeout error for a specific operation.
func TimeoutError(operation string) *AppError {
	message := "operation timed out"
	if operation != "" {
		message = fmt.Sprintf("%s timed out", operation)
	}
	return New(CodeTimeout, message)
}

// ServiceUnavailableError creates a service unavailable error.
func ServiceUnavailableError(service string) *AppError {
	message := "service unavailable"
	if service != "" {
		message = fmt.Sprintf("%s is unavailable", service)
	}
	return New(CodeUnavailable, message)
}

// GetCode returns the code of the outermost AppError in err's chain, or
// CodeInternal for any other error.
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HasCode checks whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
		appErr = nil
	}
	return false
}

// IsNotFound checks if error is a not found error.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsValidation checks if error is a validation error.
func IsValidation(err error) bool {
	return HasCode(err, CodeValidation)
}

// IsRetrievalUnavailable checks if error marks a retrieval collaborator outage.
func IsRetrievalUnavailable(err error) bool {
	return HasCode(err, CodeRetrievalUnavailable)
}

// IsGenerationFailure checks if error is a recoverable generation failure.
func IsGenerationFailure(err error) bool {
	return HasCode(err, CodeGenerationUnavailable) || HasCode(err, CodeGenerationTimeout)
}

// ErrorResponse is the standard JSON error response structure.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON error response to the ResponseWriter.
// This is the low-level function used by WriteError.
func WriteJSON(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignore encoding errors - headers already sent
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError writes an error response with proper sanitization.
// If err is an *AppError, it uses the code and status from the error.
// For other errors, it sanitizes the message to prevent leaking internal details.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.HTTPStatus(), ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	// For non-AppError errors, sanitize the message
	// Don't leak internal error details to clients
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal server error",
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
	})
}
