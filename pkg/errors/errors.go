package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an AppError
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeDuplicatePost ErrorType = "DUPLICATE_POST"
	ErrorTypeUnauthorized  ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden     ErrorType = "FORBIDDEN"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeRateLimit   ErrorType = "RATE_LIMIT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Infrastructure errors
	ErrorTypeDatabase ErrorType = "DATABASE"
	ErrorTypeDelivery ErrorType = "DELIVERY"
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError is the error value returned across package boundaries
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode sets a machine readable code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails attaches structured details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

func newError(t ErrorType, message string, status int) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

// NewValidationError reports bad caller input
func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewNotFoundError reports a missing resource, e.g. NewNotFoundError("comment")
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewNotFoundMessage reports a missing resource with a caller supplied message
func NewNotFoundMessage(message string) *AppError {
	return newError(ErrorTypeNotFound, message, http.StatusNotFound)
}

// NewConflictError reports a failed conditional write
func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, message, http.StatusConflict)
}

// NewDuplicatePostError reports a second top-level comment by the same user
func NewDuplicatePostError(message string) *AppError {
	return newError(ErrorTypeDuplicatePost, message, http.StatusConflict)
}

// NewUnauthorizedError reports a missing or invalid identity
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(ErrorTypeUnauthorized, message, http.StatusUnauthorized)
}

// NewForbiddenError reports a caller lacking the required relationship or role
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newError(ErrorTypeForbidden, message, http.StatusForbidden)
}

// NewAuthorizationError is an alias of NewForbiddenError used by the domain services
func NewAuthorizationError(message string) *AppError {
	return NewForbiddenError(message)
}

// NewInternalError reports an unexpected failure
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// NewRateLimitError reports a throttled caller
func NewRateLimitError(limit int, window string) *AppError {
	return newError(ErrorTypeRateLimit,
		fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window),
		http.StatusTooManyRequests)
}

// NewUnavailableError reports a dependency that is temporarily unavailable
func NewUnavailableError(service string) *AppError {
	return newError(ErrorTypeUnavailable,
		fmt.Sprintf("service '%s' is unavailable", service),
		http.StatusServiceUnavailable)
}

// NewDatabaseError wraps a storage failure
func NewDatabaseError(operation string, err error) *AppError {
	e := newError(ErrorTypeDatabase,
		fmt.Sprintf("database operation '%s' failed", operation),
		http.StatusInternalServerError)
	e.Cause = err
	return e
}

// NewDeliveryError wraps a push send failure. Delivery errors are logged and
// counted by the dispatcher and never returned to a writer.
func NewDeliveryError(connectionID string, err error) *AppError {
	e := newError(ErrorTypeDelivery,
		fmt.Sprintf("push to connection '%s' failed", connectionID),
		http.StatusBadGateway)
	e.Cause = err
	return e
}

// NewExternalError wraps a failure of an external service
func NewExternalError(service string, err error) *AppError {
	e := newError(ErrorTypeExternal,
		fmt.Sprintf("external service '%s' error", service),
		http.StatusBadGateway)
	e.Cause = err
	return e
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool      { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool    { return IsType(err, ErrorTypeValidation) }
func IsConflict(err error) bool      { return IsType(err, ErrorTypeConflict) }
func IsDuplicatePost(err error) bool { return IsType(err, ErrorTypeDuplicatePost) }
func IsUnauthorized(err error) bool  { return IsType(err, ErrorTypeUnauthorized) }
func IsForbidden(err error) bool     { return IsType(err, ErrorTypeForbidden) }
func IsDelivery(err error) bool      { return IsType(err, ErrorTypeDelivery) }
func IsInternal(err error) bool      { return IsType(err, ErrorTypeInternal) }

// Wrap adds context to err. AppErrors keep their type; anything else becomes INTERNAL.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if appErr := GetAppError(err); appErr != nil {
		wrapped := *appErr
		wrapped.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return &wrapped
	}

	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
