package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrAlreadyExists        = errors.New("resource already exists")
	ErrInvalidInput         = errors.New("invalid input")
	ErrBadRequest           = errors.New("bad request")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrFileNotFound         = errors.New("file not found")
	ErrInvalidState         = errors.New("invalid state for operation")
	ErrSignatureInvalid     = errors.New("invalid signature")
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrTransportUnavailable = errors.New("bot transport unavailable")
	ErrMissingMetadata      = errors.New("missing request metadata")
	ErrStaleUpdate          = errors.New("stale update")
	ErrNoCorrelation        = errors.New("no correlation id in update")
)

// Error codes returned to API clients
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeInvalidInput       = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeFileNotFound       = "FILE_NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidState       = "INVALID_STATE"
	CodeSignatureInvalid   = "SIGNATURE_INVALID"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func FileNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeFileNotFound, message, ErrFileNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func InvalidState(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeInvalidState, message, ErrInvalidState)
}

func SignatureInvalid() *AppError {
	return NewAppError(http.StatusUnauthorized, CodeSignatureInvalid, "invalid signature", ErrSignatureInvalid)
}

func ServiceUnavailable(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeServiceUnavailable, message, err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

func InternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, message, nil)
}

// NewError creates a new error with a custom message wrapping an existing error
func NewError(message string, err error) error {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: message,
		Err:     err,
	}
}

// IsTransient reports whether err came from an external dependency that may
// succeed on a later attempt.
func IsTransient(err error) bool {
	return errors.Is(err, ErrProcessorUnavailable) ||
		errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrTransportUnavailable)
}

// FromDomain maps a sentinel-wrapping error to an AppError. Errors that are
// already AppErrors pass through unchanged.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, CodeNotFound, "resource not found", err)
	case errors.Is(err, ErrFileNotFound):
		return NewAppError(http.StatusNotFound, CodeFileNotFound, "file not found", err)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrBadRequest):
		return NewAppError(http.StatusBadRequest, CodeInvalidInput, err.Error(), err)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized", err)
	case errors.Is(err, ErrSignatureInvalid):
		return NewAppError(http.StatusUnauthorized, CodeSignatureInvalid, "invalid signature", err)
	case errors.Is(err, ErrForbidden):
		return NewAppError(http.StatusForbidden, CodeForbidden, "forbidden", err)
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrStaleUpdate):
		return NewAppError(http.StatusConflict, CodeInvalidState, err.Error(), err)
	case errors.Is(err, ErrAlreadyExists):
		return NewAppError(http.StatusConflict, CodeConflict, "resource already exists", err)
	case IsTransient(err):
		return NewAppError(http.StatusServiceUnavailable, CodeServiceUnavailable, "service temporarily unavailable", err)
	}
	return InternalError(err)
}
