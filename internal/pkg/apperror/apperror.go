package apperror

import "net/http"

// Kind classifies an error for control-flow purposes.
// Conflict errors are expected under contention and safe to retry;
// the other kinds indicate bad input or a data/setup problem.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindConfiguration
	KindBusinessRule
)

// AppError is a custom error type that carries an error kind and an HTTP status code.
type AppError struct {
	Kind    Kind
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry the operation.
// Only conflicts (lost races, lock timeouts) are retryable.
func (e *AppError) Retryable() bool {
	return e.Kind == KindConflict
}

// New creates a new AppError with a kind and message. The HTTP status
// code is derived from the kind.
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    statusOf(kind),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    statusOf(kind),
		Message: message,
		Err:     err,
	}
}

// Validation creates an error for malformed or missing input.
func Validation(message string) *AppError { return New(KindValidation, message) }

// NotFound creates an error for a missing referenced entity.
func NotFound(message string) *AppError { return New(KindNotFound, message) }

// Conflict creates a retryable error for lost races and lock timeouts.
func Conflict(message string) *AppError { return New(KindConflict, message) }

// Configuration creates an error for broken merchant setup
// (e.g., a slot time no price period covers).
func Configuration(message string) *AppError { return New(KindConfiguration, message) }

// BusinessRule creates an error for a violated booking rule
// (e.g., slots spanning multiple owners).
func BusinessRule(message string) *AppError { return New(KindBusinessRule, message) }

func statusOf(kind Kind) int {
	switch kind {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindConfiguration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
