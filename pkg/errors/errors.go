package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInternal           = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeTransitionFailed   = "TRANSITION_FAILED"
	CodeMutationFailed     = "MUTATION_FAILED"
	CodeSubscriptionFailed = "SUBSCRIPTION_FAILED"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// TransitionFailed reports a multi-step move (confirm, archive) that did not
// complete. It does not say which sub-step failed: source and destination may
// both hold the record, or neither.
func TransitionFailed(action string, err error) *AppError {
	return &AppError{
		Code:    CodeTransitionFailed,
		Message: causeMessage(action, err),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// MutationFailed reports a single create or delete rejected by the store.
func MutationFailed(action string, err error) *AppError {
	return &AppError{
		Code:    CodeMutationFailed,
		Message: causeMessage(action, err),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func SubscriptionFailed(collection string, err error) *AppError {
	return &AppError{
		Code:    CodeSubscriptionFailed,
		Message: causeMessage("listen to "+collection, err),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func causeMessage(action string, err error) string {
	if err == nil {
		return "failed to " + action
	}
	return fmt.Sprintf("failed to %s: %s", action, rootMessage(err))
}

// rootMessage keeps messages readable when an AppError wraps another AppError.
func rootMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
