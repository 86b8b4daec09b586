package errors

import (
	"errors"
	"fmt"
	"net/http"
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
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     nil,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// IllegalTransition rejects a status change the transition table does not
// allow. Raised by the local guard before any network call is made.
func IllegalTransition(from, to string) *AppError {
	return &AppError{
		Code:    "ILLEGAL_TRANSITION",
		Message: fmt.Sprintf("cannot transition order from %q to %q", from, to),
		Status:  http.StatusUnprocessableEntity,
		Err:     nil,
	}
}

// TransitionRejected wraps a backend refusal of a status change, e.g. when the
// client acted on a stale snapshot.
func TransitionRejected(message string, err error) *AppError {
	return &AppError{
		Code:    "TRANSITION_REJECTED",
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

func HistoryUnavailable(err error) *AppError {
	return &AppError{
		Code:    "HISTORY_UNAVAILABLE",
		Message: "failed to load message history",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// SendRejected is the local precondition failure: locked chat, empty payload
// or an unbound session. No network call has been made.
func SendRejected(message string) *AppError {
	return &AppError{
		Code:    "SEND_REJECTED",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     nil,
	}
}

// SendFailed means persistence failed; the message was not broadcast and not
// appended to the feed.
func SendFailed(err error) *AppError {
	return &AppError{
		Code:    "SEND_FAILED",
		Message: "failed to send message",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
