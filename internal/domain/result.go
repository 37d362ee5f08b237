package domain

import "fmt"

type ResultStatus string

const (
	StatusSuccess      ResultStatus = "success"
	StatusFailed       ResultStatus = "failed"
	StatusNotFound     ResultStatus = "notFound"
	StatusBadRequest   ResultStatus = "badRequest"
	StatusUnauthorized ResultStatus = "unauthorized"
	StatusForbidden    ResultStatus = "forbidden"
	StatusServerError  ResultStatus = "serverError"
)

// Result is the envelope returned by query operations. Failures never escape as
// errors; the status tells the caller how to surface them.
type Result[T any] struct {
	Status  ResultStatus `json:"status"`
	Message string       `json:"message"`
	Data    *T           `json:"data,omitempty"`
}

func (r Result[T]) OK() bool {
	return r.Status == StatusSuccess
}

// Err converts a non-success result into an error. A notFound result wraps
// ErrNotFound.
func (r Result[T]) Err() error {
	switch {
	case r.OK():
		return nil
	case r.Status == StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, r.Message)
	default:
		return fmt.Errorf("%s: %s", r.Status, r.Message)
	}
}

func Success[T any](data T, message string) Result[T] {
	if message == "" {
		message = "Operation successful"
	}
	return Result[T]{Status: StatusSuccess, Message: message, Data: &data}
}

func Failed[T any](message string) Result[T] {
	return failure[T](StatusFailed, message, "Operation failed")
}

func NotFound[T any](message string) Result[T] {
	return failure[T](StatusNotFound, message, "Resource not found")
}

func BadRequest[T any](message string) Result[T] {
	return failure[T](StatusBadRequest, message, "Bad request")
}

func ServerError[T any](message string) Result[T] {
	return failure[T](StatusServerError, message, "Internal server error")
}

func failure[T any](status ResultStatus, message, fallback string) Result[T] {
	if message == "" {
		message = fallback
	}
	return Result[T]{Status: status, Message: message}
}
